package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/spellout/internal/cli"
	"github.com/aretw0/spellout/internal/presentation/tui"
	"github.com/aretw0/spellout/pkg/domain"
	"github.com/aretw0/spellout/pkg/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent derivation sessions",
	Long:  `Start, step, inspect and remove derivations persisted in the configured store (--store).`,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start <setup.yaml>",
	Short: "Start a derivation and store it as a new session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(mgr *session.Manager, logger *slog.Logger) error {
			setup, err := cli.LoadSetup(cmd.Context(), args[0], logger)
			if err != nil {
				return err
			}
			p, err := mgr.Create(cmd.Context(), setup)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session '%s' started.\n", p.SessionID)
			return printProgress(cmd, p)
		})
	},
}

var sessionForwardCmd = &cobra.Command{
	Use:   "forward <session-id>",
	Short: "Advance a session by one step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alternative, _ := cmd.Flags().GetInt("alternative")
		toEnd, _ := cmd.Flags().GetBool("to-end")
		onlySuccessful, _ := cmd.Flags().GetBool("only-successful")
		return withManager(cmd, func(mgr *session.Manager, _ *slog.Logger) error {
			var (
				p   *domain.Progress
				err error
			)
			if toEnd {
				p, err = mgr.Run(cmd.Context(), args[0], onlySuccessful)
			} else {
				p, err = mgr.Forward(cmd.Context(), args[0], alternative)
			}
			if err != nil {
				return err
			}
			return printProgress(cmd, p)
		})
	},
}

var sessionBackCmd = &cobra.Command{
	Use:   "back <session-id>",
	Short: "Undo the latest step of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(mgr *session.Manager, _ *slog.Logger) error {
			p, err := mgr.Back(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printProgress(cmd, p)
		})
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(mgr *session.Manager, _ *slog.Logger) error {
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				p, err := mgr.Progress(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), p)
			}
			eng, err := mgr.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cli.Print(cmd.OutOrStdout(), renderer(), tui.Report(eng, true))
			return nil
		})
	},
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(mgr *session.Manager, _ *slog.Logger) error {
			sessions, err := mgr.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintln(cmd.OutOrStdout(), "- "+s)
			}
			return nil
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd, func(mgr *session.Manager, _ *slog.Logger) error {
			failed := 0
			for _, sessionID := range args {
				if err := mgr.Delete(cmd.Context(), sessionID); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", sessionID, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sessions could not be removed", failed, len(args))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStartCmd, sessionForwardCmd, sessionBackCmd, sessionShowCmd, sessionLsCmd, sessionRmCmd)

	sessionForwardCmd.Flags().Int("alternative", domain.DefaultAlternative, "Alternative to take at a choice point")
	sessionForwardCmd.Flags().Bool("to-end", false, "Run the session to a terminal state")
	sessionForwardCmd.Flags().Bool("only-successful", false, "With --to-end, backtrack until a derivation succeeds")
	sessionShowCmd.Flags().Bool("json", false, "Print the progress as JSON")
}

// withManager opens the configured store for the duration of fn.
func withManager(cmd *cobra.Command, fn func(*session.Manager, *slog.Logger) error) error {
	cfg := config(cmd)
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	mgr, backend, err := cfg.NewManager(logger)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(mgr, logger)
}

func printProgress(cmd *cobra.Command, p *domain.Progress) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "State: %s (round %d)\n", p.State, p.Round)
	if n := len(p.Log); n > 0 {
		fmt.Fprintf(out, "Last:  %s\n", p.Log[n-1].Text)
	}
	if len(p.Alternatives) > 1 {
		for _, alt := range p.Alternatives {
			fmt.Fprintf(out, "  [%d] %s\n", alt.Index, alt.Label)
		}
	}
	if len(p.Spellout) > 0 {
		fmt.Fprintf(out, "Spell-out: %v\n", p.Spellout)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderer() func(string) (string, error) {
	if cli.IsTerminal(os.Stdout) {
		return tui.NewRenderer()
	}
	return tui.PlainRenderer
}
