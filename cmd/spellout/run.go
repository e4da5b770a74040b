package main

import (
	"os"

	"github.com/aretw0/spellout/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <setup.yaml>",
	Short: "Run a derivation to the end",
	Long: `Loads a setup document and runs the derivation with default choices.
--only-successful backtracks until a derivation succeeds, --all prints every
possibility and --step drives the derivation one step at a time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		opts := cli.RunOptions{
			SetupPath:   args[0],
			Interactive: cli.IsTerminal(os.Stdin) && cli.IsTerminal(os.Stdout),
		}
		opts.OnlySuccessful, _ = flags.GetBool("only-successful")
		opts.All, _ = flags.GetBool("all")
		opts.Step, _ = flags.GetBool("step")
		opts.ShowLog, _ = flags.GetBool("log")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Run(ctx, config(cmd), opts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("only-successful", false, "Backtrack until a derivation succeeds")
	runCmd.Flags().Bool("all", false, "Enumerate every possibility")
	runCmd.Flags().Bool("step", false, "Step through the derivation interactively")
	runCmd.Flags().Bool("log", false, "Include the derivation log in the report")
	runCmd.MarkFlagsMutuallyExclusive("all", "step")
}
