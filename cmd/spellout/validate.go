package main

import (
	"fmt"

	"github.com/aretw0/spellout/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <setup.yaml>",
	Short: "Check a setup document",
	Long:  `Decodes the setup document, resolves its lexicon vault and checks that a derivation can start from it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := config(cmd).Logger()
		if err != nil {
			return err
		}
		setup, err := cli.LoadSetup(cmd.Context(), args[0], logger)
		if err != nil {
			return err
		}
		if err := setup.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		for _, e := range setup.Lexicon {
			if !e.IsComplete() {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: entry %q is incomplete and will be ignored\n", e.Name)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Setup is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
