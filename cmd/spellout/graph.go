package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/spellout"
	"github.com/aretw0/spellout/internal/cli"
	"github.com/aretw0/spellout/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <setup.yaml>",
	Short: "Export the derived tree as a Mermaid diagram",
	Long:  `Runs the derivation (searching for a successful one) and outputs a Mermaid diagram (graph TD) of the final tree.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config(cmd)
		logger, err := cfg.Logger()
		if err != nil {
			return err
		}
		setup, err := cli.LoadSetup(cmd.Context(), args[0], logger)
		if err != nil {
			return err
		}
		opts, err := cfg.EngineOptions(logger)
		if err != nil {
			return err
		}

		eng := spellout.New(opts...)
		if err := eng.Start(setup); err != nil {
			return err
		}
		if err := eng.FullRun(true); err != nil && !errors.Is(err, spellout.ErrNoSuccessfulDerivation) {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(eng.Tree(), graph.OverlayOf(eng)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
