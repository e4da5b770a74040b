package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/spellout"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of spellout",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "spellout version %s\n", strings.TrimSpace(spellout.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
