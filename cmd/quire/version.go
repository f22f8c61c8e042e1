package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/quire"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of quire",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "quire version %s\n", strings.TrimSpace(quire.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
