package main

import (
	"fmt"

	"github.com/aretw0/quire/internal/cli"
	"github.com/aretw0/quire/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file.json>",
	Short: "Export the questionnaire as a Mermaid diagram",
	Long:  `Reads a questionnaire or draft and prints a Mermaid flowchart (graph TD) of its branches.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := cli.LoadDocument(args[0])
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		selected, _ := cmd.Flags().GetStringSlice("highlight")
		unanswered, _ := cmd.Flags().GetStringSlice("dim")
		if len(selected) > 0 || len(unanswered) > 0 {
			overlay = &graph.Overlay{Selected: selected, Unanswered: unanswered}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(doc.Questionnaire, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("highlight", nil, "Node ids to highlight")
	graphCmd.Flags().StringSlice("dim", nil, "Node ids to dim")
}
