package main

import (
	"fmt"
	"os"

	"github.com/aretw0/quire/internal/cli"
	"github.com/aretw0/quire/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var showCmd = &cobra.Command{
	Use:   "show <file.json>",
	Short: "Print a readable summary of a questionnaire",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := cli.LoadDocument(args[0])
		if err != nil {
			return err
		}
		md := tui.Summary(doc.Questionnaire, doc.Metadata)

		out := cmd.OutOrStdout()
		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Fprint(out, md)
			return nil
		}

		render, err := renderer(out == os.Stdout)
		if err != nil {
			return err
		}
		text, err := render(md)
		if err != nil {
			return fmt.Errorf("failed to render summary: %w", err)
		}
		fmt.Fprint(out, text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("raw", false, "Print markdown without rendering")
}

func renderer(stdout bool) (func(string) (string, error), error) {
	if !stdout || !tui.IsTerminal(os.Stdout) {
		return tui.NewPlainRenderer()
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	return tui.NewRenderer(width)
}
