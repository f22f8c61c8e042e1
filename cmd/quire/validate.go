package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/quire/internal/cli"
	"github.com/aretw0/quire/pkg/builder"
	"github.com/aretw0/quire/pkg/schema"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var errInvalid = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <file.json>...",
	Short: "Check questionnaire files for consistency",
	Long: `Checks exported questionnaires or draft files. Structural errors (unknown
types, duplicate ids, dangling edges) are always reported. With --save the
checks applied before saving are run too.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("save")
		return runValidate(cmd.OutOrStdout(), args, strict)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("save", false, "Also apply the save preconditions")
}

func runValidate(w io.Writer, paths []string, strict bool) error {
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	failed := 0
	for _, path := range paths {
		err := validateFile(path, strict)
		if err == nil {
			fmt.Fprintf(w, "%s %s\n", ok("✓"), path)
			continue
		}
		failed++
		fmt.Fprintf(w, "%s %s\n", bad("✗"), path)
		if verrs := schema.ValidationErrors(err); len(verrs) > 0 {
			for _, v := range verrs {
				fmt.Fprintf(w, "    %s %s\n", dim(v.Key+":"), v.Reason)
			}
			continue
		}
		fmt.Fprintf(w, "    %v\n", err)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d file(s)", errInvalid, failed, len(paths))
	}
	return nil
}

func validateFile(path string, strict bool) error {
	doc, err := cli.LoadDocument(path)
	if err != nil {
		return err
	}
	if err := schema.Validate(doc.Questionnaire); err != nil {
		return err
	}
	if !strict {
		return nil
	}
	return builder.CheckDocument(doc.Metadata, schema.Persistable(doc.Questionnaire))
}
