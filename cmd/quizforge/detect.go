package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/quizforge/internal/format"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <document.md>",
		Short: "Print a document's format level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return &exitError{code: exitCodeInternal, err: fmt.Errorf("reading document: %w", err)}
			}
			level := format.Detect(string(data))
			fmt.Printf("%s\t%s\n", level, args[0])
			if format.IsTransformable(level) {
				fmt.Println("document can be upgraded automatically (quizforge convert)")
			}
			return nil
		},
	}
}
