package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes. Terminal pipeline states that need an author map to 2 and 3 so
// scripts can sort documents into work queues.
const (
	exitCodeInternal     = 1
	exitCodeNeedsHuman   = 2
	exitCodeNeedsContent = 3
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	root := &cobra.Command{
		Use:           "quizforge",
		Short:         "Convert markdown quiz documents into QTI assessment packages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newConvertCmd(),
		newDetectCmd(),
		newAssembleCmd(),
		newScaffoldCmd(),
		newBatchCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(exitCodeInternal)
	}
}
