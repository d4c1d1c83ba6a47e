package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dshills/quizforge/internal/docindex"
	"github.com/dshills/quizforge/internal/pipeline"
	"github.com/dshills/quizforge/internal/route"
	"github.com/dshills/quizforge/internal/schema"
)

type batchFlags struct {
	root       string
	outDir     string
	jobs       int
	configPath string
}

func newBatchCmd() *cobra.Command {
	var f batchFlags
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Run every quiz document under a directory through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.root = args[0]
			return runBatch(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.outDir, "out", "", "output directory for packages (default from config)")
	cmd.Flags().IntVar(&f.jobs, "jobs", 4, "documents processed in parallel")
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to quizforge.yaml")
	return cmd
}

// batchResult pairs a document with its outcome or failure.
type batchResult struct {
	path    string
	outcome *schema.Outcome
	err     error
}

func runBatch(ctx context.Context, f batchFlags) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return &exitError{code: exitCodeInternal, err: err}
	}

	idx, err := docindex.Build(f.root, docindex.Options{
		IgnoreDirs:  cfg.Batch.IgnoreDirs,
		MaxFileSize: cfg.Batch.MaxFileSize,
	})
	if err != nil {
		return &exitError{code: exitCodeInternal, err: err}
	}
	if len(idx.Entries) == 0 {
		fmt.Fprintf(os.Stderr, "no markdown documents under %s\n", f.root)
		return nil
	}

	outDir := f.outDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &exitError{code: exitCodeInternal, err: fmt.Errorf("creating output dir: %w", err)}
	}

	jobs := f.jobs
	if jobs < 1 {
		jobs = 1
	}

	rules := route.DefaultRuleset().WithOverrides(cfg.RouteOverrides())

	// Documents are independent units of work; each gets its own runner pass.
	results := make([]batchResult, len(idx.Entries))
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for i, entry := range idx.Entries {
		wg.Add(1)
		go func(i int, entry docindex.Entry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			path := filepath.Join(f.root, entry.Path)
			data, err := os.ReadFile(path)
			if err != nil {
				results[i] = batchResult{path: entry.Path, err: err}
				return
			}
			runner := &pipeline.Runner{Rules: &rules, OutDir: outDir}
			out, err := runner.Run(ctx, entry.Path, string(data))
			results[i] = batchResult{path: entry.Path, outcome: out, err: err}
		}(i, entry)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })

	counts := map[schema.DocState]int{}
	failures := 0
	for _, res := range results {
		if res.err != nil {
			failures++
			fmt.Printf("%-18s %s (%v)\n", "ERROR", res.path, res.err)
			continue
		}
		counts[res.outcome.State]++
		line := fmt.Sprintf("%-18s %s", res.outcome.State, res.path)
		if res.outcome.PackagePath != "" {
			line += " -> " + res.outcome.PackagePath
		}
		fmt.Println(line)
	}

	fmt.Printf("\n%d documents", len(results))
	for _, state := range []schema.DocState{
		schema.StateDone,
		schema.StateAwaitingHuman,
		schema.StateAwaitingContent,
		schema.StateNeedsScaffolding,
		schema.StateNeedsReformatting,
		schema.StateNeedsTriage,
	} {
		if n := counts[state]; n > 0 {
			fmt.Printf(", %d %s", n, state)
		}
	}
	if failures > 0 {
		fmt.Printf(", %d failed", failures)
	}
	fmt.Println()

	return batchExit(counts, failures)
}

// batchExit maps the aggregate outcome to the process exit contract.
// Internal failures dominate, then human-queue states, then content states.
func batchExit(counts map[schema.DocState]int, failures int) error {
	if failures > 0 {
		return &exitError{code: exitCodeInternal, err: fmt.Errorf("%d documents failed", failures)}
	}
	human := counts[schema.StateAwaitingHuman] +
		counts[schema.StateNeedsReformatting] +
		counts[schema.StateNeedsTriage]
	if human > 0 {
		return &exitError{code: exitCodeNeedsHuman, err: fmt.Errorf("%d documents require human attention", human)}
	}
	content := counts[schema.StateAwaitingContent] + counts[schema.StateNeedsScaffolding]
	if content > 0 {
		return &exitError{code: exitCodeNeedsContent, err: fmt.Errorf("%d documents require new content", content)}
	}
	return nil
}
