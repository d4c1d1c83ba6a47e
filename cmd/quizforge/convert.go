package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/quizforge/internal/config"
	"github.com/dshills/quizforge/internal/pipeline"
	"github.com/dshills/quizforge/internal/render"
	"github.com/dshills/quizforge/internal/route"
	"github.com/dshills/quizforge/internal/schema"
)

type convertFlags struct {
	path       string
	outDir     string
	format     string
	configPath string
}

func newConvertCmd() *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "convert <document.md>",
		Short: "Run one quiz document through the full pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.path = args[0]
			return runConvert(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.outDir, "out", "", "output directory for the package (default from config)")
	cmd.Flags().StringVar(&f.format, "format", "markdown", "report format: markdown or json")
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to quizforge.yaml")
	return cmd
}

func runConvert(ctx context.Context, f convertFlags) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return &exitError{code: exitCodeInternal, err: err}
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return &exitError{code: exitCodeInternal, err: fmt.Errorf("reading document: %w", err)}
	}

	outDir := f.outDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &exitError{code: exitCodeInternal, err: fmt.Errorf("creating output dir: %w", err)}
	}

	rules := route.DefaultRuleset().WithOverrides(cfg.RouteOverrides())
	runner := &pipeline.Runner{Rules: &rules, OutDir: outDir}

	out, err := runner.Run(ctx, f.path, string(data))
	if err != nil {
		return &exitError{code: exitCodeInternal, err: err}
	}

	if err := printOutcome(out, f.format); err != nil {
		return &exitError{code: exitCodeInternal, err: err}
	}
	return exitForState(out.State)
}

// printOutcome writes the rendered outcome to stdout.
func printOutcome(out *schema.Outcome, format string) error {
	switch format {
	case "json":
		b, err := render.RenderJSON(out)
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	case "markdown":
		fmt.Print(render.RenderMarkdown(out))
	default:
		return fmt.Errorf("unknown report format %q (want markdown or json)", format)
	}
	return nil
}

// exitForState maps a terminal pipeline state to the process exit contract.
func exitForState(state schema.DocState) error {
	switch state {
	case schema.StateAwaitingHuman, schema.StateNeedsReformatting, schema.StateNeedsTriage:
		return &exitError{
			code: exitCodeNeedsHuman,
			err:  fmt.Errorf("document requires human attention (%s)", state),
		}
	case schema.StateAwaitingContent, schema.StateNeedsScaffolding:
		return &exitError{
			code: exitCodeNeedsContent,
			err:  fmt.Errorf("document requires new instructional content (%s)", state),
		}
	}
	return nil
}

// loadConfig loads an explicit config path or falls back to the default
// lookup chain.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}
