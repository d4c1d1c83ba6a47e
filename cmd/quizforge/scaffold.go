package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/quizforge/internal/format"
	"github.com/dshills/quizforge/internal/scaffold"
	"github.com/dshills/quizforge/internal/schema"
)

type scaffoldFlags struct {
	path         string
	out          string
	questionType string
	provider     string
	model        string
	maxTokens    int
	temperature  float64
	style        string
	debug        bool
	configPath   string
}

func newScaffoldCmd() *cobra.Command {
	var f scaffoldFlags
	cmd := &cobra.Command{
		Use:   "scaffold [notes.md]",
		Short: "Draft a structured skeleton from raw notes or a type template",
		Long: `Draft a structured quiz skeleton. With a notes file, an LLM provider
restructures the raw text. With --type and no file, a deterministic
template for that question type is emitted without any provider.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				f.path = args[0]
			}
			return runScaffold(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.out, "out", "", "write the skeleton to this file instead of stdout")
	cmd.Flags().StringVar(&f.questionType, "type", "", "emit an offline template for this question type")
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider: anthropic, openai, or google")
	cmd.Flags().StringVar(&f.model, "model", "", "model name")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", 0, "response token limit")
	cmd.Flags().Float64Var(&f.temperature, "temperature", -1, "sampling temperature")
	cmd.Flags().StringVar(&f.style, "style", "", "prompt style: general, stem, language, or humanities")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "print prompts to stderr")
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to quizforge.yaml")
	return cmd
}

func runScaffold(ctx context.Context, f scaffoldFlags) error {
	if f.path == "" {
		if f.questionType == "" {
			return &exitError{
				code: exitCodeInternal,
				err:  fmt.Errorf("scaffold needs a notes file or --type"),
			}
		}
		draft, err := scaffold.Template(f.questionType)
		if err != nil {
			return &exitError{code: exitCodeInternal, err: err}
		}
		return writeDraft(draft, f.out)
	}

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return &exitError{code: exitCodeInternal, err: err}
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return &exitError{code: exitCodeInternal, err: fmt.Errorf("reading notes: %w", err)}
	}
	if format.Detect(string(data)) == schema.FormatValidCurrent {
		fmt.Fprintf(os.Stderr, "%s is already structured; nothing to scaffold\n", f.path)
		return nil
	}

	opts := scaffold.Options{
		Provider:    cfg.Scaffold.Provider,
		Model:       cfg.Scaffold.Model,
		MaxTokens:   cfg.Scaffold.MaxTokens,
		Temperature: cfg.Scaffold.Temperature,
		Style:       cfg.Scaffold.Style,
		Debug:       f.debug,
	}
	if f.provider != "" {
		opts.Provider = f.provider
	}
	if f.model != "" {
		opts.Model = f.model
	}
	if f.maxTokens > 0 {
		opts.MaxTokens = f.maxTokens
	}
	if f.temperature >= 0 {
		opts.Temperature = f.temperature
	}
	if f.style != "" {
		opts.Style = f.style
	}

	draft, err := scaffold.Draft(ctx, string(data), opts)
	if err != nil {
		return &exitError{code: exitCodeInternal, err: err}
	}
	return writeDraft(draft, f.out)
}

func writeDraft(draft, out string) error {
	if out == "" {
		fmt.Print(draft)
		if draft != "" && draft[len(draft)-1] != '\n' {
			fmt.Println()
		}
		return nil
	}
	if err := os.WriteFile(out, []byte(draft), 0o644); err != nil {
		return &exitError{code: exitCodeInternal, err: fmt.Errorf("writing skeleton: %w", err)}
	}
	fmt.Println(out)
	return nil
}
