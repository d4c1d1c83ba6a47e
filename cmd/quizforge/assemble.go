package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/quizforge/internal/filter"
	"github.com/dshills/quizforge/internal/qti"
	"github.com/dshills/quizforge/internal/quizmd"
	"github.com/dshills/quizforge/internal/schema"
	"github.com/dshills/quizforge/internal/validate"
)

type assembleFlags struct {
	paths      []string
	title      string
	outDir     string
	bloom      []string
	difficulty []string
	tags       []string
	points     []float64
	configPath string
}

func newAssembleCmd() *cobra.Command {
	var f assembleFlags
	cmd := &cobra.Command{
		Use:   "assemble <bank.md> [bank.md...]",
		Short: "Select questions from validated banks and package an assessment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.paths = args
			return runAssemble(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.title, "title", "", "assessment title (default: first bank's title)")
	cmd.Flags().StringVar(&f.outDir, "out", "", "output directory for the package (default from config)")
	cmd.Flags().StringSliceVar(&f.bloom, "bloom", nil, "accepted Bloom levels (repeatable)")
	cmd.Flags().StringSliceVar(&f.difficulty, "difficulty", nil, "accepted difficulty levels (repeatable)")
	cmd.Flags().StringSliceVar(&f.tags, "tags", nil, "accepted custom tags (repeatable)")
	cmd.Flags().Float64SliceVar(&f.points, "points", nil, "accepted point values (repeatable)")
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to quizforge.yaml")
	return cmd
}

func runAssemble(ctx context.Context, f assembleFlags) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return &exitError{code: exitCodeInternal, err: err}
	}

	var questions []schema.Question
	title := f.title
	for _, path := range f.paths {
		doc, err := quizmd.ParseFile(path)
		if err != nil {
			return &exitError{code: exitCodeInternal, err: err}
		}
		if verrs := validate.Validate(doc); len(verrs) > 0 {
			return &exitError{
				code: exitCodeNeedsHuman,
				err:  fmt.Errorf("bank %s has %d validation errors; run convert first", path, len(verrs)),
			}
		}
		if title == "" {
			title = doc.Title
		}
		questions = append(questions, doc.Questions...)
	}

	spec := schema.FilterSpec{
		BloomLevels:      f.bloom,
		DifficultyLevels: f.difficulty,
		CustomTags:       f.tags,
		PointValues:      f.points,
	}
	selected := filter.Filter(questions, spec)
	if len(selected) == 0 {
		// A filter that matches nothing is a valid, reportable outcome.
		fmt.Fprintf(os.Stderr, "no questions match the filter (%s)\n", describeFilter(spec))
		return nil
	}

	outDir := f.outDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &exitError{code: exitCodeInternal, err: fmt.Errorf("creating output dir: %w", err)}
	}

	art, err := qti.Generate(&schema.Document{Title: title, Questions: selected})
	if err != nil {
		return &exitError{code: exitCodeInternal, err: err}
	}
	pkgPath, err := qti.Package(art, outDir)
	if err != nil {
		return &exitError{code: exitCodeInternal, err: err}
	}

	fmt.Printf("%d of %d questions selected\n", len(selected), len(questions))
	fmt.Println(pkgPath)
	return ctx.Err()
}

// describeFilter names the present categories for the empty-result notice.
func describeFilter(spec schema.FilterSpec) string {
	var parts []string
	if spec.BloomLevels != nil {
		parts = append(parts, fmt.Sprintf("bloom=%v", spec.BloomLevels))
	}
	if spec.DifficultyLevels != nil {
		parts = append(parts, fmt.Sprintf("difficulty=%v", spec.DifficultyLevels))
	}
	if spec.CustomTags != nil {
		parts = append(parts, fmt.Sprintf("tags=%v", spec.CustomTags))
	}
	if spec.PointValues != nil {
		parts = append(parts, fmt.Sprintf("points=%v", spec.PointValues))
	}
	if len(parts) == 0 {
		return "no constraints"
	}
	return strings.Join(parts, " ")
}
