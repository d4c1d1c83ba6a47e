//go:build integration

package main

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/quizforge/internal/scaffold"
)

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// emptyConfig gives every run an explicit empty config file so host
// configuration cannot leak into the tests.
func emptyConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quizforge.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestIntegration_Convert_Current(t *testing.T) {
	out := t.TempDir()
	f := convertFlags{
		path:       "../../testdata/current/biology.md",
		outDir:     out,
		format:     "json",
		configPath: emptyConfig(t),
	}

	err := runConvert(context.Background(), f)
	if code := exitCode(err); code != 0 {
		t.Fatalf("expected exit 0, got %d: %v", code, err)
	}

	entries, globErr := filepath.Glob(filepath.Join(out, "*.zip"))
	if globErr != nil || len(entries) != 1 {
		t.Fatalf("expected one package zip, got %v (%v)", entries, globErr)
	}
	zr, zipErr := zip.OpenReader(entries[0])
	if zipErr != nil {
		t.Fatalf("open package: %v", zipErr)
	}
	defer zr.Close()

	var names []string
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	joined := strings.Join(names, " ")
	if !strings.Contains(joined, "imsmanifest.xml") {
		t.Errorf("package missing manifest: %v", names)
	}
}

func TestIntegration_Convert_LegacyUpgrades(t *testing.T) {
	f := convertFlags{
		path:       "../../testdata/legacy/history.md",
		outDir:     t.TempDir(),
		format:     "markdown",
		configPath: emptyConfig(t),
	}
	if err := runConvert(context.Background(), f); exitCode(err) != 0 {
		t.Fatalf("legacy document should convert cleanly: %v", err)
	}
}

func TestIntegration_Convert_MechanicalAutoFix(t *testing.T) {
	f := convertFlags{
		path:       "../../testdata/mechanical/physics.md",
		outDir:     t.TempDir(),
		format:     "json",
		configPath: emptyConfig(t),
	}
	if err := runConvert(context.Background(), f); exitCode(err) != 0 {
		t.Fatalf("float point value should auto-fix: %v", err)
	}
}

func TestIntegration_Convert_ExitCodes(t *testing.T) {
	cases := []struct {
		name string
		path string
		want int
	}{
		{"structural needs human", "../../testdata/structural/chemistry.md", exitCodeNeedsHuman},
		{"pedagogical needs content", "../../testdata/pedagogical/geography.md", exitCodeNeedsContent},
		{"raw needs content", "../../testdata/raw/german.md", exitCodeNeedsContent},
		{"semi needs human", "../../testdata/semi/outline.md", exitCodeNeedsHuman},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := convertFlags{
				path:       tc.path,
				outDir:     t.TempDir(),
				format:     "json",
				configPath: emptyConfig(t),
			}
			err := runConvert(context.Background(), f)
			if code := exitCode(err); code != tc.want {
				t.Errorf("expected exit %d, got %d: %v", tc.want, code, err)
			}
		})
	}
}

func TestIntegration_Convert_MissingFile(t *testing.T) {
	f := convertFlags{
		path:       filepath.Join(t.TempDir(), "nope.md"),
		outDir:     t.TempDir(),
		format:     "json",
		configPath: emptyConfig(t),
	}
	if code := exitCode(runConvert(context.Background(), f)); code != exitCodeInternal {
		t.Errorf("expected exit %d for missing file, got %d", exitCodeInternal, code)
	}
}

func TestIntegration_Assemble_Filtered(t *testing.T) {
	out := t.TempDir()
	f := assembleFlags{
		paths:      []string{"../../testdata/current/biology.md"},
		title:      "Cells Quiz",
		outDir:     out,
		tags:       []string{"Cells", "Organelles"},
		configPath: emptyConfig(t),
	}

	err := runAssemble(context.Background(), f)
	if code := exitCode(err); code != 0 {
		t.Fatalf("expected exit 0, got %d: %v", code, err)
	}
	entries, _ := filepath.Glob(filepath.Join(out, "*.zip"))
	if len(entries) != 1 {
		t.Fatalf("expected one package, got %v", entries)
	}
}

func TestIntegration_Assemble_EmptyResultIsNotAnError(t *testing.T) {
	out := t.TempDir()
	f := assembleFlags{
		paths:      []string{"../../testdata/current/biology.md"},
		outDir:     out,
		tags:       []string{"NoSuchTag"},
		configPath: emptyConfig(t),
	}

	if err := runAssemble(context.Background(), f); exitCode(err) != 0 {
		t.Fatalf("empty filter result must exit 0: %v", err)
	}
	entries, _ := filepath.Glob(filepath.Join(out, "*.zip"))
	if len(entries) != 0 {
		t.Errorf("no package expected for empty selection, got %v", entries)
	}
}

func TestIntegration_Assemble_InvalidBank(t *testing.T) {
	f := assembleFlags{
		paths:      []string{"../../testdata/structural/chemistry.md"},
		outDir:     t.TempDir(),
		configPath: emptyConfig(t),
	}
	if code := exitCode(runAssemble(context.Background(), f)); code != exitCodeNeedsHuman {
		t.Errorf("expected exit %d for invalid bank, got %d", exitCodeNeedsHuman, code)
	}
}

func TestIntegration_Batch(t *testing.T) {
	f := batchFlags{
		root:       "../../testdata",
		outDir:     t.TempDir(),
		jobs:       2,
		configPath: emptyConfig(t),
	}

	// The tree mixes done, human-queue, and content-queue documents; the
	// human queue decides the exit code.
	err := runBatch(context.Background(), f)
	if code := exitCode(err); code != exitCodeNeedsHuman {
		t.Fatalf("expected exit %d, got %d: %v", exitCodeNeedsHuman, code, err)
	}
}

func TestIntegration_Scaffold_Template(t *testing.T) {
	out := filepath.Join(t.TempDir(), "skeleton.md")
	f := scaffoldFlags{
		questionType: "mcq",
		out:          out,
		configPath:   emptyConfig(t),
	}

	if err := runScaffold(context.Background(), f); exitCode(err) != 0 {
		t.Fatalf("template scaffold: %v", err)
	}
	data, readErr := os.ReadFile(out)
	if readErr != nil {
		t.Fatalf("read skeleton: %v", readErr)
	}
	if !strings.Contains(string(data), "^type: multiple_choice") {
		t.Errorf("skeleton missing canonical type:\n%s", data)
	}
}

func TestIntegration_Scaffold_MockProvider(t *testing.T) {
	draft := `^question: Q01
^type: short_answer
^points: 1
^begin question_text
Which organ pumps blood through the body?
^end question_text
^begin answer
the heart
^end answer
^begin feedback
The heart drives the circulatory system.
^end feedback
`
	orig := scaffold.NewProvider
	scaffold.NewProvider = func(_, _ string) (scaffold.Provider, error) {
		return scriptedProvider{response: draft}, nil
	}
	t.Cleanup(func() { scaffold.NewProvider = orig })

	out := filepath.Join(t.TempDir(), "draft.md")
	f := scaffoldFlags{
		path:       "../../testdata/raw/german.md",
		out:        out,
		configPath: emptyConfig(t),
	}

	if err := runScaffold(context.Background(), f); exitCode(err) != 0 {
		t.Fatalf("scaffold: %v", err)
	}
	data, readErr := os.ReadFile(out)
	if readErr != nil {
		t.Fatalf("read draft: %v", readErr)
	}
	if strings.TrimSpace(string(data)) != strings.TrimSpace(draft) {
		t.Errorf("draft not written verbatim:\n%s", data)
	}
}

type scriptedProvider struct {
	response string
}

func (p scriptedProvider) Complete(_ context.Context, _, _ string, _ int, _ float64) (string, error) {
	if p.response == "" {
		return "", fmt.Errorf("scriptedProvider: no response configured")
	}
	return p.response, nil
}
