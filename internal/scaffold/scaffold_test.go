package scaffold

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dshills/quizforge/internal/format"
	"github.com/dshills/quizforge/internal/quizmd"
	"github.com/dshills/quizforge/internal/schema"
)

// mockProvider is a test double for Provider.
type mockProvider struct {
	responses []string // returned in order; last entry is repeated if list exhausted
	callCount int
}

func (m *mockProvider) Complete(_ context.Context, _, _ string, _ int, _ float64) (string, error) {
	if len(m.responses) == 0 {
		m.callCount++
		return "", fmt.Errorf("mockProvider: no responses configured")
	}
	idx := m.callCount
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.callCount++
	return m.responses[idx], nil
}

// installMock replaces NewProvider with a factory returning mp, and restores
// the original after the test.
func installMock(t *testing.T, mp *mockProvider) {
	t.Helper()
	orig := NewProvider
	NewProvider = func(_, _ string) (Provider, error) { return mp, nil }
	t.Cleanup(func() { NewProvider = orig })
}

const validDraft = `^question: Q01
^type: multiple_choice
^points: 1
^begin question_text
Which organelle produces ATP?
^end question_text
^begin options
- [x] Mitochondrion
- [ ] Ribosome
^end options
^begin feedback
The mitochondrion is the site of cellular respiration.
^end feedback
`

const rawNotes = `**Frage:** Which organelle produces ATP?
**Richtige Antwort:** Mitochondrion
**Falsche Antwort:** Ribosome
`

func TestDraft_ValidFirstResponse(t *testing.T) {
	mp := &mockProvider{responses: []string{validDraft}}
	installMock(t, mp)

	got, err := Draft(context.Background(), rawNotes, Options{MaxTokens: 1024})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if mp.callCount != 1 {
		t.Errorf("expected 1 provider call, got %d", mp.callCount)
	}
	if !strings.Contains(got, "^question: Q01") {
		t.Errorf("draft missing question metadata:\n%s", got)
	}
}

func TestDraft_StripsFences(t *testing.T) {
	fenced := "```markdown\n" + validDraft + "```"
	mp := &mockProvider{responses: []string{fenced}}
	installMock(t, mp)

	got, err := Draft(context.Background(), rawNotes, Options{MaxTokens: 1024})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if strings.Contains(got, "```") {
		t.Errorf("fences not stripped:\n%s", got)
	}
	if format.Detect(got) != schema.FormatValidCurrent {
		t.Errorf("stripped draft not at current format level")
	}
}

func TestDraft_RepairSucceeds(t *testing.T) {
	mp := &mockProvider{responses: []string{"Sure! Here is the quiz you asked for.", validDraft}}
	installMock(t, mp)

	got, err := Draft(context.Background(), rawNotes, Options{MaxTokens: 1024})
	if err != nil {
		t.Fatalf("Draft after repair: %v", err)
	}
	if mp.callCount != 2 {
		t.Errorf("expected 2 provider calls, got %d", mp.callCount)
	}
	if _, err := quizmd.Parse(got); err != nil {
		t.Errorf("repaired draft does not parse: %v", err)
	}
}

func TestDraft_RepairFails(t *testing.T) {
	mp := &mockProvider{responses: []string{"prose", "still prose"}}
	installMock(t, mp)

	_, err := Draft(context.Background(), rawNotes, Options{MaxTokens: 1024})
	if !errors.Is(err, ErrInvalidScaffold) {
		t.Fatalf("expected ErrInvalidScaffold, got %v", err)
	}
	if mp.callCount != 2 {
		t.Errorf("expected exactly 2 provider calls, got %d", mp.callCount)
	}
}

func TestDraft_UnterminatedSectionTriggersRepair(t *testing.T) {
	// Detects as current format but fails to parse: the final ^end is missing.
	truncated := strings.Replace(validDraft, "^end feedback\n", "", 1)
	mp := &mockProvider{responses: []string{truncated, validDraft}}
	installMock(t, mp)

	_, err := Draft(context.Background(), rawNotes, Options{MaxTokens: 1024})
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if mp.callCount != 2 {
		t.Errorf("expected repair call, got %d calls", mp.callCount)
	}
}

func TestDraft_UnknownStyle(t *testing.T) {
	installMock(t, &mockProvider{responses: []string{validDraft}})

	_, err := Draft(context.Background(), rawNotes, Options{Style: "astrology"})
	if err == nil {
		t.Fatal("expected error for unknown style")
	}
}

func TestLoadStyle(t *testing.T) {
	for _, name := range []string{"general", "stem", "language", "humanities"} {
		s, err := LoadStyle(name)
		if err != nil {
			t.Errorf("LoadStyle(%q): %v", name, err)
			continue
		}
		if s.SystemPromptAddendum == "" {
			t.Errorf("LoadStyle(%q): empty addendum", name)
		}
	}
	if _, err := LoadStyle("nope"); err == nil {
		t.Error("expected error for unknown style")
	}
}

func TestStripMarkdownFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", "^question: Q01", "^question: Q01"},
		{"backtick fences", "```\n^question: Q01\n```", "^question: Q01"},
		{"language tag", "```markdown\n^question: Q01\n```", "^question: Q01"},
		{"tilde fences", "~~~\n^question: Q01\n~~~", "^question: Q01"},
		{"truncated", "```\n^question: Q01", "^question: Q01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripMarkdownFences(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTemplate(t *testing.T) {
	cases := []struct {
		qtype    string
		sections []string
	}{
		{"multiple_choice", []string{"^begin question_text", "^begin options", "^begin feedback"}},
		{"mcq", []string{"^begin options", "- [x]"}},
		{"fill_in_the_blank", []string{"^begin blanks"}},
		{"matching", []string{"^begin pairs", "=>"}},
		{"numerical", []string{"^begin answer"}},
		{"essay", []string{"^begin question_text", "^begin feedback"}},
	}
	for _, tc := range cases {
		t.Run(tc.qtype, func(t *testing.T) {
			got, err := Template(tc.qtype)
			if err != nil {
				t.Fatalf("Template(%q): %v", tc.qtype, err)
			}
			for _, want := range tc.sections {
				if !strings.Contains(got, want) {
					t.Errorf("Template(%q) missing %q:\n%s", tc.qtype, want, got)
				}
			}
			if !strings.HasPrefix(got, "^question: Q01\n") {
				t.Errorf("Template(%q) missing metadata header", tc.qtype)
			}
		})
	}

	if _, err := Template("interpretive_dance"); err == nil {
		t.Error("expected error for unknown question type")
	}
}

func TestTemplate_ParsesAsCurrentFormat(t *testing.T) {
	got, err := Template("multiple_choice")
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if lvl := format.Detect(got); lvl != schema.FormatValidCurrent {
		t.Errorf("template detects as %s, want %s", lvl, schema.FormatValidCurrent)
	}
	doc, err := quizmd.Parse(got)
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if len(doc.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(doc.Questions))
	}
	if doc.Questions[0].Type != "multiple_choice" {
		t.Errorf("question type = %q", doc.Questions[0].Type)
	}
}
