package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dshills/quizforge/internal/schema"
)

func sampleOutcome() *schema.Outcome {
	return &schema.Outcome{
		Path:  "unit3/quiz.md",
		Level: schema.FormatValidCurrent,
		State: schema.StateAwaitingHuman,
		Decision: &schema.RouteDecision{
			Mechanical: []schema.CategorizedError{
				{
					ValidationError: schema.ValidationError{
						QuestionID: "Q02",
						Field:      "points",
						Message:    `point value "2.0" should be the integer 2`,
						Kind:       "float-vs-int",
						Value:      "2.0",
					},
					Category:    schema.CategoryMechanical,
					AutoFixable: true,
					FixHint:     "2",
				},
			},
			Structural: []schema.CategorizedError{
				{
					ValidationError: schema.ValidationError{
						QuestionID: "Q05",
						Field:      "options",
						Message:    "choice question has no options section",
						Kind:       "missing-section",
					},
					Category: schema.CategoryStructural,
				},
			},
			Target: schema.TargetHumanStructural,
			Reason: "1 structural error requires human review",
		},
		Offenders: []string{"Q02", "Q05"},
	}
}

func TestRenderJSON_RoundTrip(t *testing.T) {
	out := sampleOutcome()

	b, err := RenderJSON(out)
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	var back schema.Outcome
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal rendered JSON: %v", err)
	}
	if back.Path != out.Path || back.State != out.State {
		t.Errorf("round trip changed outcome: %+v", back)
	}
	if back.Decision == nil || len(back.Decision.Mechanical) != 1 {
		t.Errorf("round trip lost decision: %+v", back.Decision)
	}
	if back.Decision.Mechanical[0].FixHint != "2" {
		t.Errorf("round trip lost fix hint")
	}
}

func TestRenderJSON_Nil(t *testing.T) {
	if _, err := RenderJSON(nil); err == nil {
		t.Fatal("expected error for nil outcome")
	}
}

func TestRenderMarkdown(t *testing.T) {
	got := RenderMarkdown(sampleOutcome())

	for _, want := range []string{
		"## QuizForge Report",
		"**Document:** unit3/quiz.md",
		"**State:** AWAITING_HUMAN",
		"**Routing:** HUMAN_STRUCTURAL",
		"### Mechanical Errors",
		"### Structural Errors",
		"| Q02 | points |",
		"| Q05 | options |",
		"`Q02`, `Q05`",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown missing %q:\n%s", want, got)
		}
	}

	// Empty buckets get no section.
	if strings.Contains(got, "### Pedagogical Errors") {
		t.Error("unexpected pedagogical section for empty bucket")
	}
}

func TestRenderMarkdown_Done(t *testing.T) {
	out := &schema.Outcome{
		Path:        "quiz.md",
		Level:       schema.FormatValidCurrent,
		State:       schema.StateDone,
		Decision:    &schema.RouteDecision{Target: schema.TargetReadyForExport, Reason: "no errors"},
		PackagePath: "dist/quiz.zip",
	}
	got := RenderMarkdown(out)
	if !strings.Contains(got, "**Package:** `dist/quiz.zip`") {
		t.Errorf("markdown missing package path:\n%s", got)
	}
	if !strings.Contains(got, "**Routing:** READY_FOR_EXPORT") {
		t.Errorf("markdown missing routing:\n%s", got)
	}
}

func TestRenderMarkdown_Nil(t *testing.T) {
	if got := RenderMarkdown(nil); got != "" {
		t.Errorf("expected empty string for nil outcome, got %q", got)
	}
}

func TestMDEscape(t *testing.T) {
	got := mdEscape("a|b\nc\r")
	if got != "a\\|b c" {
		t.Errorf("mdEscape = %q", got)
	}
}
