package validate

import (
	"testing"

	"github.com/dshills/quizforge/internal/schema"
)

func mcq() schema.Question {
	return schema.Question{
		ID:     "Q01",
		Type:   "multiple_choice",
		Points: 2, PointsRaw: "2",
		Text: "Which organelle produces ATP?",
		Options: []schema.Option{
			{Text: "Mitochondrion", Correct: true},
			{Text: "Ribosome"},
		},
		Feedback: "ATP synthesis happens in mitochondria.",
	}
}

func findKind(errs []schema.ValidationError, kind string) *schema.ValidationError {
	for i := range errs {
		if errs[i].Kind == kind {
			return &errs[i]
		}
	}
	return nil
}

func TestValidate_CleanDocument(t *testing.T) {
	doc := &schema.Document{Questions: []schema.Question{mcq()}}
	if errs := Validate(doc); len(errs) != 0 {
		t.Errorf("clean document produced errors: %+v", errs)
	}
}

func TestValidate_EmptyDocument(t *testing.T) {
	errs := Validate(&schema.Document{})
	if len(errs) != 1 || errs[0].Kind != "empty-document" {
		t.Errorf("errors = %+v, want single empty-document", errs)
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	doc := &schema.Document{Questions: []schema.Question{mcq(), mcq()}}
	if e := findKind(Validate(doc), "duplicate-id"); e == nil {
		t.Error("duplicate question IDs not reported")
	}
}

func TestValidate_FloatVsInt(t *testing.T) {
	q := mcq()
	q.Points = 2
	q.PointsRaw = "2.0"
	errs := Validate(&schema.Document{Questions: []schema.Question{q}})
	e := findKind(errs, "float-vs-int")
	if e == nil {
		t.Fatalf("float-vs-int not reported: %+v", errs)
	}
	if e.Field != "points" || e.Value != "2.0" {
		t.Errorf("error = %+v", e)
	}
}

func TestValidate_NonIntegralPointsAccepted(t *testing.T) {
	q := mcq()
	q.Points = 2.5
	q.PointsRaw = "2.5"
	if e := findKind(Validate(&schema.Document{Questions: []schema.Question{q}}), "float-vs-int"); e != nil {
		t.Errorf("genuinely fractional points flagged as float-vs-int: %+v", e)
	}
}

func TestValidate_InvalidPoints(t *testing.T) {
	for _, raw := range []string{"two", "-1", "0"} {
		q := mcq()
		q.PointsRaw = raw
		if e := findKind(Validate(&schema.Document{Questions: []schema.Question{q}}), "invalid-points"); e == nil {
			t.Errorf("points %q not reported as invalid", raw)
		}
	}
}

func TestValidate_TypeTypo(t *testing.T) {
	q := mcq()
	q.Type = "multiple_choise"
	errs := Validate(&schema.Document{Questions: []schema.Question{q}})
	e := findKind(errs, "type-typo")
	if e == nil {
		t.Fatalf("type-typo not reported: %+v", errs)
	}
	if e.Value != "multiple_choise" {
		t.Errorf("typo value = %q", e.Value)
	}
	// Per-type checks still ran against the intended type: the option list is
	// fine, so no option errors appear.
	if findKind(errs, "missing-section") != nil {
		t.Errorf("typo question produced spurious section errors: %+v", errs)
	}
}

func TestValidate_UnknownType(t *testing.T) {
	q := mcq()
	q.Type = "riddle"
	q.Options = nil
	errs := Validate(&schema.Document{Questions: []schema.Question{q}})
	if e := findKind(errs, "unknown-type"); e == nil || e.Value != "riddle" {
		t.Errorf("unknown-type not reported: %+v", errs)
	}
}

func TestValidate_MissingSections(t *testing.T) {
	q := schema.Question{ID: "Q01", Type: "multiple_choice", Feedback: "f"}
	errs := Validate(&schema.Document{Questions: []schema.Question{q}})
	fields := map[string]bool{}
	for _, e := range errs {
		if e.Kind == "missing-section" {
			fields[e.Field] = true
		}
	}
	if !fields["question_text"] || !fields["options"] {
		t.Errorf("missing sections not reported: %+v", errs)
	}
	// The question type travels in Value so the router can look up a skeleton.
	if e := findKind(errs, "missing-section"); e.Value != "multiple_choice" {
		t.Errorf("missing-section value = %q, want question type", e.Value)
	}
}

func TestValidate_CorrectCount(t *testing.T) {
	q := mcq()
	q.Options[1].Correct = true // two correct answers on a single-answer type
	errs := Validate(&schema.Document{Questions: []schema.Question{q}})
	if findKind(errs, "correct-count") == nil {
		t.Errorf("correct-count not reported: %+v", errs)
	}
}

func TestValidate_MissingFeedbackIsPedagogicalKind(t *testing.T) {
	q := mcq()
	q.Feedback = ""
	errs := Validate(&schema.Document{Questions: []schema.Question{q}})
	e := findKind(errs, "missing-feedback")
	if e == nil {
		t.Fatalf("missing-feedback not reported: %+v", errs)
	}
	if e.Field != "feedback" {
		t.Errorf("field = %q, want feedback", e.Field)
	}
}

func TestValidate_Matching(t *testing.T) {
	q := schema.Question{
		ID: "Q01", Type: "matching", Text: "Match terms.",
		Points: 2, PointsRaw: "2",
		Pairs: []schema.Pair{
			{Left: "A", Right: "1"},
			{Left: "B", Right: "2"},
		},
		Feedback: "f",
	}
	if errs := Validate(&schema.Document{Questions: []schema.Question{q}}); len(errs) != 0 {
		t.Errorf("valid matching question produced errors: %+v", errs)
	}

	q.Points = 5
	q.PointsRaw = "5"
	errs := Validate(&schema.Document{Questions: []schema.Question{q}})
	e := findKind(errs, "points-mismatch")
	if e == nil {
		t.Fatalf("points-mismatch not reported: %+v", errs)
	}
	if e.Value != "2" {
		t.Errorf("mismatch value = %q, want countable size %q", e.Value, "2")
	}
}

func TestValidate_TrueFalse(t *testing.T) {
	base := schema.Question{ID: "Q01", Type: "true_false", Text: "The sky is green.", Feedback: "f"}

	q := base
	q.Answer = "false"
	if errs := Validate(&schema.Document{Questions: []schema.Question{q}}); len(errs) != 0 {
		t.Errorf("valid true/false produced errors: %+v", errs)
	}

	q = base
	q.Answer = "maybe"
	if findKind(Validate(&schema.Document{Questions: []schema.Question{q}}), "invalid-answer") == nil {
		t.Error("invalid true/false answer not reported")
	}

	q = base
	if findKind(Validate(&schema.Document{Questions: []schema.Question{q}}), "missing-section") == nil {
		t.Error("true/false without answer or options not reported")
	}
}

func TestValidate_Numerical(t *testing.T) {
	q := schema.Question{ID: "Q01", Type: "numerical", Text: "6 x 7?", Answer: "42", Feedback: "f"}
	if errs := Validate(&schema.Document{Questions: []schema.Question{q}}); len(errs) != 0 {
		t.Errorf("valid numerical produced errors: %+v", errs)
	}
	q.Answer = "forty-two"
	if findKind(Validate(&schema.Document{Questions: []schema.Question{q}}), "invalid-answer") == nil {
		t.Error("non-numeric numerical answer not reported")
	}
}
