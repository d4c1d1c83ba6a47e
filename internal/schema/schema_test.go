package schema

import (
	"encoding/json"
	"testing"
)

func TestQuestionTagSet(t *testing.T) {
	q := Question{Tags: []string{"Remember", "Easy", "Bio"}}
	set := q.TagSet()
	if len(set) != 3 {
		t.Fatalf("TagSet size = %d, want 3", len(set))
	}
	for _, tag := range q.Tags {
		if !set[tag] {
			t.Errorf("TagSet missing %q", tag)
		}
	}
	if set["Apply"] {
		t.Error("TagSet contains tag that was never added")
	}
}

func TestQuestionTagSet_Empty(t *testing.T) {
	if set := (Question{}).TagSet(); len(set) != 0 {
		t.Errorf("TagSet of untagged question = %v, want empty", set)
	}
}

func TestRouteDecisionJSONShape(t *testing.T) {
	d := RouteDecision{
		Mechanical: []CategorizedError{{
			ValidationError: ValidationError{QuestionID: "Q01", Field: "points", Kind: "float-vs-int"},
			Category:        CategoryMechanical,
			AutoFixable:     true,
			FixHint:         "2",
		}},
		Target: TargetAutoFix,
		Reason: "1 mechanical error",
	}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back RouteDecision
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Target != TargetAutoFix {
		t.Errorf("target = %q, want %q", back.Target, TargetAutoFix)
	}
	if len(back.Mechanical) != 1 || !back.Mechanical[0].AutoFixable {
		t.Errorf("mechanical bucket did not survive round trip: %+v", back.Mechanical)
	}
}
