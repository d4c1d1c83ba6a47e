// Package route categorizes validation errors into mechanical, structural,
// and pedagogical buckets and decides where a document goes next.
//
// The categorization table is explicit data (an ordered rule list), not
// inline conditionals, so deployments can extend or override it without
// touching control flow.
package route

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/quizforge/internal/schema"
	"github.com/dshills/quizforge/internal/suggest"
)

// HintFunc computes a suggested replacement for an error, when one exists.
type HintFunc func(schema.ValidationError) (string, bool)

// Rule matches an error by machine hint kind and/or field name and assigns
// its category. Empty Kind or Field matches anything.
type Rule struct {
	Name     string
	Kind     string
	Field    string
	Category schema.ErrorCategory
	Hint     HintFunc
}

func (r Rule) matches(e schema.ValidationError) bool {
	if r.Kind != "" && r.Kind != e.Kind {
		return false
	}
	if r.Field != "" && r.Field != e.Field {
		return false
	}
	return true
}

// Ruleset is an ordered categorization table; the first matching rule wins.
// An error matching no rule defaults to STRUCTURAL, which routes to human
// review rather than silently auto-fixing or blocking on content.
type Ruleset struct {
	Rules []Rule
}

// Override redirects errors of a given kind/field to another category.
type Override struct {
	Kind     string
	Field    string
	Category schema.ErrorCategory
}

// WithOverrides returns a copy of rs with override rules prepended, so they
// take precedence over the built-in table.
func (rs Ruleset) WithOverrides(ovs []Override) Ruleset {
	if len(ovs) == 0 {
		return rs
	}
	rules := make([]Rule, 0, len(ovs)+len(rs.Rules))
	for _, ov := range ovs {
		rules = append(rules, Rule{
			Name:     "override",
			Kind:     ov.Kind,
			Field:    ov.Field,
			Category: ov.Category,
		})
	}
	rules = append(rules, rs.Rules...)
	return Ruleset{Rules: rules}
}

// normalizePoints proposes the canonical integer form of a point value
// ("2.0" → "2"). Non-integral and unparsable values get no hint.
func normalizePoints(e schema.ValidationError) (string, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(e.Value), 64)
	if err != nil {
		return "", false
	}
	if f != float64(int64(f)) {
		return "", false
	}
	return strconv.FormatInt(int64(f), 10), true
}

// DefaultRuleset returns the built-in categorization table.
func DefaultRuleset() Ruleset {
	return Ruleset{Rules: []Rule{
		{
			Name: "points-float-vs-int", Kind: "float-vs-int",
			Category: schema.CategoryMechanical,
			Hint:     normalizePoints,
		},
		{
			Name: "stray-whitespace", Kind: "whitespace",
			Category: schema.CategoryMechanical,
			Hint: func(e schema.ValidationError) (string, bool) {
				return strings.TrimSpace(e.Value), e.Value != ""
			},
		},
		{
			Name: "points-count-mismatch", Kind: "points-mismatch",
			Category: schema.CategoryMechanical,
			// The validator records the countable sub-structure's size in
			// Value; that count is the unambiguous correction.
			Hint: func(e schema.ValidationError) (string, bool) {
				return e.Value, e.Value != ""
			},
		},
		{
			// Non-numeric or non-positive point values have no safe
			// correction; a human decides.
			Name: "points-unparsable", Kind: "invalid-points",
			Category: schema.CategoryStructural,
		},
		{
			Name: "question-type-typo", Kind: "type-typo",
			Category: schema.CategoryMechanical,
			Hint: func(e schema.ValidationError) (string, bool) {
				return suggest.SuggestQuestionType(e.Value)
			},
		},
		{
			Name: "undetectable-question-type", Kind: "unknown-type",
			Category: schema.CategoryStructural,
		},
		{
			Name: "missing-section", Kind: "missing-section",
			Category: schema.CategoryStructural,
			// Value carries the question type; the skeleton helps the human
			// even though no automatic fix is attempted.
			Hint: func(e schema.ValidationError) (string, bool) {
				tmpl, err := suggest.SuggestMissingSection(e.Value, e.Field)
				return tmpl, err == nil
			},
		},
		{
			Name: "missing-metadata-field", Kind: "missing-field",
			Category: schema.CategoryStructural,
			Hint: func(e schema.ValidationError) (string, bool) {
				return suggest.SuggestInvalidMetadata(e.Field), true
			},
		},
		{
			Name: "missing-feedback", Kind: "missing-feedback",
			Category: schema.CategoryPedagogical,
		},
		{
			Name: "missing-rationale", Kind: "missing-rationale",
			Category: schema.CategoryPedagogical,
		},
		{
			Name: "feedback-field", Field: "feedback",
			Category: schema.CategoryPedagogical,
		},
		{
			Name: "points-field", Field: "points",
			Category: schema.CategoryMechanical,
			Hint:     normalizePoints,
		},
	}}
}

// categorize enriches a single error. AutoFixable holds exactly when the
// category is MECHANICAL.
func (rs Ruleset) categorize(e schema.ValidationError) schema.CategorizedError {
	cat := schema.CategoryStructural
	var hint string
	for _, r := range rs.Rules {
		if !r.matches(e) {
			continue
		}
		cat = r.Category
		if r.Hint != nil {
			if h, ok := r.Hint(e); ok {
				hint = h
			}
		}
		break
	}
	return schema.CategorizedError{
		ValidationError: e,
		Category:        cat,
		AutoFixable:     cat == schema.CategoryMechanical,
		FixHint:         hint,
	}
}

// Route categorizes errs and picks the routing target.
//
// Target precedence (highest first): PEDAGOGICAL > STRUCTURAL > MECHANICAL.
// Content gaps block everything, while mechanical issues alone can go
// straight to auto-fix. Empty input yields READY_FOR_EXPORT with empty
// buckets; that is not an error. Buckets preserve input order.
func (rs Ruleset) Route(errs []schema.ValidationError) schema.RouteDecision {
	var d schema.RouteDecision
	for _, e := range errs {
		ce := rs.categorize(e)
		switch ce.Category {
		case schema.CategoryMechanical:
			d.Mechanical = append(d.Mechanical, ce)
		case schema.CategoryPedagogical:
			d.Pedagogical = append(d.Pedagogical, ce)
		default:
			d.Structural = append(d.Structural, ce)
		}
	}

	switch {
	case len(d.Pedagogical) > 0:
		d.Target = schema.TargetContentAuthoring
		d.Reason = fmt.Sprintf("%d pedagogical %s require new instructional content",
			len(d.Pedagogical), plural(len(d.Pedagogical)))
	case len(d.Structural) > 0:
		d.Target = schema.TargetHumanStructural
		d.Reason = fmt.Sprintf("%d structural %s require a human decision",
			len(d.Structural), plural(len(d.Structural)))
	case len(d.Mechanical) > 0:
		d.Target = schema.TargetAutoFix
		d.Reason = fmt.Sprintf("%d mechanical %s can be fixed automatically",
			len(d.Mechanical), plural(len(d.Mechanical)))
	default:
		d.Target = schema.TargetReadyForExport
		d.Reason = "no validation errors"
	}
	return d
}

// Route categorizes errs using the default ruleset.
func Route(errs []schema.ValidationError) schema.RouteDecision {
	return DefaultRuleset().Route(errs)
}

func plural(n int) string {
	if n == 1 {
		return "error"
	}
	return "errors"
}
