// Package filter evaluates multi-category filter specifications against
// tagged questions: OR across the values within one category, AND across
// categories.
package filter

import (
	"github.com/dshills/quizforge/internal/schema"
)

// Filter returns the questions matching spec, preserving input order.
// A question matches iff every present category accepts it; categories absent
// from spec impose no constraint, so an empty spec matches every question.
// An empty result is a valid outcome, not an error.
func Filter(questions []schema.Question, spec schema.FilterSpec) []schema.Question {
	var out []schema.Question
	for _, q := range questions {
		if Matches(q, spec) {
			out = append(out, q)
		}
	}
	return out
}

// Matches evaluates one question against spec.
func Matches(q schema.Question, spec schema.FilterSpec) bool {
	tags := q.TagSet()
	if !tagCategoryOK(tags, spec.BloomLevels) {
		return false
	}
	if !tagCategoryOK(tags, spec.DifficultyLevels) {
		return false
	}
	if !tagCategoryOK(tags, spec.CustomTags) {
		return false
	}
	if spec.PointValues != nil {
		found := false
		for _, p := range spec.PointValues {
			if q.Points == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// tagCategoryOK tests one tag category: nil means absent (unconstrained);
// otherwise at least one accepted value must be among the question's tags.
func tagCategoryOK(tags map[string]bool, accepted []string) bool {
	if accepted == nil {
		return true
	}
	for _, v := range accepted {
		if tags[v] {
			return true
		}
	}
	return false
}
