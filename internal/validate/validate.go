// Package validate checks a parsed, normalized document against the
// structural rules of the assessment format. It only reports defects; fixing
// and routing are the auto-fixer's and router's jobs.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/quizforge/internal/schema"
	"github.com/dshills/quizforge/internal/suggest"
)

// countedTypes maps the types whose point value must match a countable
// sub-structure to the accessor for that count.
var countedTypes = map[string]func(schema.Question) int{
	"matching":          func(q schema.Question) int { return len(q.Pairs) },
	"fill_in_the_blank": func(q schema.Question) int { return len(q.Blanks) },
}

// Validate returns every defect found in doc, in document order.
// An empty result means the document is ready for routing to export.
func Validate(doc *schema.Document) []schema.ValidationError {
	var errs []schema.ValidationError

	if len(doc.Questions) == 0 {
		errs = append(errs, schema.ValidationError{
			Field:   "document",
			Message: "document contains no questions",
			Kind:    "empty-document",
		})
		return errs
	}

	seen := map[string]bool{}
	for _, q := range doc.Questions {
		if q.ID != "" && seen[q.ID] {
			errs = append(errs, schema.ValidationError{
				QuestionID: q.ID,
				Field:      "question",
				Message:    fmt.Sprintf("duplicate question identifier %q", q.ID),
				Kind:       "duplicate-id",
			})
		}
		seen[q.ID] = true
		errs = append(errs, validateQuestion(q)...)
	}
	return errs
}

func validateQuestion(q schema.Question) []schema.ValidationError {
	var errs []schema.ValidationError

	addf := func(field, kind, value, format string, args ...any) {
		errs = append(errs, schema.ValidationError{
			QuestionID: q.ID,
			Field:      field,
			Message:    fmt.Sprintf(format, args...),
			Kind:       kind,
			Value:      value,
		})
	}

	if q.ID == "" {
		addf("question", "missing-field", "", "question has no identifier")
	}

	qtype := validateType(q, addf)
	validatePoints(q, addf)

	if q.Text == "" {
		addf("question_text", "missing-section", qtype, "question text section is missing")
	}

	switch qtype {
	case "multiple_choice":
		validateOptions(q, qtype, 1, addf)
	case "multiple_answer":
		validateOptions(q, qtype, -1, addf)
	case "true_false":
		validateTrueFalse(q, addf)
	case "fill_in_the_blank":
		if len(q.Blanks) == 0 {
			addf("blanks", "missing-section", qtype, "fill-in question has no blanks section")
		}
	case "matching":
		switch {
		case len(q.Pairs) == 0:
			addf("pairs", "missing-section", qtype, "matching question has no pairs section")
		case len(q.Pairs) < 2:
			addf("pairs", "too-few-pairs", "", "matching question needs at least 2 pairs, has %d", len(q.Pairs))
		}
	case "numerical":
		if q.Answer == "" {
			addf("answer", "missing-section", qtype, "numerical question has no answer section")
		} else if _, err := strconv.ParseFloat(strings.TrimSpace(q.Answer), 64); err != nil {
			addf("answer", "invalid-answer", q.Answer, "numerical answer %q is not a number", q.Answer)
		}
	case "short_answer":
		if q.Answer == "" {
			addf("answer", "missing-section", qtype, "short-answer question has no answer section")
		}
	}

	// Feedback is instructional content, not formatting; its absence routes
	// to content authoring.
	if q.Feedback == "" {
		addf("feedback", "missing-feedback", "", "question has no feedback text")
	}

	return errs
}

// validateType checks the type field and returns the canonical type to use
// for the remaining per-type checks ("" when undeterminable).
func validateType(q schema.Question, addf func(field, kind, value, format string, args ...any)) string {
	if q.Type == "" {
		addf("type", "missing-field", "", "question type is missing")
		return ""
	}
	for _, t := range suggest.CanonicalTypes {
		if q.Type == t {
			return t
		}
	}
	if fixed, ok := suggest.SuggestQuestionType(q.Type); ok {
		addf("type", "type-typo", q.Type, "unknown question type %q, did you mean %q", q.Type, fixed)
		// Per-type checks still run against the intended type so that one
		// validation pass reports everything at once.
		return fixed
	}
	addf("type", "unknown-type", q.Type, "question type %q is not recognized", q.Type)
	return ""
}

func validatePoints(q schema.Question, addf func(field, kind, value, format string, args ...any)) {
	if q.PointsRaw != "" {
		pts, err := strconv.ParseFloat(q.PointsRaw, 64)
		switch {
		case err != nil:
			addf("points", "invalid-points", q.PointsRaw, "point value %q is not numeric", q.PointsRaw)
			return
		case pts <= 0:
			addf("points", "invalid-points", q.PointsRaw, "point value must be positive, got %q", q.PointsRaw)
			return
		case strings.ContainsAny(q.PointsRaw, ".eE") && pts == float64(int64(pts)):
			addf("points", "float-vs-int", q.PointsRaw, "point value %q should be the integer %d", q.PointsRaw, int64(pts))
		}
	}

	if counter, ok := countedTypes[q.Type]; ok && q.PointsRaw != "" {
		count := counter(q)
		if count > 0 && q.Points != float64(count) {
			addf("points", "points-mismatch", strconv.Itoa(count),
				"point value %v does not match the %d scored entries", q.Points, count)
		}
	}
}

// validateOptions checks a choice question's option list. wantCorrect is the
// exact number of correct options required, or -1 for "at least one".
func validateOptions(q schema.Question, qtype string, wantCorrect int, addf func(field, kind, value, format string, args ...any)) {
	if len(q.Options) == 0 {
		addf("options", "missing-section", qtype, "choice question has no options section")
		return
	}
	if len(q.Options) < 2 {
		addf("options", "too-few-options", "", "choice question needs at least 2 options, has %d", len(q.Options))
	}
	correct := 0
	for _, o := range q.Options {
		if o.Correct {
			correct++
		}
	}
	switch {
	case wantCorrect >= 0 && correct != wantCorrect:
		addf("options", "correct-count", "", "expected exactly %d correct option, found %d", wantCorrect, correct)
	case wantCorrect < 0 && correct == 0:
		addf("options", "correct-count", "", "at least one option must be marked correct")
	}
}

func validateTrueFalse(q schema.Question, addf func(field, kind, value, format string, args ...any)) {
	if len(q.Options) > 0 {
		validateOptions(q, "true_false", 1, addf)
		return
	}
	answer := strings.ToLower(strings.TrimSpace(q.Answer))
	switch answer {
	case "":
		addf("answer", "missing-section", "true_false", "true/false question has neither options nor an answer section")
	case "true", "false":
		// valid
	default:
		addf("answer", "invalid-answer", q.Answer, "true/false answer must be true or false, got %q", q.Answer)
	}
}
