// Package suggest proposes corrections for malformed question-type names,
// missing structural sections, and invalid metadata fields. All lookups are
// pure and deterministic.
package suggest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownSection is returned when no template exists for a requested
// (question type, section) pair.
var ErrUnknownSection = errors.New("suggest: unknown section for question type")

// CanonicalTypes is the canonical question-type vocabulary. Order matters:
// fuzzy-match ties are broken by the earliest entry.
var CanonicalTypes = []string{
	"multiple_choice",
	"multiple_answer",
	"true_false",
	"short_answer",
	"fill_in_the_blank",
	"matching",
	"numerical",
	"essay",
}

// aliases maps normalized abbreviations and synonyms to canonical types.
var aliases = map[string]string{
	"mcq":       "multiple_choice",
	"ma":        "multiple_answer",
	"tf":        "true_false",
	"sa":        "short_answer",
	"fib":       "fill_in_the_blank",
	"num":       "numerical",
	"match":     "matching",
	"free_text": "essay",
}

// typos maps normalized common misspellings to canonical types.
var typos = map[string]string{
	"multiple_choise":    "multiple_choice",
	"mulitple_choice":    "multiple_choice",
	"multible_choice":    "multiple_choice",
	"single_choice":      "multiple_choice",
	"ture_false":         "true_false",
	"truefalse":          "true_false",
	"fill_in_the_blanks": "fill_in_the_blank",
	"fill_the_blank":     "fill_in_the_blank",
	"freetext":           "essay",
	"open_question":      "essay",
}

// maxNormalizedDistance is the fuzzy-match acceptance threshold: edit
// distance divided by the longer token length. 0.25 lets single-character
// edits on 8–20 character type names through while rejecting unrelated
// tokens.
const maxNormalizedDistance = 0.25

// normalizeType lowercases a type token and canonicalizes separators to
// underscores.
func normalizeType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prevUnderscore := false
	for _, r := range s {
		if r == ' ' || r == '-' || r == '/' || r == '_' {
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
			continue
		}
		prevUnderscore = false
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "_")
}

// SuggestQuestionType proposes the canonical type for input, trying exact and
// alias lookup, then the typo table, then fuzzy matching against the
// canonical vocabulary. Returns false when nothing is close enough.
func SuggestQuestionType(input string) (string, bool) {
	norm := normalizeType(input)
	if norm == "" {
		return "", false
	}

	for _, t := range CanonicalTypes {
		if norm == t {
			return t, true
		}
	}
	if t, ok := aliases[norm]; ok {
		return t, true
	}
	if t, ok := typos[norm]; ok {
		return t, true
	}

	// Fuzzy fallback. Strict less-than keeps the earliest canonical entry on
	// equal distance.
	best := ""
	bestDist := -1
	for _, t := range CanonicalTypes {
		d := levenshtein.ComputeDistance(norm, t)
		if bestDist < 0 || d < bestDist {
			best = t
			bestDist = d
		}
	}
	longer := len(norm)
	if len(best) > longer {
		longer = len(best)
	}
	if longer == 0 || float64(bestDist)/float64(longer) > maxNormalizedDistance {
		return "", false
	}
	return best, true
}

// sectionTemplates maps section name → question type → skeleton snippet.
// The "" type key is the any-type default for that section.
var sectionTemplates = map[string]map[string]string{
	"question_text": {
		"": "^begin question_text\nYour question prompt here.\n^end question_text",
	},
	"options": {
		"multiple_choice": "^begin options\n- [x] Correct option\n- [ ] Wrong option\n- [ ] Wrong option\n^end options",
		"multiple_answer": "^begin options\n- [x] Correct option\n- [x] Another correct option\n- [ ] Wrong option\n^end options",
		"true_false":      "^begin options\n- [x] True\n- [ ] False\n^end options",
	},
	"blanks": {
		"fill_in_the_blank": "^begin blanks\n- accepted answer\n- alternate spelling\n^end blanks",
	},
	"pairs": {
		"matching": "^begin pairs\n- Left term => Right definition\n- Another term => Another definition\n^end pairs",
	},
	"answer": {
		"numerical":    "^begin answer\n42\n^end answer",
		"short_answer": "^begin answer\nexpected answer\n^end answer",
	},
	"feedback": {
		"": "^begin feedback\nExplain why the correct answer is correct.\n^end feedback",
	},
}

// SuggestMissingSection returns a canonical example snippet for the named
// structural section, parameterized by question type. Fails with
// ErrUnknownSection when the (type, section) pair has no template.
func SuggestMissingSection(questionType, sectionName string) (string, error) {
	byType, ok := sectionTemplates[strings.ToLower(strings.TrimSpace(sectionName))]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", ErrUnknownSection, questionType, sectionName)
	}
	norm := normalizeType(questionType)
	if tmpl, ok := byType[norm]; ok {
		return tmpl, nil
	}
	if tmpl, ok := byType[""]; ok {
		return tmpl, nil
	}
	return "", fmt.Errorf("%w: %s/%s", ErrUnknownSection, questionType, sectionName)
}

// metadataExamples maps metadata field names to canonical syntax examples.
var metadataExamples = map[string]string{
	"question":   "^question: Q01",
	"id":         "^id: Q01",
	"title":      "^title: Biology Midterm",
	"type":       "^type: multiple_choice",
	"points":     "^points: 2",
	"bloom":      "^bloom: Remember",
	"difficulty": "^difficulty: Easy",
	"tags":       "^tags: Bio, Cells",
}

// SuggestInvalidMetadata returns the canonical syntax example for a metadata
// field. Unknown fields get the generic caret form.
func SuggestInvalidMetadata(fieldName string) string {
	field := strings.ToLower(strings.TrimSpace(fieldName))
	if ex, ok := metadataExamples[field]; ok {
		return ex
	}
	return fmt.Sprintf("^%s: value", field)
}
