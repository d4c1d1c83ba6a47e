// Package format classifies raw quiz documents into format levels.
// Classification is an ordered rule list: the first matching rule wins, so
// new levels can be added without touching unrelated predicates.
package format

import (
	"regexp"
	"strings"

	"github.com/dshills/quizforge/internal/quizmd"
	"github.com/dshills/quizforge/internal/schema"
)

// detectKeys are the metadata keys whose presence identifies a tagging
// convention. Other keys (points, tags, ...) are optional decoration and do
// not count toward detection.
var detectKeys = map[string]bool{
	"question": true,
	"type":     true,
	"id":       true,
}

// sectionHeadings is the fixed level-2 heading vocabulary of semi-structured
// documents, lowercased.
var sectionHeadings = map[string]bool{
	"question text": true,
	"options":       true,
	"answer":        true,
	"feedback":      true,
}

// rawLabels is the legacy bold-label vocabulary of the authoring locale,
// lowercased.
var rawLabels = map[string]bool{
	"frage":            true,
	"richtige antwort": true,
	"falsche antwort":  true,
}

// questionHeadingRe matches headings that carry a question-number token,
// e.g. "Question 3", "Q1", "Aufgabe 2", or a bare "2." / "2)".
var questionHeadingRe = regexp.MustCompile(`(?i)(?:\b(?:question|q|aufgabe)\s*#?\d+\b|^\d+\s*[.)])`)

// features is the single-pass line scan a Detect call rules on.
type features struct {
	caretMeta       bool // ^question / ^type / ^id
	caretFieldStart bool // ^begin <field>
	caretFieldEnd   bool // ^end <field>
	legacyMeta      bool // @question / @type / @id
	legacyField     bool // @begin <field>
	boldType        bool // **Type:** label
	sectionHeading  bool // ## Options etc.
	questionHeading bool // heading with a question-number token
	rawLabel        bool // **Frage:** etc.
}

func scan(content string) features {
	var f features
	for _, line := range strings.Split(content, "\n") {
		if key, _, ok := quizmd.MetaLine(line); ok && detectKeys[key] {
			f.caretMeta = true
		}
		if _, ok := quizmd.FieldStart(line); ok {
			f.caretFieldStart = true
		}
		if _, ok := quizmd.FieldEnd(line); ok {
			f.caretFieldEnd = true
		}
		if key, _, ok := quizmd.LegacyMetaLine(line); ok && detectKeys[key] {
			f.legacyMeta = true
		}
		if _, ok := quizmd.LegacyFieldStart(line); ok {
			f.legacyField = true
		}
		if label, _, ok := quizmd.BoldLabel(line); ok {
			lower := strings.ToLower(label)
			if lower == "type" {
				f.boldType = true
			}
			if rawLabels[lower] {
				f.rawLabel = true
			}
		}
		if level, text, ok := quizmd.Heading(line); ok {
			if level == 2 && sectionHeadings[strings.ToLower(text)] {
				f.sectionHeading = true
			}
			if questionHeadingRe.MatchString(text) {
				f.questionHeading = true
			}
		}
	}
	return f
}

// rule pairs a named predicate with the level it assigns.
type rule struct {
	name  string
	match func(features) bool
	level schema.FormatLevel
}

// rules is evaluated in order; the first match wins. Order matters: a
// document satisfying the current convention must never fall through to a
// weaker classification.
var rules = []rule{
	{
		name: "current-convention",
		match: func(f features) bool {
			return f.caretMeta && f.caretFieldStart && f.caretFieldEnd
		},
		level: schema.FormatValidCurrent,
	},
	{
		name: "legacy-convention",
		match: func(f features) bool {
			return f.legacyMeta && f.legacyField
		},
		level: schema.FormatLegacySyntax,
	},
	{
		name: "semi-structured",
		match: func(f features) bool {
			return f.boldType || f.sectionHeading || f.questionHeading
		},
		level: schema.FormatSemiStructured,
	},
	{
		name: "raw-labels",
		match: func(f features) bool {
			return f.rawLabel
		},
		level: schema.FormatRaw,
	},
}

// Detect classifies content into a format level. Pure and deterministic:
// the same content always yields the same level.
func Detect(content string) schema.FormatLevel {
	f := scan(content)
	for _, r := range rules {
		if r.match(f) {
			return r.level
		}
	}
	return schema.FormatUnknown
}

// IsTransformable reports whether the automatic upgrader may rewrite a
// document at the given level without human review. Only the deprecated
// legacy convention qualifies: Raw needs scaffolding, SemiStructured needs
// manual reformatting, Unknown needs triage.
func IsTransformable(level schema.FormatLevel) bool {
	return level == schema.FormatLegacySyntax
}
