// Package transform rewrites documents: upgrading the deprecated at-sign
// convention to the current caret convention, and applying the router's
// mechanical fix hints. This is the single authoritative auto-fix path;
// nothing else rewrites point values or type names.
package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/quizforge/internal/format"
	"github.com/dshills/quizforge/internal/quizmd"
	"github.com/dshills/quizforge/internal/schema"
)

// ErrNotTransformable is returned when UpgradeLegacy is asked to rewrite a
// document that is not at the legacy level. Every other level needs either
// scaffolding, manual reformatting, or triage before it can be upgraded.
var ErrNotTransformable = errors.New("transform: document is not legacy syntax")

// UpgradeLegacy rewrites at-sign metadata and field markers to the caret
// convention. Lines outside the legacy conventions pass through unchanged.
func UpgradeLegacy(content string) (string, error) {
	level := format.Detect(content)
	if !format.IsTransformable(level) {
		return "", fmt.Errorf("%w (detected %s)", ErrNotTransformable, level)
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if m := rewriteMeta(line); m != "" {
			lines[i] = m
		} else if m := rewriteMarker(line); m != "" {
			lines[i] = m
		}
	}
	return strings.Join(lines, "\n"), nil
}

func rewriteMeta(line string) string {
	key, value, ok := quizmd.LegacyMetaLine(line)
	if !ok {
		return ""
	}
	if value == "" {
		return fmt.Sprintf("^%s:", key)
	}
	return fmt.Sprintf("^%s: %s", key, value)
}

func rewriteMarker(line string) string {
	if field, ok := quizmd.LegacyFieldStart(line); ok {
		return "^begin " + field
	}
	if field, ok := quizmd.LegacyFieldEnd(line); ok {
		return "^end " + field
	}
	return ""
}

// AutoFix applies the fix hints of mechanical errors to content and returns
// the rewritten document plus the number of fixes applied. Errors without a
// hint, or whose target line cannot be located, are left for the next
// validation pass to re-report.
func AutoFix(content string, mechanical []schema.CategorizedError) (string, int) {
	lines := strings.Split(content, "\n")
	applied := 0
	for _, ce := range mechanical {
		if !ce.AutoFixable || ce.FixHint == "" {
			continue
		}
		if fixMetaLine(lines, ce.QuestionID, ce.Field, ce.FixHint) {
			applied++
		}
	}
	return strings.Join(lines, "\n"), applied
}

// fixMetaLine replaces the value of the "^field:" metadata line inside the
// block belonging to questionID. Returns false when no such line exists.
func fixMetaLine(lines []string, questionID, field, replacement string) bool {
	inBlock := false
	for i, line := range lines {
		key, value, ok := quizmd.MetaLine(line)
		if !ok {
			continue
		}
		if key == "question" {
			inBlock = value == questionID
			continue
		}
		if inBlock && key == field {
			lines[i] = fmt.Sprintf("^%s: %s", field, replacement)
			return true
		}
	}
	return false
}
