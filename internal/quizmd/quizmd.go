// Package quizmd provides line-level primitives for the quizforge markdown
// conventions and the parser that turns a normalized document into
// schema.Document values.
//
// Two field-tagging conventions exist: the current caret convention
// ("^type: multiple_choice", "^begin options" ... "^end options") and the
// deprecated at-sign convention using the same keys ("@type:", "@begin").
package quizmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/quizforge/internal/schema"
)

// MetaKeys is the vocabulary of recognized metadata keys, in canonical order.
var MetaKeys = []string{
	"question", "type", "id", "title", "points", "bloom", "difficulty", "tags",
}

// Section names that may appear in ^begin / ^end markers.
const (
	SectionQuestionText = "question_text"
	SectionOptions      = "options"
	SectionBlanks       = "blanks"
	SectionPairs        = "pairs"
	SectionAnswer       = "answer"
	SectionFeedback     = "feedback"
)

// metaLine matches "<sigil>key: value" for a known key. Keys are matched
// case-insensitively; the returned key is lowercased.
func metaLine(line, sigil string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, sigil) {
		return "", "", false
	}
	rest := trimmed[len(sigil):]
	colon := strings.Index(rest, ":")
	if colon <= 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(rest[:colon]))
	for _, k := range MetaKeys {
		if key == k {
			return key, strings.TrimSpace(rest[colon+1:]), true
		}
	}
	return "", "", false
}

// MetaLine recognizes a current-convention metadata line ("^key: value").
func MetaLine(line string) (key, value string, ok bool) {
	return metaLine(line, "^")
}

// LegacyMetaLine recognizes a deprecated metadata line ("@key: value").
func LegacyMetaLine(line string) (key, value string, ok bool) {
	return metaLine(line, "@")
}

func fieldMarker(line, prefix string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, prefix) {
		return "", false
	}
	field := strings.ToLower(strings.TrimSpace(trimmed[len(prefix):]))
	if field == "" || strings.ContainsAny(field, " \t") {
		return "", false
	}
	return field, true
}

// FieldStart recognizes "^begin <field>".
func FieldStart(line string) (string, bool) { return fieldMarker(line, "^begin ") }

// FieldEnd recognizes "^end <field>".
func FieldEnd(line string) (string, bool) { return fieldMarker(line, "^end ") }

// LegacyFieldStart recognizes "@begin <field>".
func LegacyFieldStart(line string) (string, bool) { return fieldMarker(line, "@begin ") }

// LegacyFieldEnd recognizes "@end <field>".
func LegacyFieldEnd(line string) (string, bool) { return fieldMarker(line, "@end ") }

// IsHeading returns true for ATX Markdown headings (# through ######).
// A space immediately after the hashes is required. Lines with 4 or more
// leading spaces are indented code blocks, not headings.
func IsHeading(line string) bool {
	_, _, ok := Heading(line)
	return ok
}

// Heading splits an ATX heading into its level and text.
func Heading(line string) (level int, text string, ok bool) {
	leading := 0
	for leading < len(line) && line[leading] == ' ' {
		leading++
	}
	if leading >= 4 {
		return 0, "", false
	}
	t := strings.TrimSpace(line)
	hashes := strings.IndexFunc(t, func(r rune) bool { return r != '#' })
	if hashes <= 0 || hashes > 6 || len(t) <= hashes || t[hashes] != ' ' {
		return 0, "", false
	}
	return hashes, strings.TrimSpace(t[hashes:]), true
}

// BoldLabel splits a "**Label:** value" or "**Label**: value" line.
// The returned label is trimmed but not lowercased.
func BoldLabel(line string) (label, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "**") {
		return "", "", false
	}
	rest := trimmed[2:]
	close := strings.Index(rest, "**")
	if close <= 0 {
		return "", "", false
	}
	label = strings.TrimSpace(rest[:close])
	value = strings.TrimSpace(rest[close+2:])
	// The colon may sit inside the bold span ("**Type:**") or after it
	// ("**Type**:"). Either way exactly one trailing colon belongs to the label.
	if strings.HasSuffix(label, ":") {
		label = strings.TrimSpace(strings.TrimSuffix(label, ":"))
	} else if strings.HasPrefix(value, ":") {
		value = strings.TrimSpace(value[1:])
	} else {
		return "", "", false
	}
	if label == "" {
		return "", "", false
	}
	return label, value, true
}

// HasBoldLabel reports whether line carries the given bold label,
// case-insensitively.
func HasBoldLabel(line, label string) bool {
	got, _, ok := BoldLabel(line)
	return ok && strings.EqualFold(got, label)
}

// IsBullet returns true for lines starting with "- ", "* ", or "• " (after trim).
func IsBullet(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "- ") ||
		strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ")
}

// StripBullet removes a leading "- ", "* ", or "• " bullet marker.
// Returns the trimmed text unchanged if no marker is found.
func StripBullet(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, pfx := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(trimmed, pfx) {
			return strings.TrimSpace(trimmed[len(pfx):])
		}
	}
	return trimmed
}

// ParseFile reads and parses the normalized document at path.
func ParseFile(path string) (*schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("quizmd: open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := ParseReader(f)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Parse parses a normalized (caret-convention) document held in memory.
func Parse(content string) (*schema.Document, error) {
	return ParseReader(strings.NewReader(content))
}

// ParseReader parses a normalized document from r. Parsing is permissive:
// missing or malformed field values are recorded as-is for the validator to
// flag; only unterminated ^begin blocks are a parse error.
func ParseReader(r io.Reader) (*schema.Document, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	// Allow long lines (e.g. embedded data URIs in question text).
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("quizmd: scan: %w", err)
	}

	doc := &schema.Document{}
	var cur *schema.Question

	flush := func(endLine int) {
		if cur == nil {
			return
		}
		cur.LineEnd = endLine
		doc.Questions = append(doc.Questions, *cur)
		cur = nil
	}

	i := 0
	for i < len(lines) {
		line := lines[i]
		lineNum := i + 1 // 1-indexed

		if key, value, ok := MetaLine(line); ok {
			switch key {
			case "question":
				flush(lineNum - 1)
				cur = &schema.Question{ID: value, LineStart: lineNum, Points: 1}
			case "title":
				if cur == nil {
					doc.Title = value
				}
			case "type":
				if cur != nil {
					cur.Type = value
				}
			case "id":
				if cur != nil && cur.ID == "" {
					cur.ID = value
				}
			case "points":
				if cur != nil {
					cur.PointsRaw = value
					if pts, err := strconv.ParseFloat(value, 64); err == nil {
						cur.Points = pts
					}
				}
			case "bloom", "difficulty":
				if cur != nil && value != "" {
					cur.Tags = append(cur.Tags, value)
				}
			case "tags":
				if cur != nil {
					for _, t := range strings.Split(value, ",") {
						if t = strings.TrimSpace(t); t != "" {
							cur.Tags = append(cur.Tags, t)
						}
					}
				}
			}
			i++
			continue
		}

		if field, ok := FieldStart(line); ok {
			body, end, err := collectField(lines, i+1, field)
			if err != nil {
				return nil, err
			}
			if cur != nil {
				applyField(cur, field, body)
				if end > cur.LineEnd {
					cur.LineEnd = end
				}
			}
			i = end
			continue
		}

		// A level-1 heading before the first question is the document title.
		if lvl, text, ok := Heading(line); ok && lvl == 1 && cur == nil && doc.Title == "" {
			doc.Title = text
		}
		i++
	}
	flush(len(lines))

	return doc, nil
}

// collectField gathers the lines between a ^begin marker and its matching
// ^end marker. start is the index of the first body line; the returned end is
// the index just past the ^end line.
func collectField(lines []string, start int, field string) (body []string, end int, err error) {
	for i := start; i < len(lines); i++ {
		if got, ok := FieldEnd(lines[i]); ok {
			if got != field {
				return nil, 0, fmt.Errorf("quizmd: line %d: ^end %s closes ^begin %s", i+1, got, field)
			}
			return body, i + 1, nil
		}
		body = append(body, lines[i])
	}
	return nil, 0, fmt.Errorf("quizmd: unterminated ^begin %s", field)
}

// applyField stores a collected field body on q. Unknown section names are
// ignored here; the validator reports them from the document text.
func applyField(q *schema.Question, field string, body []string) {
	switch field {
	case SectionQuestionText:
		q.Text = strings.TrimSpace(strings.Join(body, "\n"))
	case SectionAnswer:
		q.Answer = strings.TrimSpace(strings.Join(body, "\n"))
	case SectionFeedback:
		q.Feedback = strings.TrimSpace(strings.Join(body, "\n"))
	case SectionOptions:
		for _, line := range body {
			if !IsBullet(line) {
				continue
			}
			text := StripBullet(line)
			correct := false
			switch {
			case strings.HasPrefix(text, "[x]"), strings.HasPrefix(text, "[X]"):
				correct = true
				text = strings.TrimSpace(text[3:])
			case strings.HasPrefix(text, "[ ]"):
				text = strings.TrimSpace(text[3:])
			}
			q.Options = append(q.Options, schema.Option{Text: text, Correct: correct})
		}
	case SectionBlanks:
		for _, line := range body {
			if IsBullet(line) {
				q.Blanks = append(q.Blanks, StripBullet(line))
			}
		}
	case SectionPairs:
		for _, line := range body {
			if !IsBullet(line) {
				continue
			}
			text := StripBullet(line)
			if left, right, found := strings.Cut(text, "=>"); found {
				q.Pairs = append(q.Pairs, schema.Pair{
					Left:  strings.TrimSpace(left),
					Right: strings.TrimSpace(right),
				})
			}
		}
	}
}
