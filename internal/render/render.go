// Package render produces output from a terminal pipeline schema.Outcome.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/quizforge/internal/schema"
)

// RenderJSON produces a pretty-printed JSON representation of the outcome.
// The output round-trips through json.Unmarshal back to an equal Outcome.
func RenderJSON(out *schema.Outcome) ([]byte, error) {
	if out == nil {
		return nil, fmt.Errorf("render: nil outcome")
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// RenderMarkdown produces a Markdown summary of the outcome, suitable for
// terminal output. Every categorized error in the decision appears in the
// output so the author knows exactly what to do next.
func RenderMarkdown(out *schema.Outcome) string {
	if out == nil {
		return ""
	}
	var sb strings.Builder

	sb.WriteString("## QuizForge Report\n\n")
	fmt.Fprintf(&sb, "**Document:** %s  \n", out.Path)
	fmt.Fprintf(&sb, "**Format:** %s  \n", out.Level)
	fmt.Fprintf(&sb, "**State:** %s\n\n", out.State)

	if out.PackagePath != "" {
		fmt.Fprintf(&sb, "**Package:** `%s`\n\n", out.PackagePath)
	}

	if d := out.Decision; d != nil {
		fmt.Fprintf(&sb, "**Routing:** %s — %s  \n", d.Target, d.Reason)
		fmt.Fprintf(&sb, "**Mechanical:** %d | **Structural:** %d | **Pedagogical:** %d\n\n",
			len(d.Mechanical), len(d.Structural), len(d.Pedagogical))

		writeBucket(&sb, "Mechanical", d.Mechanical)
		writeBucket(&sb, "Structural", d.Structural)
		writeBucket(&sb, "Pedagogical", d.Pedagogical)
	}

	if len(out.Offenders) > 0 {
		sb.WriteString("**Questions needing attention:** ")
		for i, id := range out.Offenders {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "`%s`", id)
		}
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// writeBucket renders one category's error table into sb.
func writeBucket(sb *strings.Builder, title string, errs []schema.CategorizedError) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintf(sb, "### %s Errors\n\n", title)
	sb.WriteString("| Question | Field | Message | Fix |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, e := range errs {
		fix := ""
		if e.FixHint != "" {
			fix = "`" + mdEscape(e.FixHint) + "`"
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s |\n",
			e.QuestionID, e.Field, mdEscape(e.Message), fix)
	}
	sb.WriteString("\n")
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
