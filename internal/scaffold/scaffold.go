// Package scaffold drafts a caret-convention skeleton for a raw document,
// either deterministically from section templates or via an LLM provider.
// LLM output is validated and repaired at most once.
package scaffold

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/quizforge/internal/format"
	"github.com/dshills/quizforge/internal/quizmd"
	"github.com/dshills/quizforge/internal/schema"
	"github.com/dshills/quizforge/internal/suggest"
)

// ErrInvalidScaffold is returned when both the initial and repair LLM
// responses fail to produce a document at the current format level.
var ErrInvalidScaffold = errors.New("scaffold: invalid model output after repair attempt")

// Provider is the interface for LLM backends.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)
}

// NewProvider is the factory for creating LLM providers. It is a package-level
// variable so tests can replace it with a mock without modifying the call site.
// Tests must restore the original value; use t.Cleanup to do so safely.
var NewProvider func(providerName, model string) (Provider, error) = defaultNewProvider

// Options configures a Draft call.
type Options struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
	Style       string
	Debug       bool
}

// Style modulates the scaffolding prompt for a course subject.
type Style struct {
	Name                 string
	Description          string
	SystemPromptAddendum string
}

// styles is the registry of built-in prompt styles keyed by name.
var styles = map[string]Style{
	"general": {
		Name:        "general",
		Description: "Default style; infers question types from the text without subject bias.",
		SystemPromptAddendum: "Infer the most likely question type for each fragment. When the " +
			"text gives no answer options, prefer essay or short_answer over inventing options.",
	},
	"stem": {
		Name:        "stem",
		Description: "Science and math courses; prefers numerical and multiple-choice items.",
		SystemPromptAddendum: "This is a science or mathematics course. Prefer numerical and " +
			"multiple_choice types. Preserve formulas and units exactly as written.",
	},
	"language": {
		Name:        "language",
		Description: "Language courses; prefers fill-in and matching items.",
		SystemPromptAddendum: "This is a language course. Prefer fill_in_the_blank for vocabulary " +
			"and matching for translation pairs. Keep both languages exactly as written.",
	},
	"humanities": {
		Name:        "humanities",
		Description: "Humanities courses; prefers essay and short-answer items.",
		SystemPromptAddendum: "This is a humanities course. Prefer essay and short_answer types " +
			"and keep the author's phrasing in question prompts.",
	},
}

// LoadStyle returns the named built-in prompt style.
func LoadStyle(name string) (Style, error) {
	s, ok := styles[name]
	if !ok {
		return Style{}, fmt.Errorf("scaffold: unknown style %q (available: general, stem, language, humanities)", name)
	}
	return s, nil
}

// Draft asks the configured LLM to restructure rawText into the current
// caret convention, validates the result, and performs one repair attempt if
// the draft does not parse as a current-format document.
func Draft(ctx context.Context, rawText string, opts Options) (string, error) {
	provider, err := NewProvider(opts.Provider, opts.Model)
	if err != nil {
		return "", fmt.Errorf("scaffold: create provider: %w", err)
	}
	style, err := LoadStyle(styleOrDefault(opts.Style))
	if err != nil {
		return "", err
	}

	sysPrompt := buildSystemPrompt(style)
	userPrompt := buildUserPrompt(rawText)

	if opts.Debug {
		fmt.Fprintf(os.Stderr, "=== DEBUG: system prompt ===\n%s\n", sysPrompt)
		fmt.Fprintf(os.Stderr, "=== DEBUG: user prompt ===\n%s\n", userPrompt)
	}

	raw, err := provider.Complete(ctx, sysPrompt, userPrompt, opts.MaxTokens, opts.Temperature)
	if err != nil {
		return "", fmt.Errorf("scaffold: complete: %w", err)
	}
	if draft, ok := acceptDraft(raw); ok {
		return draft, nil
	}

	// One repair attempt with the invalid draft included for context.
	raw2, err := provider.Complete(ctx, sysPrompt, buildRepairPrompt(userPrompt, raw), opts.MaxTokens, opts.Temperature)
	if err != nil {
		return "", fmt.Errorf("scaffold: repair complete: %w", err)
	}
	if draft, ok := acceptDraft(raw2); ok {
		return draft, nil
	}
	return "", ErrInvalidScaffold
}

func styleOrDefault(name string) string {
	if name == "" {
		return "general"
	}
	return name
}

// acceptDraft strips markdown fences and checks that the draft detects as a
// current-format document and parses cleanly.
func acceptDraft(raw string) (string, bool) {
	draft := stripMarkdownFences(raw)
	if format.Detect(draft) != schema.FormatValidCurrent {
		return "", false
	}
	if _, err := quizmd.Parse(draft); err != nil {
		return "", false
	}
	return draft, true
}

// fenceRe matches a fenced block (``` or ~~~) with an optional language tag
// and captures the content between the fences.
var fenceRe = regexp.MustCompile("(?s)^(?:`{3}|~{3})[^\\n]*\\n(.*?)(?:`{3}|~{3})\\s*$")

// openFenceRe matches only an opening fence line, for truncated responses.
var openFenceRe = regexp.MustCompile("^(?:`{3}|~{3})[^\\n]*\\n")

// stripMarkdownFences removes the code fences LLMs sometimes wrap around the
// whole response. A truncated response keeps its content by stripping the
// orphaned opening fence.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if loc := openFenceRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[loc[1]:])
	}
	return s
}

func buildSystemPrompt(style Style) string {
	var sb strings.Builder
	sb.WriteString("You are quizforge, a quiz document restructuring assistant.\n\n")
	sb.WriteString("Rewrite the instructor's raw notes into the structured quiz format below. " +
		"Output ONLY the structured document. No prose, no markdown fences, no explanation.\n\n")
	sb.WriteString("Never invent questions, answers, or feedback that the notes do not contain. " +
		"Leave a section empty rather than fabricating content.\n\n")
	if style.SystemPromptAddendum != "" {
		sb.WriteString(style.SystemPromptAddendum)
		sb.WriteString("\n\n")
	}
	sb.WriteString(outputFormat)
	return sb.String()
}

// outputFormat is the format fragment shown to the LLM.
const outputFormat = `Output format (one block per question):
^question: Q01
^type: multiple_choice|multiple_answer|true_false|short_answer|fill_in_the_blank|matching|numerical|essay
^points: 1
^begin question_text
The question prompt.
^end question_text
^begin options
- [x] Correct option
- [ ] Wrong option
^end options
^begin feedback
Why the correct answer is correct.
^end feedback

Use ^begin pairs with "Left => Right" bullets for matching, ^begin blanks for
fill_in_the_blank, and ^begin answer for numerical and short_answer types.
`

func buildUserPrompt(rawText string) string {
	var sb strings.Builder
	sb.WriteString("Raw quiz notes:\n\n")
	sb.WriteString(rawText)
	sb.WriteString("\n\nProduce the structured document now.")
	return sb.String()
}

func buildRepairPrompt(originalUserPrompt, previousResponse string) string {
	var sb strings.Builder
	sb.WriteString(originalUserPrompt)
	sb.WriteString("\n\nYour previous response was:\n")
	sb.WriteString(previousResponse)
	sb.WriteString("\n\nThat response did not follow the output format: every question needs " +
		"caret metadata lines and matched ^begin/^end markers. Output only the corrected document.")
	return sb.String()
}

// Template builds a deterministic skeleton for one question of the given
// type, with a placeholder prompt and the sections that type requires.
// It is the offline fallback when no LLM provider is configured.
func Template(questionType string) (string, error) {
	qtype, ok := suggest.SuggestQuestionType(questionType)
	if !ok {
		return "", fmt.Errorf("scaffold: unknown question type %q", questionType)
	}

	sections := []string{"question_text"}
	switch qtype {
	case "multiple_choice", "multiple_answer", "true_false":
		sections = append(sections, "options")
	case "fill_in_the_blank":
		sections = append(sections, "blanks")
	case "matching":
		sections = append(sections, "pairs")
	case "numerical", "short_answer":
		sections = append(sections, "answer")
	}
	sections = append(sections, "feedback")

	var sb strings.Builder
	sb.WriteString("^question: Q01\n")
	fmt.Fprintf(&sb, "^type: %s\n", qtype)
	sb.WriteString("^points: 1\n")
	for _, section := range sections {
		tmpl, err := suggest.SuggestMissingSection(qtype, section)
		if err != nil {
			return "", err
		}
		sb.WriteString(tmpl)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ── Provider dispatch ─────────────────────────────────────────────────────────

// defaultNewProvider dispatches to the appropriate provider implementation.
func defaultNewProvider(providerName, model string) (Provider, error) {
	switch strings.ToLower(providerName) {
	case "anthropic", "":
		return newAnthropicProvider(model)
	case "openai":
		return newOpenAIProvider(model)
	case "google":
		return newGoogleProvider(model)
	default:
		return nil, fmt.Errorf("scaffold: unknown provider %q", providerName)
	}
}

// ── Anthropic provider ───────────────────────────────────────────────────────

// anthropicProvider implements Provider using the Anthropic SDK.
// anthropic.Client is a value type; the SDK's NewClient returns it by value.
type anthropicProvider struct {
	client anthropic.Client
	model  string
}

func newAnthropicProvider(model string) (Provider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("scaffold: ANTHROPIC_API_KEY environment variable not set")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicProvider{client: client, model: model}, nil
}

func (p *anthropicProvider) Complete(
	ctx context.Context,
	systemPrompt, userPrompt string,
	maxTokens int,
	temperature float64,
) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: messages.new: %w", err)
	}

	var parts []string
	for _, block := range msg.Content {
		// "text" is the only content type that carries assistant text output.
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("anthropic: response contained no text content blocks")
	}
	return strings.Join(parts, ""), nil
}
