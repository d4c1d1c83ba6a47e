// Package schema defines all canonical data types shared across the quizforge
// pipeline.
package schema

// FormatLevel classifies how structurally complete a quiz document is.
type FormatLevel string

const (
	FormatValidCurrent   FormatLevel = "VALID_CURRENT"
	FormatLegacySyntax   FormatLevel = "LEGACY_SYNTAX"
	FormatSemiStructured FormatLevel = "SEMI_STRUCTURED"
	FormatRaw            FormatLevel = "RAW"
	FormatUnknown        FormatLevel = "UNKNOWN"
)

// ErrorCategory classifies a validation error by who or what can resolve it:
// a tool (MECHANICAL), a human structural decision (STRUCTURAL), or new
// instructional content (PEDAGOGICAL).
type ErrorCategory string

const (
	CategoryMechanical  ErrorCategory = "MECHANICAL"
	CategoryStructural  ErrorCategory = "STRUCTURAL"
	CategoryPedagogical ErrorCategory = "PEDAGOGICAL"
)

// RouteTarget is the next stage a routed document is sent to.
type RouteTarget string

const (
	TargetAutoFix          RouteTarget = "AUTO_FIX"
	TargetHumanStructural  RouteTarget = "HUMAN_STRUCTURAL"
	TargetContentAuthoring RouteTarget = "CONTENT_AUTHORING"
	TargetReadyForExport   RouteTarget = "READY_FOR_EXPORT"
)

// DocState is a state in the per-document pipeline lifecycle.
type DocState string

const (
	StateDetected          DocState = "DETECTED"
	StateSkip              DocState = "SKIP"
	StateUpgrade           DocState = "UPGRADE"
	StateNeedsScaffolding  DocState = "NEEDS_SCAFFOLDING"
	StateNeedsReformatting DocState = "NEEDS_REFORMATTING"
	StateNeedsTriage       DocState = "NEEDS_TRIAGE"
	StateValidating        DocState = "VALIDATING"
	StateValid             DocState = "VALID"
	StateInvalid           DocState = "INVALID"
	StateRouted            DocState = "ROUTED"
	StateAutoFixing        DocState = "AUTO_FIXING"
	StateAwaitingHuman     DocState = "AWAITING_HUMAN"
	StateAwaitingContent   DocState = "AWAITING_CONTENT"
	StateGenerating        DocState = "GENERATING"
	StatePackaging         DocState = "PACKAGING"
	StateDone              DocState = "DONE"
)

// ValidationError is a single defect reported by the validator.
// Kind is a machine hint (e.g. "float-vs-int"); Value carries the offending
// raw text when a correction might be computable from it.
type ValidationError struct {
	QuestionID string `json:"question_id"`
	Field      string `json:"field"`
	Message    string `json:"message"`
	Kind       string `json:"kind,omitempty"`
	Value      string `json:"value,omitempty"`
}

// CategorizedError is a ValidationError enriched by the router.
// AutoFixable is true only when Category is MECHANICAL.
type CategorizedError struct {
	ValidationError
	Category    ErrorCategory `json:"category"`
	AutoFixable bool          `json:"auto_fixable"`
	FixHint     string        `json:"fix_hint,omitempty"`
}

// RouteDecision partitions categorized errors into three ordered buckets and
// names the next stage. Target is READY_FOR_EXPORT iff all buckets are empty.
type RouteDecision struct {
	Mechanical  []CategorizedError `json:"mechanical"`
	Structural  []CategorizedError `json:"structural"`
	Pedagogical []CategorizedError `json:"pedagogical"`
	Target      RouteTarget        `json:"target"`
	Reason      string             `json:"reason"`
}

// Option is one answer option of a choice-type question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Pair is one left/right pair of a matching question.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question is one parsed question from a normalized document.
type Question struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Points    float64  `json:"points"`
	PointsRaw string   `json:"points_raw,omitempty"` // raw metadata text, kept for mechanical checks
	Tags      []string `json:"tags,omitempty"`
	Text      string   `json:"text"`
	Options   []Option `json:"options,omitempty"`
	Blanks    []string `json:"blanks,omitempty"`
	Pairs     []Pair   `json:"pairs,omitempty"`
	Answer    string   `json:"answer,omitempty"`
	Feedback  string   `json:"feedback,omitempty"`
	LineStart int      `json:"line_start"`
	LineEnd   int      `json:"line_end"`
}

// TagSet returns the question's tags as a lookup set.
func (q Question) TagSet() map[string]bool {
	set := make(map[string]bool, len(q.Tags))
	for _, t := range q.Tags {
		set[t] = true
	}
	return set
}

// Document is a fully parsed, normalized quiz document.
type Document struct {
	Path      string     `json:"path"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// FilterSpec is a named set of optional category constraints used to select a
// question subset. A nil slice means the category is unconstrained; an empty
// non-nil slice is a present category that accepts nothing.
type FilterSpec struct {
	Name             string    `json:"name,omitempty"`
	BloomLevels      []string  `json:"bloom_levels,omitempty"`
	DifficultyLevels []string  `json:"difficulty_levels,omitempty"`
	CustomTags       []string  `json:"custom_tags,omitempty"`
	PointValues      []float64 `json:"point_values,omitempty"`
}

// ArtifactFile is one file of a generated assessment package.
type ArtifactFile struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// Artifact is the generated, not-yet-packaged assessment output.
type Artifact struct {
	Title string         `json:"title"`
	Files []ArtifactFile `json:"files"`
}

// Outcome is the terminal result of one pipeline run over one document.
type Outcome struct {
	Path        string         `json:"path"`
	Level       FormatLevel    `json:"level"`
	State       DocState       `json:"state"`
	Decision    *RouteDecision `json:"decision,omitempty"`
	Offenders   []string       `json:"offenders,omitempty"` // first offending question IDs
	PackagePath string         `json:"package_path,omitempty"`
}
