// Package pipeline sequences detection, upgrade, validation, routing, auto-fix,
// generation, and packaging for a single document. The lifecycle is a closed
// state machine: Next is a pure transition function over a fixed event set, and
// Runner drives it against external collaborators.
package pipeline

import (
	"context"
	"fmt"

	"github.com/dshills/quizforge/internal/format"
	"github.com/dshills/quizforge/internal/quizmd"
	"github.com/dshills/quizforge/internal/route"
	"github.com/dshills/quizforge/internal/schema"
)

// maxOffenders caps the question IDs reported on a terminal outcome.
const maxOffenders = 5

// Event is one occurrence that advances a document through its lifecycle.
// The set is closed: only types in this package satisfy it.
type Event interface {
	event()
}

// EvDetected carries the detector's classification of the raw document.
type EvDetected struct {
	Level schema.FormatLevel
}

// EvNormalized marks the document text as ready for parsing, either untouched
// (SKIP) or rewritten to the current convention (UPGRADE).
type EvNormalized struct{}

// EvValidated carries the validator's findings for the current document text.
type EvValidated struct {
	Errors []schema.ValidationError
}

// EvRouted carries the router's decision over the validator's findings.
type EvRouted struct {
	Decision schema.RouteDecision
}

// EvDispatched moves a routed document to the stage named by the decision.
type EvDispatched struct {
	Target schema.RouteTarget
}

// EvFixed marks completion of one auto-fix pass.
type EvFixed struct {
	Applied int
}

// EvEscalated marks a second mechanical-fix request in the same run.
type EvEscalated struct{}

// EvGenerated marks artifact generation complete.
type EvGenerated struct{}

// EvPackaged carries the final package path.
type EvPackaged struct {
	Path string
}

func (EvDetected) event()   {}
func (EvNormalized) event() {}
func (EvValidated) event()  {}
func (EvRouted) event()     {}
func (EvDispatched) event() {}
func (EvFixed) event()      {}
func (EvEscalated) event()  {}
func (EvGenerated) event()  {}
func (EvPackaged) event()   {}

// Next returns the state that follows state on ev. It is pure: no I/O, no
// retained state. An event that is not legal in the given state is an error.
func Next(state schema.DocState, ev Event) (schema.DocState, error) {
	switch e := ev.(type) {
	case EvDetected:
		if state != schema.StateDetected {
			return state, transitionError(state, ev)
		}
		switch e.Level {
		case schema.FormatValidCurrent:
			return schema.StateSkip, nil
		case schema.FormatLegacySyntax:
			return schema.StateUpgrade, nil
		case schema.FormatRaw:
			return schema.StateNeedsScaffolding, nil
		case schema.FormatSemiStructured:
			return schema.StateNeedsReformatting, nil
		default:
			return schema.StateNeedsTriage, nil
		}

	case EvNormalized:
		if state != schema.StateSkip && state != schema.StateUpgrade {
			return state, transitionError(state, ev)
		}
		return schema.StateValidating, nil

	case EvValidated:
		if state != schema.StateValidating {
			return state, transitionError(state, ev)
		}
		if len(e.Errors) == 0 {
			return schema.StateValid, nil
		}
		return schema.StateInvalid, nil

	case EvRouted:
		switch state {
		case schema.StateValid:
			if e.Decision.Target != schema.TargetReadyForExport {
				return state, fmt.Errorf("pipeline: valid document routed to %s", e.Decision.Target)
			}
			return schema.StateGenerating, nil
		case schema.StateInvalid:
			return schema.StateRouted, nil
		}
		return state, transitionError(state, ev)

	case EvDispatched:
		if state != schema.StateRouted {
			return state, transitionError(state, ev)
		}
		switch e.Target {
		case schema.TargetAutoFix:
			return schema.StateAutoFixing, nil
		case schema.TargetHumanStructural:
			return schema.StateAwaitingHuman, nil
		case schema.TargetContentAuthoring:
			return schema.StateAwaitingContent, nil
		}
		return state, fmt.Errorf("pipeline: invalid dispatch target %s", e.Target)

	case EvFixed:
		if state != schema.StateAutoFixing {
			return state, transitionError(state, ev)
		}
		return schema.StateValidating, nil

	case EvEscalated:
		if state != schema.StateAutoFixing {
			return state, transitionError(state, ev)
		}
		return schema.StateAwaitingHuman, nil

	case EvGenerated:
		if state != schema.StateGenerating {
			return state, transitionError(state, ev)
		}
		return schema.StatePackaging, nil

	case EvPackaged:
		if state != schema.StatePackaging {
			return state, transitionError(state, ev)
		}
		return schema.StateDone, nil
	}
	return state, transitionError(state, ev)
}

func transitionError(state schema.DocState, ev Event) error {
	return fmt.Errorf("pipeline: no transition from %s on %T", state, ev)
}

// Upgrader rewrites legacy-convention text to the current convention.
type Upgrader interface {
	Upgrade(content string) (string, error)
}

// Validator reports defects in a parsed document.
type Validator interface {
	Validate(doc *schema.Document) []schema.ValidationError
}

// AutoFixer applies mechanical fix hints to document text and reports how many
// it applied. Invoked at most once per run.
type AutoFixer interface {
	AutoFix(content string, mechanical []schema.CategorizedError) (string, int)
}

// Generator builds an assessment artifact from a valid document.
type Generator interface {
	Generate(ctx context.Context, doc *schema.Document) (*schema.Artifact, error)
}

// Packager writes the artifact under destDir and returns the package path.
type Packager interface {
	Package(ctx context.Context, art *schema.Artifact, destDir string) (string, error)
}

// Runner drives one document through the lifecycle. Zero-value collaborator
// fields fall back to the in-repo implementations; tests replace them with
// doubles.
type Runner struct {
	Upgrader  Upgrader
	Validator Validator
	Fixer     AutoFixer
	Generator Generator
	Packager  Packager

	// Rules overrides the routing ruleset. Nil means the default ruleset.
	Rules *route.Ruleset

	// OutDir is where Packager writes. Empty means the current directory.
	OutDir string
}

// Run processes one document end to end and reports its terminal state.
// Terminal-for-this-run states (NEEDS_*, AWAITING_*) are successful outcomes;
// the returned error is reserved for collaborator failures.
func (r *Runner) Run(ctx context.Context, path, content string) (*schema.Outcome, error) {
	out := &schema.Outcome{Path: path}

	level := format.Detect(content)
	out.Level = level

	state, err := Next(schema.StateDetected, EvDetected{Level: level})
	if err != nil {
		return nil, err
	}

	switch state {
	case schema.StateNeedsScaffolding, schema.StateNeedsReformatting, schema.StateNeedsTriage:
		out.State = state
		return out, nil
	case schema.StateUpgrade:
		content, err = r.upgrader().Upgrade(content)
		if err != nil {
			return nil, fmt.Errorf("pipeline: upgrade %s: %w", path, err)
		}
	}

	if state, err = Next(state, EvNormalized{}); err != nil {
		return nil, err
	}

	fixAttempted := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := quizmd.Parse(content)
		if err != nil {
			return nil, fmt.Errorf("pipeline: parse %s: %w", path, err)
		}
		doc.Path = path

		verrs := r.validator().Validate(doc)
		if state, err = Next(state, EvValidated{Errors: verrs}); err != nil {
			return nil, err
		}

		decision := r.route(verrs)
		out.Decision = &decision
		out.Offenders = offenders(verrs)

		if state == schema.StateValid {
			return r.export(ctx, state, doc, out)
		}

		if state, err = Next(state, EvRouted{Decision: decision}); err != nil {
			return nil, err
		}
		if state, err = Next(state, EvDispatched{Target: decision.Target}); err != nil {
			return nil, err
		}

		if state != schema.StateAutoFixing {
			out.State = state
			return out, nil
		}

		if fixAttempted {
			if state, err = Next(state, EvEscalated{}); err != nil {
				return nil, err
			}
			out.State = state
			return out, nil
		}

		fixed, applied := r.fixer().AutoFix(content, decision.Mechanical)
		if applied == 0 {
			// Nothing applied: re-validating would reproduce the same errors.
			if state, err = Next(state, EvEscalated{}); err != nil {
				return nil, err
			}
			out.State = state
			return out, nil
		}
		content = fixed
		fixAttempted = true
		if state, err = Next(state, EvFixed{Applied: applied}); err != nil {
			return nil, err
		}
	}
}

// export runs the Generating and Packaging stages for a valid document.
func (r *Runner) export(ctx context.Context, state schema.DocState, doc *schema.Document, out *schema.Outcome) (*schema.Outcome, error) {
	state, err := Next(state, EvRouted{Decision: *out.Decision})
	if err != nil {
		return nil, err
	}

	art, err := r.generator().Generate(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("pipeline: generate %s: %w", doc.Path, err)
	}
	if state, err = Next(state, EvGenerated{}); err != nil {
		return nil, err
	}

	destDir := r.OutDir
	if destDir == "" {
		destDir = "."
	}
	pkgPath, err := r.packager().Package(ctx, art, destDir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: package %s: %w", doc.Path, err)
	}
	if state, err = Next(state, EvPackaged{Path: pkgPath}); err != nil {
		return nil, err
	}

	out.State = state
	out.PackagePath = pkgPath
	return out, nil
}

func (r *Runner) route(errs []schema.ValidationError) schema.RouteDecision {
	if r.Rules != nil {
		return r.Rules.Route(errs)
	}
	return route.Route(errs)
}

// offenders returns the first distinct offending question IDs, in input order.
func offenders(errs []schema.ValidationError) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, e := range errs {
		if e.QuestionID == "" || seen[e.QuestionID] {
			continue
		}
		seen[e.QuestionID] = true
		ids = append(ids, e.QuestionID)
		if len(ids) == maxOffenders {
			break
		}
	}
	return ids
}
