package pipeline

import (
	"context"

	"github.com/dshills/quizforge/internal/qti"
	"github.com/dshills/quizforge/internal/schema"
	"github.com/dshills/quizforge/internal/transform"
	"github.com/dshills/quizforge/internal/validate"
)

// Default collaborators wrap the in-repo implementations so a zero-value
// Runner works without wiring.

type defaultUpgrader struct{}

func (defaultUpgrader) Upgrade(content string) (string, error) {
	return transform.UpgradeLegacy(content)
}

type defaultValidator struct{}

func (defaultValidator) Validate(doc *schema.Document) []schema.ValidationError {
	return validate.Validate(doc)
}

type defaultFixer struct{}

func (defaultFixer) AutoFix(content string, mechanical []schema.CategorizedError) (string, int) {
	return transform.AutoFix(content, mechanical)
}

type defaultGenerator struct{}

func (defaultGenerator) Generate(_ context.Context, doc *schema.Document) (*schema.Artifact, error) {
	return qti.Generate(doc)
}

type defaultPackager struct{}

func (defaultPackager) Package(_ context.Context, art *schema.Artifact, destDir string) (string, error) {
	return qti.Package(art, destDir)
}

func (r *Runner) upgrader() Upgrader {
	if r.Upgrader != nil {
		return r.Upgrader
	}
	return defaultUpgrader{}
}

func (r *Runner) validator() Validator {
	if r.Validator != nil {
		return r.Validator
	}
	return defaultValidator{}
}

func (r *Runner) fixer() AutoFixer {
	if r.Fixer != nil {
		return r.Fixer
	}
	return defaultFixer{}
}

func (r *Runner) generator() Generator {
	if r.Generator != nil {
		return r.Generator
	}
	return defaultGenerator{}
}

func (r *Runner) packager() Packager {
	if r.Packager != nil {
		return r.Packager
	}
	return defaultPackager{}
}
