package warm

import (
	"context"
	"log/slog"
)

// Step is one stage of warming a page.
// Steps are shared by concurrent pipeline runs and must not keep per-page state.
type Step interface {
	// Do runs the step. A returned error stops the pipeline; failures that
	// should not stop it are recorded in r instead.
	Do(ctx context.Context, r *Result) error
	Name() string
}

// Pipeline runs its steps in order on one page.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a Pipeline running steps in the given order.
func NewPipeline(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{steps: steps}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Execute runs every step on r and stops at the first error, which is also
// stored in r.Err.
func (p *Pipeline) Execute(ctx context.Context, r *Result) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			r.Err = err
			return err
		}

		if err := step.Do(ctx, r); err != nil {
			p.logger.Debug("warm step failed", "step", step.Name(), "page", r.Page, "error", err)
			r.Err = err
			return err
		}
		r.Steps = append(r.Steps, step.Name())
	}
	return nil
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
