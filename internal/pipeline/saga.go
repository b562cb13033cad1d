// Package pipeline coordinates the cross-store sync flows: the saga
// runner for multi-store writes and the relational syncers that project
// document-store state into Postgres.
package pipeline

import (
	"context"

	"github.com/studyvault/studyvault-backend/internal/platform/apierr"
	"github.com/studyvault/studyvault-backend/internal/platform/logger"
)

// Step is one stage of a multi-store write. Undo compensates a Do that
// already succeeded; it may be nil when the stage needs no rollback.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Saga runs steps in order. When a step fails, the undo hooks of every
// previously completed step run in reverse order, best-effort: an undo
// failure is logged and recorded but never masks the original error.
type Saga struct {
	steps []Step
	log   *logger.Logger
}

func NewSaga(baseLog *logger.Logger) *Saga {
	return &Saga{log: baseLog.With("component", "Saga")}
}

func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes the chain. The returned error is an apierr.Error whose
// Stage is the failing step's name; Compensated reports whether every
// undo hook ran cleanly.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			s.log.Error("saga step failed, compensating",
				"step", step.Name, "completed", i, "error", err)
			compensated := s.unwind(ctx, i-1)
			apiErr := apierr.Upstream(step.Name, err)
			if compensated {
				apiErr = apiErr.WithCompensation()
			}
			return apiErr
		}
	}
	return nil
}

func (s *Saga) unwind(ctx context.Context, from int) bool {
	clean := true
	for i := from; i >= 0; i-- {
		step := s.steps[i]
		if step.Undo == nil {
			continue
		}
		if err := step.Undo(ctx); err != nil {
			clean = false
			s.log.Error("saga undo failed", "step", step.Name, "error", err)
		}
	}
	return clean
}
