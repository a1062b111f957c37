package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/accounts/pkg/slogx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/aussiebroadwan/accounts/internal/accounts/service")

// Step is one action of a saga. Undo reverses a completed Do and may be nil
// when there is nothing to reverse.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// OrphanError is a completed step whose Undo failed, leaving its effect in
// place.
type OrphanError struct {
	Step string
	Err  error
}

func (e *OrphanError) Error() string {
	return fmt.Sprintf("undo %s: %v", e.Step, e.Err)
}

func (e *OrphanError) Unwrap() error { return e.Err }

// SagaError reports the step that failed and every compensation that failed
// after it.
type SagaError struct {
	Saga    string
	Step    string
	Err     error
	Orphans []OrphanError
}

func (e *SagaError) Error() string {
	msg := fmt.Sprintf("saga %s: step %s: %v", e.Saga, e.Step, e.Err)
	if len(e.Orphans) == 0 {
		return msg
	}
	parts := make([]string, len(e.Orphans))
	for i := range e.Orphans {
		parts[i] = e.Orphans[i].Error()
	}
	return msg + " (" + strings.Join(parts, "; ") + ")"
}

func (e *SagaError) Unwrap() error { return e.Err }

// Compensated reports whether every completed step was undone.
func (e *SagaError) Compensated() bool { return len(e.Orphans) == 0 }

// RunSaga runs steps in order. When a step fails, the Undo of every step
// that already completed runs in reverse order and a *SagaError is returned.
// Compensation ignores cancellation of ctx so an abandoned request still
// cleans up after itself.
func RunSaga(ctx context.Context, name string, steps []Step) error {
	ctx, span := tracer.Start(ctx, "saga."+name)
	defer span.End()

	for i, step := range steps {
		err := runStep(ctx, name, step)
		if err == nil {
			continue
		}

		sagaErr := &SagaError{Saga: name, Step: step.Name, Err: err}
		sagaErr.Orphans = compensate(context.WithoutCancel(ctx), name, steps[:i])

		span.RecordError(sagaErr)
		span.SetStatus(codes.Error, "saga failed")
		span.SetAttributes(attribute.Bool("saga.compensated", sagaErr.Compensated()))
		return sagaErr
	}
	return nil
}

func runStep(ctx context.Context, saga string, step Step) error {
	ctx, span := tracer.Start(ctx, saga+"."+step.Name)
	defer span.End()

	if err := step.Do(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "step failed")
		return err
	}
	return nil
}

func compensate(ctx context.Context, saga string, done []Step) []OrphanError {
	log := slogx.FromContext(ctx)

	var orphans []OrphanError
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Undo == nil {
			continue
		}

		ctx, span := tracer.Start(ctx, saga+"."+step.Name+".undo")
		err := step.Undo(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "undo failed")
			log.ErrorContext(ctx, "saga compensation failed",
				slog.String("saga", saga),
				slog.String("step", step.Name),
				slog.Any("error", err),
			)
			orphans = append(orphans, OrphanError{Step: step.Name, Err: err})
		}
		span.End()
	}
	return orphans
}
