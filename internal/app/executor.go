package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/platform/logging"
)

// Mutating use cases run as validate, perform, verify, archive, respond.
// The store is only persisted (archive) after the mutation was verified,
// and a failure in any step stops the remaining ones.

// ExecutionStep names a step of an Operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the step an operation failed in.
type ExecutionError struct {
	Step    ExecutionStep
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Step, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s failed: %s", e.Step, e.Message)
}

// Unwrap exposes the cause so domain error helpers see through the step.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Executor runs operations and logs each step.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger uses slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Operation bundles the step functions of one use case. Nil steps are
// skipped; a nil Verify passes the performed value through when P and V
// are the same type, otherwise the zero V is used.
type Operation[I, P, V, O any] struct {
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) (V, error)
	Archive  func(ctx context.Context, input I, verified V) error
	Respond  func(ctx context.Context, input I, verified V) (O, error)
}

type stepRun struct {
	ctx    context.Context
	logger *slog.Logger
}

func (r stepRun) fail(step ExecutionStep, message string, err error) error {
	level := slog.LevelError
	if step == StepValidate || domain.IsFormat(err) || domain.IsValidation(err) {
		level = slog.LevelWarn
	}

	r.logger.Log(r.ctx, level, "step failed", slog.String("step", string(step)), slog.Any("error", err))

	return &ExecutionError{Step: step, Message: message, Cause: err}
}

// Execute runs op against input.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var (
		zero      O
		performed P
		verified  V
		err       error
	)

	run := stepRun{
		ctx:    ctx,
		logger: logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name)),
	}
	start := time.Now()

	if op.Validate != nil {
		if err = op.Validate(ctx, input); err != nil {
			return zero, run.fail(StepValidate, "input rejected", err)
		}
	}

	if op.Perform != nil {
		if performed, err = op.Perform(ctx, input); err != nil {
			return zero, run.fail(StepPerform, "operation failed", err)
		}
	}

	if op.Verify != nil {
		if verified, err = op.Verify(ctx, input, performed); err != nil {
			return zero, run.fail(StepVerify, "result not confirmed", err)
		}
	} else if v, ok := any(performed).(V); ok {
		verified = v
	}

	if op.Archive != nil {
		if err = op.Archive(ctx, input, verified); err != nil {
			return zero, run.fail(StepArchive, "state persistence failed", err)
		}
	}

	result := zero

	if op.Respond != nil {
		if result, err = op.Respond(ctx, input, verified); err != nil {
			return zero, run.fail(StepRespond, "response failed", err)
		}
	}

	run.logger.DebugContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

// IsExecutionError reports whether err came out of Execute.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError

	return errors.As(err, &execErr)
}

// GetExecutionStep extracts the failing step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
