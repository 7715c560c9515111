package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-keeper/internal/domain"
)

func TestExecute_RunsStepsInOrder(t *testing.T) {
	var steps []ExecutionStep

	op := Operation[int, int, int, string]{
		Name: "double",
		Validate: func(context.Context, int) error {
			steps = append(steps, StepValidate)
			return nil
		},
		Perform: func(_ context.Context, in int) (int, error) {
			steps = append(steps, StepPerform)
			return in * 2, nil
		},
		Verify: func(_ context.Context, _ int, performed int) (int, error) {
			steps = append(steps, StepVerify)
			return performed, nil
		},
		Archive: func(context.Context, int, int) error {
			steps = append(steps, StepArchive)
			return nil
		},
		Respond: func(_ context.Context, _ int, verified int) (string, error) {
			steps = append(steps, StepRespond)
			return "ok", nil
		},
	}

	out, err := Execute(context.Background(), NewExecutor(discardLogger()), op, 21)

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []ExecutionStep{StepValidate, StepPerform, StepVerify, StepArchive, StepRespond}, steps)
}

func TestExecute_StopsAtFailingStep(t *testing.T) {
	errCause := errors.New("cause")

	tests := []struct {
		name     string
		op       Operation[int, int, int, int]
		expected ExecutionStep
	}{
		{
			name: "validate",
			op: Operation[int, int, int, int]{
				Validate: func(context.Context, int) error { return errCause },
				Perform: func(context.Context, int) (int, error) {
					panic("perform must not run")
				},
			},
			expected: StepValidate,
		},
		{
			name: "perform",
			op: Operation[int, int, int, int]{
				Perform: func(context.Context, int) (int, error) { return 0, errCause },
			},
			expected: StepPerform,
		},
		{
			name: "verify",
			op: Operation[int, int, int, int]{
				Verify: func(context.Context, int, int) (int, error) { return 0, errCause },
				Archive: func(context.Context, int, int) error {
					panic("archive must not run")
				},
			},
			expected: StepVerify,
		},
		{
			name: "archive",
			op: Operation[int, int, int, int]{
				Archive: func(context.Context, int, int) error { return errCause },
			},
			expected: StepArchive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Execute(context.Background(), NewExecutor(nil), tt.op, 1)

			require.Error(t, err)
			require.ErrorIs(t, err, errCause)
			assert.True(t, IsExecutionError(err))

			step, ok := GetExecutionStep(err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, step)
		})
	}
}

func TestGetExecutionStep_PlainError(t *testing.T) {
	_, ok := GetExecutionStep(errors.New("plain"))

	assert.False(t, ok)
	assert.False(t, IsExecutionError(errors.New("plain")))
}

func TestExecute_FailureLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		cause    error
		expected string
	}{
		{name: "format error is a warning", cause: domain.NewFormatError("expected a JSON array"), expected: "level=WARN"},
		{name: "other errors are errors", cause: errors.New("disk full"), expected: "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exec := NewExecutor(slog.New(slog.NewTextHandler(&buf, nil)))

			op := Operation[int, int, int, int]{
				Name:    "Import",
				Perform: func(context.Context, int) (int, error) { return 0, tt.cause },
			}

			_, err := Execute(context.Background(), exec, op, 1)
			require.Error(t, err)

			assert.Contains(t, buf.String(), tt.expected)
			assert.Contains(t, buf.String(), "step=perform")
		})
	}
}
