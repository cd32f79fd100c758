// Package reqctx tags each top-level operation with an id carried in its
// context and log lines.
package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const operationKey key = 0

// Operation identifies one top-level command run
type Operation struct {
	ID        string
	Name      string
	StartTime time.Time
}

// WithOperation returns a context carrying a new Operation and a logger
// annotated with its id.
func WithOperation(ctx context.Context, name string) context.Context {
	op := &Operation{
		ID:        uuid.NewString(),
		Name:      name,
		StartTime: time.Now(),
	}
	logger := log.With().Str("op_id", op.ID).Str("op", name).Logger()
	ctx = logger.WithContext(ctx)
	return context.WithValue(ctx, operationKey, op)
}

// FromContext returns the Operation in ctx, or a placeholder
func FromContext(ctx context.Context) *Operation {
	if op, ok := ctx.Value(operationKey).(*Operation); ok {
		return op
	}
	return &Operation{
		ID:        "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the operation's logger, falling back to the global one
func Logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

// OperationError wraps an error with the operation id
type OperationError struct {
	OperationID string
	Err         error
}

// Error implements the error interface
func (e *OperationError) Error() string {
	return fmt.Sprintf("[%s] %v", e.OperationID, e.Err)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	return e.Err
}

// Wrap tags err with the operation id in ctx. A nil err stays nil.
func Wrap(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{
		OperationID: FromContext(ctx).ID,
		Err:         err,
	}
}
