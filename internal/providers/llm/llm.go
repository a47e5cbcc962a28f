package llm

import (
	"context"

	"github.com/yoockh/intervue/internal/models"
)

// Completer is the single capability the interview core needs from a model:
// send an ordered chat and get text back. Implementations may fail; callers
// decide how to degrade.
type Completer interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
}

// Provider is a Completer backed by a concrete model endpoint.
type Provider interface {
	Completer
	Name() string
	Close() error
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, messages []models.Message) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, messages []models.Message) (string, error) {
	return f(ctx, messages)
}
