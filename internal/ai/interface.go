package ai

import (
	"context"
)

// Generator produces free text for a prompt. It lets the fare advisor run
// against any model provider.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
