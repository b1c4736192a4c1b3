// Package ai defines the model client abstraction and its Gemini
// implementation.
package ai

import (
	"context"
	"errors"

	"github.com/ashureev/codepal/internal/domain"
)

// ErrNotConfigured indicates that no usable API key is available. Callers
// should direct the user to /setup.
var ErrNotConfigured = errors.New("no valid API key found")

// Turn is one prior exchange entry replayed as conversation context.
type Turn struct {
	Role    string
	Content string
}

// GenerateRequest carries one prompt to the model.
type GenerateRequest struct {
	// System is an optional instruction prepended out-of-band. Empty for
	// plain chat.
	System string
	// Prompt is the user text for this turn.
	Prompt string
	// History holds prior turns in conversation order.
	History []Turn
}

// Reply is a successful model response.
type Reply struct {
	Text  string
	Model string
	Usage domain.Usage
}

// Client generates model replies.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (*Reply, error)
	// Refresh drops any cached client state so the next call re-reads the
	// stored configuration. Called after /setup and /models.
	Refresh()
}
