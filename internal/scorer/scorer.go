// Package scorer talks to the remote scoring service. The session only
// depends on the Scorer capability, so mock, remote and local scorers are
// interchangeable.
package scorer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/skriba-app/skriba-api/internal/rubric"
)

// Scorer grades an essay snapshot and returns an unvalidated rubric
// candidate. Implementations must treat the text as an immutable snapshot
// and never retain it past the call.
type Scorer interface {
	Grade(ctx context.Context, text string) (rubric.Candidate, error)
}

// ErrUnknownProvider indicates the configured scorer provider is not supported.
var ErrUnknownProvider = errors.New("unknown scorer provider")

// Config selects and configures a scorer implementation.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// New constructs the scorer selected by cfg.Provider.
func New(cfg Config) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai", "":
		return NewOpenAIScorer(OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Logger:      cfg.Logger,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
