package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFatalAPIError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("connection reset"), false},
		{"credit balance", errors.New("insufficient credit balance"), true},
		{"rate limit", errors.New("rate limit exceeded"), true},
		{"quota exceeded", errors.New("quota exceeded for model"), true},
		{"invalid api key", errors.New("invalid api key"), true},
		{"403 status", errors.New("HTTP 403: forbidden"), true},
		{"wrapped error", fmt.Errorf("summarize: %w", errors.New("credit balance too low")), true},
		{"404 not fatal", errors.New("HTTP 404: not found"), false},
		{"timeout not fatal", errors.New("context deadline exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, isFatalAPIError(tt.err))
		})
	}
}

func TestWrapFatalError(t *testing.T) {
	assert.ErrorIs(t, wrapFatalError(errors.New("invalid api key provided")), ErrFatalAPI)

	transient := errors.New("network timeout")
	assert.Same(t, transient, wrapFatalError(transient))

	assert.NoError(t, wrapFatalError(nil))
}

func TestTokenUsage(t *testing.T) {
	in, out := tokenUsage(map[string]any{"InputTokens": 12, "OutputTokens": 7})
	assert.Equal(t, int64(12), in)
	assert.Equal(t, int64(7), out)

	in, out = tokenUsage(map[string]any{"PromptTokens": float64(3), "CompletionTokens": int64(4)})
	assert.Equal(t, int64(3), in)
	assert.Equal(t, int64(4), out)

	in, out = tokenUsage(nil)
	assert.Zero(t, in)
	assert.Zero(t, out)
}
