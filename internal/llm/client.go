// Package llm defines the model-adapter contract the core depends on (§4.2)
// and its concrete provider implementations. The core is never aware of a
// provider's wire format; it only ever sees Client.
package llm

import (
	"context"

	"github.com/PabloGalante/meeting-engine/internal/contextbuilder"
	"github.com/PabloGalante/meeting-engine/internal/domain"
)

// DeltaKind tags one element of a streaming response (§4.2, GLOSSARY).
type DeltaKind string

const (
	DeltaReasoning DeltaKind = "reasoning"
	DeltaContent   DeltaKind = "content"
	DeltaComplete  DeltaKind = "complete"
	DeltaError     DeltaKind = "error"
)

// Delta is one element of a streaming model response.
type Delta struct {
	Kind DeltaKind
	Text string
	Err  error // set only when Kind == DeltaError
}

// Result is a finished completion, blocking or the accumulation of a
// streamed one.
type Result struct {
	Content          string
	ReasoningContent string
}

// Client is the interface every provider adapter implements. Implementations
// must be safe for concurrent use by multiple participants sharing a
// provider (§5).
type Client interface {
	// Complete performs a non-streaming chat completion.
	Complete(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (Result, error)

	// Stream performs a streaming chat completion. The returned channel is
	// closed after a Delta of kind DeltaComplete or DeltaError is sent, or
	// immediately if ctx is cancelled. The caller must drain the channel
	// until it closes to let the adapter release its connection.
	Stream(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (<-chan Delta, error)

	// TestConnection probes the provider with a minimal request.
	TestConnection(ctx context.Context) error

	// Name returns the provider tag this client was constructed for.
	Name() domain.Provider
}

// NewClient constructs the adapter named by cfg.Provider.
func NewClient(cfg domain.ModelConfig) (Client, error) {
	switch cfg.Provider {
	case domain.ProviderAnthropic:
		return NewAnthropicClient(cfg)
	case domain.ProviderOpenAI:
		return NewOpenAIClient(cfg)
	case domain.ProviderGoogle:
		return NewGoogleClient(cfg)
	case domain.ProviderGLM:
		return NewGLMClient(cfg)
	default:
		return nil, &unknownProviderError{provider: cfg.Provider}
	}
}

type unknownProviderError struct{ provider domain.Provider }

func (e *unknownProviderError) Error() string {
	return "llm: unknown provider " + string(e.provider)
}
