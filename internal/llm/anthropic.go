package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/contextbuilder"
	"github.com/PabloGalante/meeting-engine/internal/domain"
)

// AnthropicClient adapts github.com/anthropics/anthropic-sdk-go to Client.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient constructs an AnthropicClient from an Agent's
// ModelConfig.
func NewAnthropicClient(cfg domain.ModelConfig) (*AnthropicClient, error) {
	if cfg.Credential == "" {
		return nil, apperr.New(apperr.KindAuthFailed, "anthropic credential is required")
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(cfg.Credential)),
		model:  cfg.ModelName,
	}, nil
}

func (c *AnthropicClient) Name() domain.Provider { return domain.ProviderAnthropic }

func toAnthropicMessages(systemPrompt string, conversation []contextbuilder.Entry) (string, []anthropic.MessageParam) {
	sys := systemPrompt
	var messages []anthropic.MessageParam
	for _, e := range conversation {
		if e.Role == contextbuilder.RoleSystem {
			if sys != "" {
				sys += "\n\n"
			}
			sys += e.Content
			continue
		}
		role := anthropic.MessageParamRoleUser
		if e.Role == contextbuilder.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		messages = append(messages, anthropic.MessageParam{
			Role: anthropic.F(role),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				anthropic.TextBlockParam{
					Type: anthropic.F(anthropic.TextBlockParamTypeText),
					Text: anthropic.F(e.Content),
				},
			}),
		})
	}
	return sys, messages
}

func maxTokensOrDefault(params domain.ModelParameters) int64 {
	if params.MaxTokens != nil && *params.MaxTokens > 0 {
		return int64(*params.MaxTokens)
	}
	return 4096
}

func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (Result, error) {
	sys, messages := toAnthropicMessages(systemPrompt, conversation)

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.F(maxTokensOrDefault(params)),
		System:    anthropic.F(sys),
		Messages:  anthropic.F(messages),
	})
	if err != nil {
		return Result{}, classifyAnthropicError(err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}
	return Result{Content: content}, nil
}

func (c *AnthropicClient) Stream(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (<-chan Delta, error) {
	sys, messages := toAnthropicMessages(systemPrompt, conversation)
	out := make(chan Delta)

	stream := c.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.F(maxTokensOrDefault(params)),
		System:    anthropic.F(sys),
		Messages:  anthropic.F(messages),
	})

	go func() {
		defer close(out)
		for stream.Next() {
			event := stream.Current()
			switch event.Type {
			case anthropic.MessageStreamEventTypeContentBlockDelta:
				if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
					if !sendDelta(ctx, out, Delta{Kind: DeltaContent, Text: event.Delta.Text}) {
						return
					}
				}
				if event.Delta.Type == "thinking_delta" && event.Delta.Thinking != "" {
					if !sendDelta(ctx, out, Delta{Kind: DeltaReasoning, Text: event.Delta.Thinking}) {
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			sendDelta(ctx, out, Delta{Kind: DeltaError, Err: classifyAnthropicError(err)})
			return
		}
		sendDelta(ctx, out, Delta{Kind: DeltaComplete})
	}()

	return out, nil
}

func (c *AnthropicClient) TestConnection(ctx context.Context) error {
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(c.model),
		MaxTokens: anthropic.F(int64(1)),
		Messages: anthropic.F([]anthropic.MessageParam{{
			Role: anthropic.F(anthropic.MessageParamRoleUser),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				anthropic.TextBlockParam{Type: anthropic.F(anthropic.TextBlockParamTypeText), Text: anthropic.F("ping")},
			}),
		}}),
	})
	if err != nil {
		return classifyAnthropicError(err)
	}
	return nil
}

// sendDelta sends d on out unless ctx is done first, in which case it
// returns false so the caller stops producing (§5 cancellation semantics).
func sendDelta(ctx context.Context, out chan<- Delta, d Delta) bool {
	select {
	case out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if ok := asAnthropicError(err, &apiErr); ok {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return apperr.Wrap(apperr.KindAuthFailed, err, apiErr.Message)
		case apiErr.StatusCode == 429:
			return apperr.Wrap(apperr.KindRateLimited, err, apiErr.Message)
		case apiErr.StatusCode >= 500:
			return &apperr.Error{Kind: apperr.KindProviderError, Status: apiErr.StatusCode, Message: apiErr.Message, Wrapped: err}
		default:
			return &apperr.Error{Kind: apperr.KindProviderError, Status: apiErr.StatusCode, Message: apiErr.Message, Wrapped: err}
		}
	}
	return apperr.Wrap(apperr.KindNetwork, err, "anthropic request failed")
}

func asAnthropicError(err error, target **anthropic.Error) bool {
	ae, ok := err.(*anthropic.Error)
	if !ok {
		return false
	}
	*target = ae
	return true
}
