package llm

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/contextbuilder"
	"github.com/PabloGalante/meeting-engine/internal/domain"
)

// OpenAIClient adapts github.com/sashabaranov/go-openai to Client. GLMClient
// wraps the same type pointed at a different BaseURL, since GLM's
// chat-completions API is OpenAI-compatible.
type OpenAIClient struct {
	client   *openai.Client
	model    string
	provider domain.Provider
}

// NewOpenAIClient constructs an OpenAIClient from an Agent's ModelConfig.
func NewOpenAIClient(cfg domain.ModelConfig) (*OpenAIClient, error) {
	if cfg.Credential == "" {
		return nil, apperr.New(apperr.KindAuthFailed, "openai credential is required")
	}
	return &OpenAIClient{
		client:   openai.NewClient(cfg.Credential),
		model:    cfg.ModelName,
		provider: domain.ProviderOpenAI,
	}, nil
}

// GLMBaseURL is Zhipu's OpenAI-compatible chat-completions endpoint.
const GLMBaseURL = "https://open.bigmodel.cn/api/paas/v4"

// NewGLMClient constructs a GLM adapter by pointing go-openai's client at
// GLM's OpenAI-compatible endpoint. No dedicated GLM SDK exists in the
// dependency pack this project draws from; providers with an OpenAI-shaped
// wire format are conventionally served this way in Go.
func NewGLMClient(cfg domain.ModelConfig) (*OpenAIClient, error) {
	if cfg.Credential == "" {
		return nil, apperr.New(apperr.KindAuthFailed, "glm credential is required")
	}
	conf := openai.DefaultConfig(cfg.Credential)
	conf.BaseURL = GLMBaseURL
	return &OpenAIClient{
		client:   openai.NewClientWithConfig(conf),
		model:    cfg.ModelName,
		provider: domain.ProviderGLM,
	}, nil
}

func (c *OpenAIClient) Name() domain.Provider { return c.provider }

func toOpenAIMessages(systemPrompt string, conversation []contextbuilder.Entry) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(conversation)+1)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, e := range conversation {
		role := openai.ChatMessageRoleUser
		switch e.Role {
		case contextbuilder.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case contextbuilder.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: e.Content})
	}
	return messages
}

func openAIParams(params domain.ModelParameters) (maxTokens int, temperature float32) {
	maxTokens = 4096
	if params.MaxTokens != nil && *params.MaxTokens > 0 {
		maxTokens = *params.MaxTokens
	}
	if params.Temperature != nil {
		temperature = float32(*params.Temperature)
	}
	return
}

func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (Result, error) {
	maxTokens, temperature := openAIParams(params)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(systemPrompt, conversation),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return Result{}, classifyOpenAIError(err)
	}
	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	return Result{Content: content}, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (<-chan Delta, error) {
	maxTokens, temperature := openAIParams(params)
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(systemPrompt, conversation),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	out := make(chan Delta)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				sendDelta(ctx, out, Delta{Kind: DeltaComplete})
				return
			}
			if err != nil {
				sendDelta(ctx, out, Delta{Kind: DeltaError, Err: classifyOpenAIError(err)})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if text := resp.Choices[0].Delta.Content; text != "" {
				if !sendDelta(ctx, out, Delta{Kind: DeltaContent, Text: text}) {
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *OpenAIClient) TestConnection(ctx context.Context) error {
	_, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return classifyOpenAIError(err)
	}
	return nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return apperr.Wrap(apperr.KindAuthFailed, err, apiErr.Message)
		case apiErr.HTTPStatusCode == 429:
			return apperr.Wrap(apperr.KindRateLimited, err, apiErr.Message)
		default:
			return &apperr.Error{Kind: apperr.KindProviderError, Status: apiErr.HTTPStatusCode, Message: apiErr.Message, Wrapped: err}
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &apperr.Error{Kind: apperr.KindProviderError, Status: reqErr.HTTPStatusCode, Message: reqErr.Error(), Wrapped: err}
	}
	return apperr.Wrap(apperr.KindNetwork, err, "openai request failed")
}
