package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
	"github.com/PabloGalante/meeting-engine/internal/contextbuilder"
	"github.com/PabloGalante/meeting-engine/internal/domain"
)

// GoogleClient adapts google.golang.org/genai (Gemini) to Client.
type GoogleClient struct {
	client *genai.Client
	model  string
}

// NewGoogleClient constructs a GoogleClient from an Agent's ModelConfig.
func NewGoogleClient(cfg domain.ModelConfig) (*GoogleClient, error) {
	if cfg.Credential == "" {
		return nil, apperr.New(apperr.KindAuthFailed, "google credential is required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.Credential,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, err, "failed to create genai client")
	}
	return &GoogleClient{client: client, model: cfg.ModelName}, nil
}

func (c *GoogleClient) Name() domain.Provider { return domain.ProviderGoogle }

func toGenaiContents(conversation []contextbuilder.Entry) []*genai.Content {
	contents := make([]*genai.Content, 0, len(conversation))
	for _, e := range conversation {
		role := genai.RoleUser
		if e.Role == contextbuilder.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: e.Content}},
		})
	}
	return contents
}

func genaiConfig(systemPrompt string, params domain.ModelParameters) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}
	if params.Temperature != nil {
		t := float32(*params.Temperature)
		cfg.Temperature = &t
	}
	if params.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*params.MaxTokens)
	}
	return cfg
}

func (c *GoogleClient) Complete(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (Result, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, toGenaiContents(conversation), genaiConfig(systemPrompt, params))
	if err != nil {
		return Result{}, classifyGoogleError(err)
	}
	return Result{Content: resp.Text()}, nil
}

func (c *GoogleClient) Stream(ctx context.Context, systemPrompt string, conversation []contextbuilder.Entry, params domain.ModelParameters) (<-chan Delta, error) {
	seq := c.client.Models.GenerateContentStream(ctx, c.model, toGenaiContents(conversation), genaiConfig(systemPrompt, params))

	out := make(chan Delta)
	go func() {
		defer close(out)
		for resp, err := range seq {
			if err != nil {
				sendDelta(ctx, out, Delta{Kind: DeltaError, Err: classifyGoogleError(err)})
				return
			}
			if text := resp.Text(); text != "" {
				if !sendDelta(ctx, out, Delta{Kind: DeltaContent, Text: text}) {
					return
				}
			}
		}
		sendDelta(ctx, out, Delta{Kind: DeltaComplete})
	}()
	return out, nil
}

func (c *GoogleClient) TestConnection(ctx context.Context) error {
	_, err := c.client.Models.GenerateContent(ctx, c.model, toGenaiContents([]contextbuilder.Entry{{Role: contextbuilder.RoleUser, Content: "ping"}}), nil)
	if err != nil {
		return classifyGoogleError(err)
	}
	return nil
}

func classifyGoogleError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "PERMISSION_DENIED") || strings.Contains(msg, "UNAUTHENTICATED"):
		return apperr.Wrap(apperr.KindAuthFailed, err, msg)
	case strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return apperr.Wrap(apperr.KindRateLimited, err, msg)
	case strings.Contains(msg, "500") || strings.Contains(msg, "503") || strings.Contains(msg, "UNAVAILABLE"):
		return &apperr.Error{Kind: apperr.KindProviderError, Status: 503, Message: msg, Wrapped: err}
	default:
		return apperr.Wrap(apperr.KindNetwork, err, msg)
	}
}
