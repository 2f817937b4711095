// Package domain holds the core data model for agents, meetings, messages,
// minutes, and mind-maps. Types here carry their own validation; they do not
// know about storage, transport, or any particular model provider.
package domain

import (
	"strings"

	"github.com/PabloGalante/meeting-engine/internal/apperr"
)

// Provider identifies which model backend an Agent's credentials target.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderGLM       Provider = "glm"
)

// ModelParameters carries optional sampling knobs passed through to a
// provider. Zero values mean "use the provider's default".
type ModelParameters struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

// ModelConfig binds an Agent to a provider, model, and credential.
type ModelConfig struct {
	Provider   Provider         `json:"provider"`
	ModelName  string           `json:"model_name"`
	Credential string           `json:"credential"`
	Parameters *ModelParameters `json:"parameters,omitempty"`
}

// Validate checks the fields spec.md §3 requires to be non-empty.
func (m ModelConfig) Validate() error {
	switch m.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderGLM:
	default:
		return apperr.Validationf("model_config.provider", "unknown provider %q", m.Provider)
	}
	if strings.TrimSpace(m.ModelName) == "" {
		return apperr.Validation("model_config.model_name", "model name cannot be empty")
	}
	if strings.TrimSpace(m.Credential) == "" {
		return apperr.Validation("model_config.credential", "credential cannot be empty")
	}
	return nil
}

// Role is the persona an Agent plays: the system prompt it contributes and
// the label other participants and the moderator see.
type Role struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
}

// Validate enforces the length bounds original_source's Role dataclass does.
func (r Role) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.Validation("role.name", "role name cannot be empty")
	}
	if len(r.Name) > 50 {
		return apperr.Validation("role.name", "role name must be 50 characters or less")
	}
	if strings.TrimSpace(r.Description) == "" {
		return apperr.Validation("role.description", "role description cannot be empty")
	}
	if len(r.Description) > 2000 {
		return apperr.Validation("role.description", "role description must be 2000 characters or less")
	}
	if strings.TrimSpace(r.SystemPrompt) == "" {
		return apperr.Validation("role.system_prompt", "role system_prompt cannot be empty")
	}
	if len(r.SystemPrompt) > 2000 {
		return apperr.Validation("role.system_prompt", "role system_prompt must be 2000 characters or less")
	}
	return nil
}

// Agent is identity plus model configuration, managed independently of any
// meeting. Meetings capture a Snapshot of an Agent at creation time.
type Agent struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Role        Role        `json:"role"`
	ModelConfig ModelConfig `json:"model_config"`
}

// Validate checks the fields spec.md §3 constrains.
func (a Agent) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return apperr.Validation("agent.id", "agent id cannot be empty")
	}
	if strings.TrimSpace(a.Name) == "" {
		return apperr.Validation("agent.name", "agent name cannot be empty")
	}
	if len(a.Name) > 50 {
		return apperr.Validation("agent.name", "agent name must be 50 characters or less")
	}
	if err := a.Role.Validate(); err != nil {
		return err
	}
	return a.ModelConfig.Validate()
}

// Snapshot captures the Agent's current identity as an immutable participant
// record. Later edits to the live Agent do not retroactively change history
// already captured in a meeting.
func (a Agent) Snapshot() Agent {
	cp := a
	if a.ModelConfig.Parameters != nil {
		params := *a.ModelConfig.Parameters
		cp.ModelConfig.Parameters = &params
	}
	return cp
}
