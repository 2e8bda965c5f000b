package runtime

import (
	"github.com/missionctl/missionctl/internal/common/config"
)

// Backend identifiers understood by the provider.
const (
	BackendScripted = "scripted"
	BackendOllama   = "ollama"
)

// Settings carries the provider configuration used to build a runner.
// One base value is shared by every agent; per-agent values are derived
// from it with Derive.
type Settings struct {
	Backend         string
	Model           string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OllamaHost      string
}

// SettingsFromConfig builds the base runner settings from the agents config.
func SettingsFromConfig(cfg config.AgentsConfig) Settings {
	return Settings{
		Backend:         cfg.DefaultBackend,
		Model:           cfg.Model,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OllamaHost:      cfg.OllamaHost,
	}
}

// Derive returns a copy of base with the backend replaced. Credentials,
// model and host settings flow through unchanged so all agents share the
// provider configuration. An empty backend keeps the base backend.
func Derive(base Settings, backend string) Settings {
	derived := base
	if backend != "" {
		derived.Backend = backend
	}
	return derived
}
