package runtime

import (
	"fmt"
	"time"

	"github.com/missionctl/missionctl/internal/common/config"
	"github.com/missionctl/missionctl/internal/common/logger"
)

// scriptedChunkDelay paces the default script so streamed output is
// observable over the wire instead of arriving as one burst.
const scriptedChunkDelay = 50 * time.Millisecond

// Provider builds runners from the shared base settings and an agent's
// backend choice.
type Provider struct {
	base   Settings
	logger *logger.Logger
}

// NewProvider creates a runner provider from the agents configuration.
func NewProvider(cfg config.AgentsConfig, log *logger.Logger) *Provider {
	return &Provider{base: SettingsFromConfig(cfg), logger: log}
}

// Base returns the shared base settings.
func (p *Provider) Base() Settings {
	return p.base
}

// RunnerFor returns a fresh runner for the given backend. Every execution
// gets its own runner so Stop on one session cannot leak into another.
// An unrecognized backend is a construction error.
func (p *Provider) RunnerFor(backend string) (Runner, error) {
	settings := Derive(p.base, backend)
	switch settings.Backend {
	case "", BackendScripted:
		return NewScriptedRunner(nil, scriptedChunkDelay), nil
	case BackendOllama:
		return NewOllamaRunner(settings.OllamaHost, settings.Model, p.logger), nil
	default:
		return nil, fmt.Errorf("unknown agent backend: %s", settings.Backend)
	}
}
