// Package roster seeds the agent store from a YAML roster file so a
// fresh deployment starts with a working crew.
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/mission/models"
)

// Entry is one agent definition in the roster file.
type Entry struct {
	Name        string   `yaml:"name"`
	Role        string   `yaml:"role"`
	Description string   `yaml:"description"`
	Specialties []string `yaml:"specialties"`
	Backend     string   `yaml:"backend"`
}

type rosterFile struct {
	Agents []Entry `yaml:"agents"`
}

// Store is the slice of the agent store the seeder uses.
type Store interface {
	GetAgentByName(ctx context.Context, name string) (*models.Agent, error)
	CreateAgent(ctx context.Context, agent *models.Agent) error
	UpdateAgent(ctx context.Context, agent *models.Agent) error
}

// Load reads and parses a roster file. Entries without a name are
// rejected here so seeding never has to guess an identity.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	for i, entry := range file.Agents {
		if entry.Name == "" {
			return nil, fmt.Errorf("roster entry %d has no name", i)
		}
	}
	return file.Agents, nil
}

// Seed upserts roster entries into the store, keyed by agent name.
// Existing agents get their profile fields refreshed; status and task
// assignment are runtime state and stay untouched.
func Seed(ctx context.Context, store Store, entries []Entry, log *logger.Logger) error {
	created, updated := 0, 0
	for _, entry := range entries {
		existing, err := store.GetAgentByName(ctx, entry.Name)
		if err != nil {
			agent := models.NewAgent(entry.Name, entry.Role)
			agent.Description = entry.Description
			agent.Specialties = entry.Specialties
			agent.Backend = entry.Backend
			if err := store.CreateAgent(ctx, agent); err != nil {
				return fmt.Errorf("seed agent %q: %w", entry.Name, err)
			}
			created++
			continue
		}

		existing.Role = entry.Role
		existing.Description = entry.Description
		existing.Specialties = entry.Specialties
		existing.Backend = entry.Backend
		if err := store.UpdateAgent(ctx, existing); err != nil {
			return fmt.Errorf("refresh agent %q: %w", entry.Name, err)
		}
		updated++
	}

	log.Info("agent roster seeded",
		zap.Int("created", created),
		zap.Int("updated", updated))
	return nil
}

// SeedFromFile loads path and seeds the store. A missing file is not an
// error: deployments without a roster just start empty.
func SeedFromFile(ctx context.Context, store Store, path string, log *logger.Logger) error {
	entries, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info("no roster file, skipping agent seeding", zap.String("path", path))
			return nil
		}
		return err
	}
	return Seed(ctx, store, entries, log)
}
