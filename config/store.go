package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tender-crew/agent"
)

// AgentConfig is the editable part of a role.
type AgentConfig struct {
	Instructions string `json:"instructions" yaml:"instructions" jsonschema_description:"What the role is asked to do"`
	Backstory    string `json:"backstory" yaml:"backstory" jsonschema_description:"Persona the role speaks as"`
}

// AgentConfigs maps role names to their configuration.
type AgentConfigs map[string]AgentConfig

// Overrides converts the configs into roster overrides for agent.MergeRoster.
func (c AgentConfigs) Overrides() map[string]agent.Spec {
	overrides := make(map[string]agent.Spec, len(c))
	for name, cfg := range c {
		overrides[name] = agent.Spec{Name: name, Instructions: cfg.Instructions, Persona: cfg.Backstory}
	}
	return overrides
}

// Store persists agent configs as a JSON file.
type Store struct {
	mu    sync.Mutex
	path  string
	roles []string
}

// NewStore returns a store at path. roles are the names reported when the
// file does not exist yet.
func NewStore(path string, roles []string) *Store {
	return &Store{path: path, roles: roles}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the configs. A missing file yields every known role with empty
// fields.
func (s *Store) Load() (AgentConfigs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (AgentConfigs, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		configs := make(AgentConfigs, len(s.roles))
		for _, role := range s.roles {
			configs[role] = AgentConfig{}
		}
		return configs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read agent configs: %w", err)
	}

	var configs AgentConfigs
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse agent configs %s: %w", s.path, err)
	}
	if configs == nil {
		configs = AgentConfigs{}
	}
	return configs, nil
}

// Save replaces the file contents atomically.
func (s *Store) Save(configs AgentConfigs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(configs)
}

func (s *Store) save(configs AgentConfigs) error {
	data, err := json.MarshalIndent(configs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling agent configs: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing temp agent configs: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp agent configs: %w", err)
	}
	return nil
}

// Set updates one role and saves the file. Entries named in replaces are
// dropped so a role keeps a single entry.
func (s *Store) Set(role string, cfg AgentConfig, replaces ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configs, err := s.load()
	if err != nil {
		return err
	}
	for _, name := range replaces {
		delete(configs, name)
	}
	configs[role] = cfg
	return s.save(configs)
}
