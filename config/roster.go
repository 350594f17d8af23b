package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRoster reads a YAML crew file with the same shape as the JSON agent
// configs:
//
//	Analist:
//	  instructions: Analizați cerințele tehnice.
//	  backstory: Inginer cu experiență în achiziții publice.
func LoadRoster(path string) (AgentConfigs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}

	var configs AgentConfigs
	if err := yaml.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	if configs == nil {
		configs = AgentConfigs{}
	}
	return configs, nil
}
