package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tender-crew/agent"
)

func TestStore_LoadMissingFile(t *testing.T) {
	roles := []string{"Manager", "Cercetător", "Scriitor"}
	s := NewStore(filepath.Join(t.TempDir(), "agent_configs.json"), roles)

	configs, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(configs) != len(roles) {
		t.Fatalf("expected %d roles, got %v", len(roles), configs)
	}
	for _, role := range roles {
		if cfg, ok := configs[role]; !ok || cfg != (AgentConfig{}) {
			t.Errorf("expected empty config for %s, got %+v (present=%v)", role, cfg, ok)
		}
	}
}

func TestStore_SetAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "agent_configs.json")
	s := NewStore(path, []string{"Manager", "Analist"})

	if err := s.Set("Analist", AgentConfig{Instructions: "Verificați bugetul.", Backstory: "Economist."}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	var onDisk map[string]map[string]string
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("invalid JSON on disk: %v", err)
	}
	if onDisk["Analist"]["instructions"] != "Verificați bugetul." || onDisk["Analist"]["backstory"] != "Economist." {
		t.Errorf("unexpected file content %s", raw)
	}
	if _, ok := onDisk["Manager"]; !ok {
		t.Error("expected untouched roles to be saved too")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should be gone, stat err=%v", err)
	}

	configs, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if configs["Analist"].Backstory != "Economist." {
		t.Errorf("unexpected config %+v", configs["Analist"])
	}
}

func TestStore_SetReplaces(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "agent_configs.json"), nil)
	if err := s.Set("Analist", AgentConfig{Instructions: "Verificați bugetul."}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("Analyst", AgentConfig{Instructions: "Check the budget."}, "Analist"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	configs, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := configs["Analist"]; ok || len(configs) != 1 {
		t.Errorf("expected only the new entry, got %v", configs)
	}
	if configs["Analyst"].Instructions != "Check the budget." {
		t.Errorf("unexpected config %+v", configs["Analyst"])
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_configs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path, nil).Load(); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestAgentConfigs_Overrides(t *testing.T) {
	configs := AgentConfigs{"Scriitor": {Instructions: "Scrieți oferta.", Backstory: ""}}

	roster, err := agent.MergeRoster(agent.DefaultRoster(agent.Romanian), configs.Overrides())
	if err != nil {
		t.Fatalf("MergeRoster failed: %v", err)
	}
	for _, spec := range roster {
		if spec.Name != "Scriitor" {
			continue
		}
		if spec.Instructions != "Scrieți oferta." {
			t.Errorf("expected override, got %q", spec.Instructions)
		}
		if spec.Persona == "" {
			t.Error("empty backstory should keep the default persona")
		}
	}
}

func TestLoadRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crew.yaml")
	content := "Analist:\n  instructions: Analizați cerințele tehnice.\n  backstory: Inginer.\nManager:\n  instructions: Coordonați.\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	configs, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster failed: %v", err)
	}
	if configs["Analist"].Instructions != "Analizați cerințele tehnice." || configs["Analist"].Backstory != "Inginer." {
		t.Errorf("unexpected Analist %+v", configs["Analist"])
	}
	if configs["Manager"].Backstory != "" {
		t.Errorf("expected empty Manager backstory, got %q", configs["Manager"].Backstory)
	}

	if err := os.WriteFile(path, []byte("Analist: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRoster(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSchema(t *testing.T) {
	raw, err := Schema()
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if decoded["type"] != "object" {
		t.Errorf("expected object schema, got %v", decoded["type"])
	}
	for _, field := range []string{"instructions", "backstory"} {
		if !strings.Contains(string(raw), field) {
			t.Errorf("schema missing %q:\n%s", field, raw)
		}
	}
}
