// Package config loads runtime settings from the environment and persists
// per-role agent configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"tender-crew/agent"
)

// Environment variables read by Load.
const (
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIAPIKeys = "OPENAI_API_KEYS"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvModel         = "TENDER_MODEL"
	EnvSerperAPIKey  = "SERPER_API_KEY"
	EnvSearch        = "TENDER_SEARCH"
	EnvKnowledgeDir  = "TENDER_KB_DIR"
	EnvAgentConfigs  = "TENDER_AGENT_CONFIGS"
	EnvLocale        = "TENDER_LOCALE"
	EnvLogLevel      = "TENDER_LOG_LEVEL"
	EnvRPM           = "TENDER_RPM"
	EnvTPM           = "TENDER_TPM"
)

const (
	DefaultKnowledgeDir     = "knowledge_base"
	DefaultAgentConfigsPath = "/tmp/agent_configs.json"
)

// ErrNoAPIKey is returned by Validate when no OpenAI key is configured.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable is required")

type Settings struct {
	// APIKeys holds one key per backend. More than one key enables
	// round-robin routing.
	APIKeys           []string
	BaseURL           string
	Model             string
	SerperAPIKey      string
	SearchProvider    string
	KnowledgeDir      string
	AgentConfigsPath  string
	Locale            agent.Locale
	LogLevel          log.Level
	RequestsPerMinute int
	TokensPerMinute   int
}

// LoadDotEnv loads .env files into the process environment. A missing file
// is not an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Load reads settings from the process environment.
func Load() (Settings, error) {
	return FromEnv(os.Getenv)
}

// FromEnv reads settings through getenv.
func FromEnv(getenv func(string) string) (Settings, error) {
	s := Settings{
		BaseURL:          getenv(EnvOpenAIBaseURL),
		Model:            getenv(EnvModel),
		SerperAPIKey:     getenv(EnvSerperAPIKey),
		SearchProvider:   strings.ToLower(strings.TrimSpace(getenv(EnvSearch))),
		KnowledgeDir:     valueOr(getenv(EnvKnowledgeDir), DefaultKnowledgeDir),
		AgentConfigsPath: valueOr(getenv(EnvAgentConfigs), DefaultAgentConfigsPath),
		LogLevel:         log.InfoLevel,
	}

	for _, key := range strings.Split(getenv(EnvOpenAIAPIKeys), ",") {
		if key = strings.TrimSpace(key); key != "" {
			s.APIKeys = append(s.APIKeys, key)
		}
	}
	if key := strings.TrimSpace(getenv(EnvOpenAIAPIKey)); key != "" && len(s.APIKeys) == 0 {
		s.APIKeys = []string{key}
	}

	var errs []error

	locale, err := agent.LocaleByCode(valueOr(getenv(EnvLocale), agent.Romanian.Code))
	if err != nil {
		errs = append(errs, err)
	}
	s.Locale = locale

	if raw := getenv(EnvLogLevel); raw != "" {
		level, err := log.ParseLevel(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
		}
		s.LogLevel = level
	}

	if s.RequestsPerMinute, err = intFromEnv(getenv, EnvRPM); err != nil {
		errs = append(errs, err)
	}
	if s.TokensPerMinute, err = intFromEnv(getenv, EnvTPM); err != nil {
		errs = append(errs, err)
	}

	return s, errors.Join(errs...)
}

// Validate checks what is needed to talk to the model.
func (s Settings) Validate() error {
	if len(s.APIKeys) == 0 {
		return ErrNoAPIKey
	}
	return nil
}

func intFromEnv(getenv func(string) string, name string) (int, error) {
	raw := strings.TrimSpace(getenv(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, raw)
	}
	return n, nil
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
