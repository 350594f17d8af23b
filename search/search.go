// Package search implements the web search backends available to the crew.
package search

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tender-crew/agent"
)

const (
	ProviderAuto       = ""
	ProviderSerper     = "serper"
	ProviderDuckDuckGo = "duckduckgo"
	ProviderOff        = "off"

	DefaultMaxResults = 5
)

// Config selects and configures a backend.
type Config struct {
	Provider     string
	SerperAPIKey string
	MaxResults   int
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// Result is a single search hit.
type Result struct {
	Title   string
	Link    string
	Snippet string
}

// New returns the backend named by cfg.Provider. With ProviderAuto it picks
// Serper when an API key is configured and DuckDuckGo otherwise. ProviderOff
// returns a nil Searcher.
func New(cfg Config) (agent.Searcher, error) {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderAuto:
		if cfg.SerperAPIKey != "" {
			return NewSerper(cfg), nil
		}
		return NewDuckDuckGo(cfg), nil
	case ProviderSerper:
		if cfg.SerperAPIKey == "" {
			return nil, fmt.Errorf("serper search needs SERPER_API_KEY")
		}
		return NewSerper(cfg), nil
	case ProviderDuckDuckGo:
		return NewDuckDuckGo(cfg), nil
	case ProviderOff:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
}

func formatResults(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "Title: %s\nLink: %s\nSnippet: %s\n---\n", r.Title, r.Link, r.Snippet)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
