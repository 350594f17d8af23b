package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
)

const serperURL = "https://google.serper.dev/search"

// Serper queries the Google results API at serper.dev.
type Serper struct {
	apiKey     string
	endpoint   string
	maxResults int
	client     *http.Client
	logger     *log.Logger
}

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperResponse struct {
	AnswerBox *struct {
		Title   string `json:"title"`
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"knowledgeGraph"`
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func NewSerper(cfg Config) *Serper {
	return &Serper{
		apiKey:     cfg.SerperAPIKey,
		endpoint:   serperURL,
		maxResults: cfg.MaxResults,
		client:     cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

func (s *Serper) Search(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(serperRequest{Query: query, Num: s.maxResults})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("serper request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("serper error %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
	}

	var sr serperResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("failed to decode serper response: %w", err)
	}

	var parts []string
	if sr.AnswerBox != nil {
		answer := sr.AnswerBox.Answer
		if answer == "" {
			answer = sr.AnswerBox.Snippet
		}
		if answer != "" {
			parts = append(parts, "Answer: "+answer)
		}
	}
	if sr.KnowledgeGraph != nil && sr.KnowledgeGraph.Description != "" {
		parts = append(parts, fmt.Sprintf("%s: %s", sr.KnowledgeGraph.Title, sr.KnowledgeGraph.Description))
	}

	results := make([]Result, 0, len(sr.Organic))
	for _, o := range sr.Organic {
		if len(results) == s.maxResults {
			break
		}
		results = append(results, Result{Title: o.Title, Link: o.Link, Snippet: o.Snippet})
	}
	if len(results) > 0 {
		parts = append(parts, formatResults(results))
	}

	s.logger.Debug("Serper search completed", "query", query, "results", len(results))
	return strings.Join(parts, "\n\n"), nil
}
