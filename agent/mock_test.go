package agent

import (
	"context"
	"errors"
	"strings"
)

type mockGenerator struct {
	prompts   []string
	responses []string
	fallback  string
	failAt    int
	err       error
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	n := len(m.prompts)
	if m.err != nil && n == m.failAt {
		return "", m.err
	}
	if n <= len(m.responses) {
		return m.responses[n-1], nil
	}
	return m.fallback, nil
}

type mockSearcher struct {
	queries []string
	result  string
	err     error
}

func (m *mockSearcher) Search(ctx context.Context, query string) (string, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return "", m.err
	}
	return m.result, nil
}

var errBackend = errors.New("backend unavailable")

func testSpec(name string) Spec {
	return Spec{
		Name:         name,
		Instructions: "instructions of " + name,
		Persona:      "persona of " + name,
	}
}

func workersFor(names []string, gen Generator, searcher Searcher) []*Worker {
	workers := make([]*Worker, len(names))
	for i, name := range names {
		workers[i] = NewWorker(testSpec(name), gen, searcher, English)
	}
	return workers
}

func promptOwner(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(line, "Instructions: instructions of "); ok {
			return rest
		}
	}
	return ""
}
