package agent

import (
	"context"
)

// Generator produces text for a prompt. Implementations are called once per
// Respond and are never retried by this package.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher runs a web search and returns its results as text.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f(ctx, prompt).
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// SearcherFunc adapts a plain function to the Searcher interface.
type SearcherFunc func(ctx context.Context, query string) (string, error)

// Search calls f(ctx, query).
func (f SearcherFunc) Search(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

// Spec holds the configuration of a single worker role.
type Spec struct {
	Name         string `json:"name" yaml:"name"`
	Instructions string `json:"instructions" yaml:"instructions"`
	Persona      string `json:"backstory" yaml:"backstory"`
}

// Task is one user submission. It is passed by value to every worker.
type Task struct {
	Prompt        string
	KnowledgeBase bool
	FileSummary   string
}

// Output is the annotated text one worker produced during a delegation.
type Output struct {
	Worker string
	Text   string
}

// Result is the final text of a delegation.
type Result struct {
	Text string
}

type workerKey struct{}

// ContextWithWorker tags ctx with the name of the worker making a call.
func ContextWithWorker(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, workerKey{}, name)
}

// WorkerFromContext returns the worker name set by ContextWithWorker.
func WorkerFromContext(ctx context.Context) string {
	name, _ := ctx.Value(workerKey{}).(string)
	return name
}
