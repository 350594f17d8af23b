package router

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"tender-crew/agent"
)

// ErrNoBackends is returned when the router has nothing to route to.
var ErrNoBackends = errors.New("no generation backends available")

var palette = []lipgloss.Color{"#7C3AED", "#04B575", "#F59E0B", "#EF4444", "#3B82F6", "#EC4899"}

type namedGenerator struct {
	gen   agent.Generator
	label string
}

// Router spreads generation calls over several backends in round-robin
// order, typically one per API key.
type Router struct {
	backends []namedGenerator
	counter  uint64
	logger   *log.Logger
}

var _ agent.Generator = (*Router)(nil)

func NewRouter(backends []agent.Generator, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.Default()
	}

	named := make([]namedGenerator, len(backends))
	for i, gen := range backends {
		style := lipgloss.NewStyle().Bold(true).Foreground(palette[i%len(palette)])
		named[i] = namedGenerator{
			gen:   gen,
			label: style.Render(fmt.Sprintf("[ backend %d ]", i+1)),
		}
	}

	return &Router{
		backends: named,
		logger:   logger,
	}
}

func (r *Router) Generate(ctx context.Context, prompt string) (string, error) {
	if len(r.backends) == 0 {
		return "", ErrNoBackends
	}

	index := atomic.AddUint64(&r.counter, 1) - 1
	selected := r.backends[index%uint64(len(r.backends))]

	r.logger.Debug(selected.label+" used to handle request", "worker", agent.WorkerFromContext(ctx))

	return selected.gen.Generate(ctx, prompt)
}
