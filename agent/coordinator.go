package agent

import (
	"context"
	"fmt"
	"strings"
)

// Progress statuses reported by a Coordinator.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// ProgressUpdate describes a step of a delegation.
type ProgressUpdate struct {
	Worker string
	Status string
	Err    error
}

// Coordinator runs a set of workers over one task and then synthesizes
// their answers with its own Respond.
//
// A Coordinator may be reused for sequential delegations but must not run
// two delegations at the same time.
type Coordinator struct {
	*Worker

	// Progress, when set, is called before and after every step.
	Progress func(ProgressUpdate)
}

// NewCoordinator creates a coordinator for spec.
func NewCoordinator(spec Spec, gen Generator, searcher Searcher, locale Locale) *Coordinator {
	return &Coordinator{Worker: NewWorker(spec, gen, searcher, locale)}
}

// Delegate asks every worker, in order, to respond to task and then responds
// itself to a synthesis prompt built from their outputs. The first error
// aborts the delegation and is returned unchanged.
func (c *Coordinator) Delegate(ctx context.Context, workers []*Worker, task Task) (string, error) {
	outputs := make([]Output, 0, len(workers))
	for _, w := range workers {
		c.report(w.Name(), StatusStarted, nil)
		text, err := w.Respond(ctx, task.Prompt, task.KnowledgeBase, task.FileSummary)
		if err != nil {
			c.report(w.Name(), StatusError, err)
			return "", err
		}
		c.report(w.Name(), StatusCompleted, nil)
		outputs = append(outputs, Output{Worker: w.Name(), Text: text})
	}

	c.report(c.Name(), StatusStarted, nil)
	final, err := c.Respond(ctx, c.SynthesisPrompt(outputs, task), task.KnowledgeBase, task.FileSummary)
	if err != nil {
		c.report(c.Name(), StatusError, err)
		return "", err
	}
	c.report(c.Name(), StatusCompleted, nil)
	return final, nil
}

// SynthesisPrompt embeds the labeled worker outputs, joined by single spaces,
// into the coordinator's review prompt.
func (c *Coordinator) SynthesisPrompt(outputs []Output, task Task) string {
	lines := make([]string, len(outputs))
	for i, o := range outputs {
		lines[i] = fmt.Sprintf("%s: %s", o.Worker, o.Text)
	}
	return fmt.Sprintf(c.locale.SynthesisPrompt, c.Name(), strings.Join(lines, " "), task.Prompt, task.FileSummary)
}

func (c *Coordinator) report(worker, status string, err error) {
	if c.Progress != nil {
		c.Progress(ProgressUpdate{Worker: worker, Status: status, Err: err})
	}
}
