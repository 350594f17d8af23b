// Package pipeline turns a user submission into a crew task: it summarizes
// the uploaded file, checks the knowledge base and runs the delegation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tender-crew/agent"
)

// ErrEmptyPrompt is returned when a submission has no prompt text.
var ErrEmptyPrompt = errors.New("please enter a task")

// Summarizer condenses an uploaded file.
type Summarizer interface {
	SummarizeFile(ctx context.Context, name string, data []byte) (string, error)
}

// KnowledgeBase reports whether any knowledge base files are available.
type KnowledgeBase interface {
	Used() (bool, error)
}

type Submission struct {
	Prompt   string
	FileName string
	FileData []byte
}

// Outcome is the result of one submission along with the task the crew saw.
type Outcome struct {
	Result   agent.Result
	Task     agent.Task
	Duration time.Duration
}

type Pipeline struct {
	crew       *agent.Crew
	summarizer Summarizer
	kb         KnowledgeBase
	locale     agent.Locale
	logger     *log.Logger
}

// NewPipeline wires a crew with its optional file summarizer and knowledge
// base. Either may be nil.
func NewPipeline(crew *agent.Crew, summarizer Summarizer, kb KnowledgeBase, locale agent.Locale, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		crew:       crew,
		summarizer: summarizer,
		kb:         kb,
		locale:     locale,
		logger:     logger,
	}
}

// Crew returns the crew submissions are delegated to.
func (p *Pipeline) Crew() *agent.Crew {
	return p.crew
}

// Prepare builds the task for sub without running the crew.
func (p *Pipeline) Prepare(ctx context.Context, sub Submission) (agent.Task, error) {
	if strings.TrimSpace(sub.Prompt) == "" {
		return agent.Task{}, ErrEmptyPrompt
	}
	task := agent.Task{Prompt: sub.Prompt}

	if sub.FileName != "" && p.summarizer != nil {
		summary, err := p.summarizer.SummarizeFile(ctx, sub.FileName, sub.FileData)
		if err != nil {
			return agent.Task{}, fmt.Errorf("failed to process %s: %w", sub.FileName, err)
		}
		if summary != "" {
			task.FileSummary = summary
			task.Prompt += fmt.Sprintf(p.locale.FileNote, summary)
		}
	}

	if p.kb != nil {
		used, err := p.kb.Used()
		if err != nil {
			return agent.Task{}, fmt.Errorf("failed to check knowledge base: %w", err)
		}
		if used {
			task.KnowledgeBase = true
			task.Prompt += p.locale.KnowledgeBaseNote
		}
	}

	return task, nil
}

// Submit prepares the task and delegates it to the crew.
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	start := time.Now()

	task, err := p.Prepare(ctx, sub)
	if err != nil {
		return Outcome{}, err
	}

	p.logger.Info("Processing task",
		"file", sub.FileName,
		"knowledge_base", task.KnowledgeBase,
		"workers", len(p.crew.Workers),
	)

	result, err := p.crew.Process(ctx, task)
	duration := time.Since(start)
	if err != nil {
		p.logger.Error("Task failed", "error", err, "duration", duration)
		return Outcome{Task: task, Duration: duration}, err
	}

	p.logger.Info("Task completed", "duration", duration)
	return Outcome{Result: result, Task: task, Duration: duration}, nil
}
