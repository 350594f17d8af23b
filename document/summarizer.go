package document

import (
	"context"
	"fmt"
	"strings"

	"tender-crew/agent"
)

// Summarizer condenses uploaded files with a single generation call.
type Summarizer struct {
	gen     agent.Generator
	prompt  string
	size    int
	overlap int
}

func NewSummarizer(gen agent.Generator, locale agent.Locale) *Summarizer {
	return &Summarizer{
		gen:     gen,
		prompt:  locale.SummaryPrompt,
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}
}

// Summarize summarizes the first chunk of text only, which keeps the call
// small for long tender books. Blank text yields an empty summary.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	chunks := Split(text, s.size, s.overlap)
	if len(chunks) == 0 {
		return "", nil
	}

	summary, err := s.gen.Generate(agent.ContextWithWorker(ctx, "Summarizer"), fmt.Sprintf(s.prompt, chunks[0]))
	if err != nil {
		return "", fmt.Errorf("failed to get summary: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

// SummarizeFile loads and summarizes an uploaded file.
func (s *Summarizer) SummarizeFile(ctx context.Context, name string, data []byte) (string, error) {
	text, err := Load(name, data)
	if err != nil {
		return "", err
	}
	return s.Summarize(ctx, text)
}
