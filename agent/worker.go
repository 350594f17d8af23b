package agent

import (
	"context"
	"fmt"
	"strings"
)

// Worker answers a task from a fixed role, optionally enriching the answer
// with one web search.
type Worker struct {
	spec     Spec
	gen      Generator
	searcher Searcher
	locale   Locale
}

// NewWorker creates a worker for spec. searcher may be nil, in which case a
// response that asks for a search fails with ErrNoSearcher.
func NewWorker(spec Spec, gen Generator, searcher Searcher, locale Locale) *Worker {
	return &Worker{
		spec:     spec,
		gen:      gen,
		searcher: searcher,
		locale:   locale,
	}
}

// Name returns the role name.
func (w *Worker) Name() string { return w.spec.Name }

// Prompt builds the single prompt sent to the generator for task.
func (w *Worker) Prompt(task, fileSummary string) string {
	return fmt.Sprintf(w.locale.WorkerPrompt, w.spec.Instructions, w.spec.Persona, task, fileSummary)
}

// Respond generates an answer for task and decorates it with tags for the
// knowledge base, the web search and the uploaded file.
func (w *Worker) Respond(ctx context.Context, task string, knowledgeBase bool, fileSummary string) (string, error) {
	ctx = ContextWithWorker(ctx, w.spec.Name)
	text, err := w.gen.Generate(ctx, w.Prompt(task, fileSummary))
	if err != nil {
		return "", &GenerationError{Worker: w.spec.Name, Err: err}
	}

	searched := false
	if w.locale.HasSearchTrigger(text) {
		query := w.locale.SearchQuery(text)
		if w.searcher == nil {
			return "", &SearchError{Worker: w.spec.Name, Query: query, Err: ErrNoSearcher}
		}
		found, err := w.searcher.Search(ctx, query)
		if err != nil {
			return "", &SearchError{Worker: w.spec.Name, Query: query, Err: err}
		}
		text += "\n\n" + w.locale.SearchResultsLabel + found
		searched = true
	}

	return w.prefix(knowledgeBase, searched, fileSummary != "") + w.locale.TaskCompleted + text, nil
}

func (w *Worker) prefix(knowledgeBase, searched, fileAnalyzed bool) string {
	var tags []string
	if knowledgeBase {
		tags = append(tags, w.locale.TagKnowledgeBase)
	}
	if searched {
		tags = append(tags, w.locale.TagInternetSearch)
	}
	if fileAnalyzed {
		tags = append(tags, w.locale.TagFileAnalyzed)
	}
	if len(tags) == 0 {
		return ""
	}
	return strings.Join(tags, " ") + " "
}
