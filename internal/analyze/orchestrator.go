package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mvbarbosa/docpipe/internal/extract"
	"github.com/mvbarbosa/docpipe/internal/provider"
)

// NoticeKey is the result-map key used when no provider ran, e.g. for a
// document that yielded no text.
const NoticeKey = "notice"

// EmptyDocumentNotice is the result recorded for a document with no
// extractable text. An empty PDF is a legitimate outcome, not an error, so
// the job completes instead of burning retries.
const EmptyDocumentNotice = "No text could be extracted from this document."

// ErrNoProviderSucceeded means every configured provider failed for this
// attempt; the job as a whole fails and is subject to the retry policy.
var ErrNoProviderSucceeded = errors.New("all analysis providers failed")

// Task pairs a provider with its prompt source.
type Task struct {
	Provider   provider.Provider
	PromptFile string
}

// Orchestrator turns a job's raw bytes into the provider-name -> text result
// map. Extraction runs once; the configured providers (one or two) then
// analyze the cleaned text concurrently and independently.
type Orchestrator struct {
	log          *slog.Logger
	extractor    extract.Extractor
	tasks        []Task
	maxTextChars int
}

func NewOrchestrator(log *slog.Logger, extractor extract.Extractor, tasks []Task, maxTextChars int) (*Orchestrator, error) {
	if len(tasks) == 0 {
		return nil, errors.New("at least one analysis provider is required")
	}
	if len(tasks) > 2 {
		return nil, fmt.Errorf("at most two analysis providers are supported, got %d", len(tasks))
	}
	return &Orchestrator{
		log:          log,
		extractor:    extractor,
		tasks:        tasks,
		maxTextChars: maxTextChars,
	}, nil
}

// Run executes the full pipeline for one document. The returned map has one
// entry per provider: the analysis text on success, or an error description
// when only that provider failed.
func (o *Orchestrator) Run(ctx context.Context, data []byte) (map[string]string, error) {
	text, err := o.extractor.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("extract document text: %w", err)
	}
	o.log.Debug("extracted document text", "chars", len(text))

	text = strings.TrimSpace(extract.RemoveWatermark(text))
	if text == "" {
		o.log.Warn("document yielded no text, skipping analysis")
		return map[string]string{NoticeKey: EmptyDocumentNotice}, nil
	}
	text = truncateText(text, o.maxTextChars)

	type outcome struct {
		name string
		text string
		err  error
	}
	outcomes := make([]outcome, len(o.tasks))

	var wg sync.WaitGroup
	for i, task := range o.tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			name := task.Provider.Name()
			instructions, err := provider.LoadInstructions(task.PromptFile)
			if err != nil {
				outcomes[i] = outcome{name: name, err: err}
				return
			}
			result, err := task.Provider.Analyze(ctx, text, instructions)
			outcomes[i] = outcome{name: name, text: result, err: err}
		}(i, task)
	}
	wg.Wait()

	assembled := make(map[string]string, len(outcomes))
	var succeeded int
	var failures []error
	for _, out := range outcomes {
		if out.err != nil {
			o.log.Error("provider analysis failed", "provider", out.name, "error", out.err)
			assembled[out.name] = fmt.Sprintf("analysis failed: %v", out.err)
			failures = append(failures, fmt.Errorf("%s: %w", out.name, out.err))
			continue
		}
		assembled[out.name] = out.text
		succeeded++
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoProviderSucceeded, errors.Join(failures...))
	}
	return assembled, nil
}

// truncateText bounds the analysis input, backing off to a rune boundary so
// the cut never produces invalid UTF-8.
func truncateText(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
