package translate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

// LLMTranslator batches lines into prompts for a Completer and parses the
// JSON replies.
type LLMTranslator struct {
	completer Completer
	options   Options
}

func NewLLMTranslator(completer Completer, opts Options) *LLMTranslator {
	return &LLMTranslator{completer: completer, options: opts}
}

func (t *LLMTranslator) Name() string {
	return t.completer.Name()
}

func (t *LLMTranslator) batchSize() int {
	if t.options.BatchSize > 0 {
		return t.options.BatchSize
	}
	return DefaultBatchSize
}

func (t *LLMTranslator) batches(items []TranslationItem) [][]TranslationItem {
	size := t.batchSize()
	var out [][]TranslationItem
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		out = append(out, items[i:end])
	}
	return out
}

func (t *LLMTranslator) Translate(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	var all []TranslationResult
	for i, batch := range t.batches(items) {
		results, err := t.translateBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d failed: %w", i, err)
		}
		all = append(all, results...)
	}
	return sortResults(all), nil
}

// Workers (up to concurrency) pull batches from a shared queue. The first
// failing batch cancels the rest.
func (t *LLMTranslator) TranslateWithConcurrency(
	ctx context.Context,
	items []TranslationItem,
	concurrency int,
) ([]TranslationResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	batches := t.batches(items)
	if len(batches) <= 1 || concurrency == 1 {
		return t.Translate(ctx, items)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type batchResult struct {
		index   int
		results []TranslationResult
		err     error
	}

	work := make(chan int)
	done := make(chan batchResult, len(batches))

	var wg sync.WaitGroup
	for w := 0; w < min(concurrency, len(batches)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					return
				}
				results, err := t.translateBatch(ctx, batches[idx])
				if err != nil {
					cancel()
				}
				done <- batchResult{index: idx, results: results, err: err}
			}
		}()
	}

	go func() {
		defer close(work)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case work <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	var (
		all      []TranslationResult
		firstErr error
	)
	for r := range done {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d failed: %w", r.index, r.err)
			}
			continue
		}
		all = append(all, r.results...)
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil && len(all) < len(items) {
		return nil, err
	}

	return sortResults(all), nil
}

func (t *LLMTranslator) translateBatch(
	ctx context.Context,
	items []TranslationItem,
) ([]TranslationResult, error) {
	reply, err := t.completer.Complete(ctx, BuildPrompt(t.options, items))
	if err != nil {
		return nil, fmt.Errorf("translation failed: %w", err)
	}
	if reply == "" {
		return nil, fmt.Errorf("no text in %s response", t.completer.Name())
	}

	reply = cleanJSONResponse(reply)
	results, err := extractTranslationResults(reply)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(reply, 200),
		)
	}

	if len(results) != len(items) {
		return nil, fmt.Errorf("expected %d results, got %d", len(items), len(results))
	}

	return results, nil
}

func sortResults(results []TranslationResult) []TranslationResult {
	if results == nil {
		return []TranslationResult{}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})
	return results
}
