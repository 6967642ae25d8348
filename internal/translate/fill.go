package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/mgpai22/lesson/internal/caption"
)

type FillOptions struct {
	// replace secondary text that is already present
	Overwrite   bool
	Concurrency int
}

// Fill translates the primary text of segments whose secondary text is
// empty (or of every segment with Overwrite) and returns a copy with the
// translations in Secondary, plus the number of segments filled.
func Fill(
	ctx context.Context,
	t Translator,
	segments []caption.Segment,
	opts FillOptions,
) ([]caption.Segment, int, error) {
	out := make([]caption.Segment, len(segments))
	copy(out, segments)

	var items []TranslationItem
	for i, seg := range out {
		if strings.TrimSpace(seg.Primary) == "" {
			continue
		}
		if seg.Secondary != "" && !opts.Overwrite {
			continue
		}
		items = append(items, TranslationItem{Index: i, Text: seg.Primary})
	}
	if len(items) == 0 {
		return out, 0, nil
	}

	var (
		results []TranslationResult
		err     error
	)
	if ct, ok := t.(ConcurrentTranslator); ok && opts.Concurrency > 1 {
		results, err = ct.TranslateWithConcurrency(ctx, items, opts.Concurrency)
	} else {
		results, err = t.Translate(ctx, items)
	}
	if err != nil {
		return nil, 0, err
	}

	wanted := make(map[int]bool, len(items))
	for _, item := range items {
		wanted[item.Index] = true
	}

	filled := 0
	for _, r := range results {
		if !wanted[r.Index] {
			return nil, 0, fmt.Errorf("translation returned unknown index %d", r.Index)
		}
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		out[r.Index].Secondary = text
		filled++
	}

	return out, filled, nil
}
