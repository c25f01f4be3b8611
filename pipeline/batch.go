package pipeline

import (
	"context"

	"github.com/narasim-teja/tars/types"
)

// Item is one raw evidence payload in a batch, named for reporting.
type Item struct {
	Name string
	Raw  []byte
	Hint string
}

type ItemOutcome struct {
	Name    string        `json:"name"`
	Outcome types.Outcome `json:"outcome"`
}

// BatchSummary aggregates the per-item outcomes of one batch run.
type BatchSummary struct {
	Processed  int           `json:"processed"`
	Succeeded  int           `json:"succeeded"`
	Duplicates int           `json:"duplicates"`
	Failed     int           `json:"failed"`
	Items      []ItemOutcome `json:"items"`
}

// ProcessBatch runs the items sequentially; one item failing never stops
// the rest. A cancelled context stops the batch before the next item,
// leaving remaining items untouched.
func (p *Pipeline) ProcessBatch(ctx context.Context, items []Item) *BatchSummary {
	sum := &BatchSummary{Items: make([]ItemOutcome, 0, len(items))}
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			break
		}
		out := p.Process(ctx, it.Raw, it.Hint)
		sum.Items = append(sum.Items, ItemOutcome{Name: it.Name, Outcome: out})
		sum.Processed++
		switch out.Status {
		case types.OutcomeSuccess:
			sum.Succeeded++
		case types.OutcomeDuplicate:
			sum.Duplicates++
		default:
			sum.Failed++
		}
	}
	p.logger.Info("batch complete", "processed", sum.Processed,
		"succeeded", sum.Succeeded, "duplicates", sum.Duplicates, "failed", sum.Failed)
	return sum
}
