package workflow

import (
	"context"
	"time"

	"mebbisauto/internal/logger"
	"mebbisauto/pkg/model"
)

// WorkItem is the unit of business work a batch processes. The natural key
// identifies the item across re-submissions and keys the result map.
type WorkItem interface {
	NaturalKey() string
}

// ProgressFunc reports batch progress: current is 1-based.
type ProgressFunc func(current, total int, item WorkItem)

// KeyedResult pairs a natural key with its result, for ordered output.
type KeyedResult struct {
	Key    string                `json:"key"`
	Result model.OperationResult `json:"result"`
}

// Results is an insertion-order-preserving map from natural key to
// result. Re-submitting a key overwrites the value but keeps the original
// position (last write wins), so callers can both audit order and detect
// duplicates.
type Results struct {
	keys []string
	m    map[string]model.OperationResult
}

// NewResults returns an empty result map.
func NewResults() *Results {
	return &Results{m: make(map[string]model.OperationResult)}
}

// Set records a result under its key.
func (r *Results) Set(key string, res model.OperationResult) {
	if _, ok := r.m[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.m[key] = res
}

// Get looks a result up.
func (r *Results) Get(key string) (model.OperationResult, bool) {
	res, ok := r.m[key]
	return res, ok
}

// Keys returns the keys in insertion order.
func (r *Results) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len is the number of recorded results.
func (r *Results) Len() int { return len(r.keys) }

// Ordered returns the results in insertion order.
func (r *Results) Ordered() []KeyedResult {
	out := make([]KeyedResult, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, KeyedResult{Key: k, Result: r.m[k]})
	}
	return out
}

// FailedCount counts unsuccessful results.
func (r *Results) FailedCount() int {
	n := 0
	for _, k := range r.keys {
		if !r.m[k].Success {
			n++
		}
	}
	return n
}

// Batch applies a single-item operation to an ordered collection. Items run
// strictly in input order (the portal's session state is not safely
// parallelizable) with a deliberate inter-item delay so the portal is not
// hammered.
type Batch struct {
	delay time.Duration
	log   logger.Logger
}

// NewBatch builds an orchestrator with the given inter-item delay.
func NewBatch(delay time.Duration, l logger.Logger) *Batch {
	if l == nil {
		l = logger.NewNop()
	}
	return &Batch{delay: delay, log: l}
}

// Run processes the items in order. A process error means infrastructure
// failure: it is recorded as a failed result for that item, and when
// stopOnError is set processing halts immediately, so a short result map
// means "stopped early", never "all succeeded". Business failures arrive
// as unsuccessful results from process and follow the same halting rule.
func (b *Batch) Run(
	ctx context.Context,
	items []WorkItem,
	process func(context.Context, WorkItem) (model.OperationResult, error),
	onProgress ProgressFunc,
	stopOnError bool,
) (*Results, error) {
	results := NewResults()
	total := len(items)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if onProgress != nil {
			onProgress(i+1, total, item)
		}

		res, err := process(ctx, item)
		if err != nil {
			b.log.Error("iş kalemi altyapı hatasıyla başarısız", "key", item.NaturalKey(), "error", err)
			res = model.Failure("İşlem sırasında hata oluştu", err.Error())
		}
		results.Set(item.NaturalKey(), res)

		if !res.Success && stopOnError {
			b.log.Warn("hata nedeniyle toplu işlem durduruldu", "key", item.NaturalKey(), "processed", i+1, "total", total)
			break
		}
		if i < total-1 {
			if err := sleepCtx(ctx, b.delay); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}
