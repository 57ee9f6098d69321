package analytics

import (
	"context"
	"fmt"

	"formcraft/internal/model"
)

// Sample bounds for the field-completion report. Completion is a read-time
// statistic derived from a bounded sample of recent submissions, not a stored
// counter.
const (
	DefaultSampleSize = 50
	MaxSampleSize     = 500
)

// Store performs the per-form counter updates. Increments must be atomic at
// the storage layer, not read-modify-write in application code: two
// concurrent submissions to the same form must both be counted.
type Store interface {
	IncrementViews(ctx context.Context, formID string) (model.Analytics, error)
	IncrementSubmissions(ctx context.Context, formID string) (model.Analytics, error)
	GetAnalytics(ctx context.Context, formID string) (model.Analytics, error)
}

// Aggregator maintains per-form counters and answers dashboard reads.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// RecordView bumps the view counter, lazily creating the row. The conversion
// rate is recomputed by the same atomic operation.
func (a *Aggregator) RecordView(ctx context.Context, formID string) (model.Analytics, error) {
	counters, err := a.store.IncrementViews(ctx, formID)
	if err != nil {
		return model.Analytics{}, fmt.Errorf("failed to record view: %w", err)
	}
	return counters, nil
}

// RecordSubmission bumps the submission counter, lazily creating the row.
func (a *Aggregator) RecordSubmission(ctx context.Context, formID string) (model.Analytics, error) {
	counters, err := a.store.IncrementSubmissions(ctx, formID)
	if err != nil {
		return model.Analytics{}, fmt.Errorf("failed to record submission: %w", err)
	}
	return counters, nil
}

// Counters returns the current counters for a form, zero-valued when the form
// has never been viewed or submitted.
func (a *Aggregator) Counters(ctx context.Context, formID string) (model.Analytics, error) {
	return a.store.GetAnalytics(ctx, formID)
}

// SampleLimit clamps a requested completion sample size to the allowed range.
func SampleLimit(requested int) int {
	if requested <= 0 {
		return DefaultSampleSize
	}
	if requested > MaxSampleSize {
		return MaxSampleSize
	}
	return requested
}

// FieldCompletion derives, for each field id observed across the sample, the
// percentage of sampled submissions where that field has a non-empty value.
func FieldCompletion(sample []model.Submission) map[string]float64 {
	if len(sample) == 0 {
		return map[string]float64{}
	}

	counts := make(map[string]int)
	for _, sub := range sample {
		for fieldID, value := range sub.Data {
			if filled(value) {
				counts[fieldID]++
			}
		}
	}

	completion := make(map[string]float64, len(counts))
	for fieldID, n := range counts {
		completion[fieldID] = float64(n) / float64(len(sample)) * 100
	}
	return completion
}

func filled(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	default:
		return true
	}
}
