package analytics

import (
	"context"
	"sync"
	"testing"

	"formcraft/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore mirrors the storage contract: increments are atomic and the
// conversion rate is recomputed inside the same operation.
type fakeStore struct {
	mu       sync.Mutex
	counters map[string]model.Analytics
}

func newFakeStore() *fakeStore {
	return &fakeStore{counters: make(map[string]model.Analytics)}
}

func (s *fakeStore) IncrementViews(ctx context.Context, formID string) (model.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.counters[formID]
	a.FormID = formID
	a.Views++
	a.ConversionRate = rate(a.Submissions, a.Views)
	s.counters[formID] = a
	return a, nil
}

func (s *fakeStore) IncrementSubmissions(ctx context.Context, formID string) (model.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.counters[formID]
	a.FormID = formID
	a.Submissions++
	a.ConversionRate = rate(a.Submissions, a.Views)
	s.counters[formID] = a
	return a, nil
}

func (s *fakeStore) GetAnalytics(ctx context.Context, formID string) (model.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.counters[formID]
	a.FormID = formID
	return a, nil
}

func rate(submissions, views int64) float64 {
	if views == 0 {
		return 0
	}
	return float64(submissions) / float64(views) * 100
}

func TestRecordViewAndSubmission(t *testing.T) {
	agg := NewAggregator(newFakeStore())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := agg.RecordView(ctx, "f1")
		require.NoError(t, err)
	}
	counters, err := agg.RecordSubmission(ctx, "f1")
	require.NoError(t, err)

	assert.Equal(t, int64(4), counters.Views)
	assert.Equal(t, int64(1), counters.Submissions)
	assert.Equal(t, 25.0, counters.ConversionRate)
}

func TestCountersZeroValuedForUnknownForm(t *testing.T) {
	agg := NewAggregator(newFakeStore())

	counters, err := agg.Counters(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Zero(t, counters.Views)
	assert.Zero(t, counters.Submissions)
	assert.Zero(t, counters.ConversionRate)
}

func TestConcurrentRecordingLosesNothing(t *testing.T) {
	const n = 100
	agg := NewAggregator(newFakeStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := agg.RecordView(ctx, "f1")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := agg.RecordSubmission(ctx, "f1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counters, err := agg.Counters(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, int64(n), counters.Views)
	assert.Equal(t, int64(n), counters.Submissions)
	assert.Equal(t, 100.0, counters.ConversionRate)
}

func TestSampleLimit(t *testing.T) {
	assert.Equal(t, DefaultSampleSize, SampleLimit(0))
	assert.Equal(t, DefaultSampleSize, SampleLimit(-5))
	assert.Equal(t, 200, SampleLimit(200))
	assert.Equal(t, MaxSampleSize, SampleLimit(10_000))
}

func TestFieldCompletion(t *testing.T) {
	sample := []model.Submission{
		{Data: map[string]interface{}{"name": "Ada", "email": "ada@example.com", "terms": true}},
		{Data: map[string]interface{}{"name": "Grace", "email": "", "terms": false}},
		{Data: map[string]interface{}{"name": "Edsger", "age": 42.0}},
		{Data: map[string]interface{}{"name": ""}},
	}

	completion := FieldCompletion(sample)
	assert.Equal(t, 75.0, completion["name"])
	assert.Equal(t, 25.0, completion["email"])
	assert.Equal(t, 25.0, completion["terms"])
	assert.Equal(t, 25.0, completion["age"])
}

func TestFieldCompletionEmptySample(t *testing.T) {
	assert.Empty(t, FieldCompletion(nil))
	assert.Empty(t, FieldCompletion([]model.Submission{}))
}
