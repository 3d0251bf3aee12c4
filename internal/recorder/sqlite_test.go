package recorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"EquityDesk/internal/model"
)

func openMemory(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(":memory:", arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRoundTripComplete(t *testing.T) {
	r := openMemory(t)
	now := time.Date(2024, 6, 28, 10, 0, 0, 0, time.UTC)
	rec := &model.TaskRecord{
		TaskID: "t-1",
		Ticker: "AAPL",
		Status: model.StatusComplete,
		Result: &model.TaskResult{
			RevisionCount: 1,
			DraftReport: &model.DraftReport{
				ExecutiveSummary:    "summary",
				TechnicalOutlook:    "outlook",
				Risks:               "risks",
				Strategy:            "strategy",
				TechnicalIndicators: map[string]any{"rsi_14": 55.5, "signals": map[string]any{"bullish_crossover": false}},
				Confidence:          model.ConfidenceHigh,
			},
		},
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
	}
	require.NoError(t, r.RecordTask(rec))

	got, err := r.LoadTask("t-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestRoundTripError(t *testing.T) {
	r := openMemory(t)
	rec := &model.TaskRecord{TaskID: "t-2", Ticker: "ZZZZ", Status: model.StatusError, Error: "price data unavailable after retries"}
	require.NoError(t, r.RecordTask(rec))

	got, err := r.LoadTask("t-2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, got.Status)
	assert.Equal(t, rec.Error, got.Error)
	assert.Nil(t, got.Result)
}

func TestUpsert(t *testing.T) {
	r := openMemory(t)
	rec := &model.TaskRecord{TaskID: "t-3", Ticker: "MSFT", Status: model.StatusRunning}
	require.NoError(t, r.RecordTask(rec))
	rec.Status = model.StatusError
	rec.Error = "analysis timed out"
	require.NoError(t, r.RecordTask(rec))

	got, err := r.LoadTask("t-3")
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, got.Status)
	assert.Equal(t, "analysis timed out", got.Error)
}

func TestLoadMissing(t *testing.T) {
	_, err := openMemory(t).LoadTask("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewNoopRecorder().LoadTask("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
