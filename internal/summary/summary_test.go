package summary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jwulff/bioreactor-go/internal/domain"
	"github.com/jwulff/bioreactor-go/internal/reportdate"
	"github.com/jwulff/bioreactor-go/internal/storage"
	"github.com/jwulff/bioreactor-go/internal/storage/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func ptr[T any](v T) *T {
	return &v
}

// fakeStore records calls and returns canned results.
type fakeStore struct {
	storage.Store

	aggregate    []domain.DailyAggregate
	aggregateErr error
	upsertErr    error

	aggregateDates []string
	upserts        []*domain.DailySummary
}

func (f *fakeStore) DailyAggregate(_ context.Context, date string) ([]domain.DailyAggregate, error) {
	f.aggregateDates = append(f.aggregateDates, date)
	return f.aggregate, f.aggregateErr
}

func (f *fakeStore) UpsertDailySummary(_ context.Context, s *domain.DailySummary) ([]domain.DailySummary, error) {
	f.upserts = append(f.upserts, s)
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	saved := *s
	saved.ID = 1
	return []domain.DailySummary{saved}, nil
}

func TestRunWritesSummary(t *testing.T) {
	store := &fakeStore{aggregate: []domain.DailyAggregate{{
		TotalEnergyKWh:   ptr(0.5),
		AvgCO2ReducedPPM: ptr(120.0),
		WarningsCount:    ptr(int64(2)),
	}}}

	result, err := Run(context.Background(), store, "2024-05-01", discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-05-01"}, store.aggregateDates)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "2024-05-01", store.upserts[0].SummaryDate)
	assert.Equal(t, 0.5, store.upserts[0].TotalEnergyKWh)

	assert.False(t, result.Empty())
	assert.Equal(t, OutcomeWritten, result.Outcome())
	require.Len(t, result.Rows, 1)
	assert.Equal(t, int64(1), result.Rows[0].ID)
}

func TestRunEmpty(t *testing.T) {
	tests := []struct {
		name      string
		aggregate []domain.DailyAggregate
	}{
		{"no rows", nil},
		{"null total", []domain.DailyAggregate{{AvgCO2ReducedPPM: ptr(10.0)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{aggregate: tt.aggregate}

			result, err := Run(context.Background(), store, "2024-05-01", discard)
			require.NoError(t, err)

			assert.True(t, result.Empty())
			assert.Equal(t, OutcomeEmpty, result.Outcome())
			assert.Equal(t, "No data to summarize for 2024-05-01", result.Message())
			assert.Empty(t, store.upserts)
		})
	}
}

func TestRunAggregateError(t *testing.T) {
	upstream := &storage.UpstreamError{Op: "rpc get_daily_summary", Code: "XX000", Message: "boom"}
	store := &fakeStore{aggregateErr: upstream}

	_, err := Run(context.Background(), store, "2024-05-01", discard)
	require.Error(t, err)

	var ue *storage.UpstreamError
	assert.ErrorAs(t, err, &ue)
	assert.Contains(t, err.Error(), "fetch daily aggregate for 2024-05-01")
	assert.Empty(t, store.upserts)
}

func TestRunUpsertError(t *testing.T) {
	store := &fakeStore{
		aggregate: []domain.DailyAggregate{{TotalEnergyKWh: ptr(1.0)}},
		upsertErr: errors.New("duplicate key"),
	}

	_, err := Run(context.Background(), store, "2024-05-01", discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert daily summary for 2024-05-01")
}

func TestRunInvalidDate(t *testing.T) {
	store := &fakeStore{}

	_, err := Run(context.Background(), store, "05/01/2024", discard)
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.Empty(t, store.aggregateDates)
}

// sqlite-backed workflow tests

func seed(t *testing.T, store *sqlite.Store) {
	ctx := context.Background()
	for _, sub := range []domain.EnvironmentSubmission{
		{Voltage: ptr(12.0), CurrentMA: ptr(500.0), PHWolffia: ptr(6.8), Status: ptr("OK")},
		{Voltage: ptr(12.0), CurrentMA: ptr(250.0), PHWolffia: ptr(7.0), Status: ptr("LOW_LIGHT")},
	} {
		reading, err := sub.Reading(10)
		require.NoError(t, err)
		_, err = store.InsertEnvironmentReading(ctx, reading)
		require.NoError(t, err)
	}
	reading, err := domain.CO2Submission{Position1PPM: ptr(800.0), Position3PPM: ptr(650.0)}.Reading()
	require.NoError(t, err)
	_, err = store.InsertCO2Reading(ctx, reading)
	require.NoError(t, err)
}

func TestRunIdempotentOnSQLite(t *testing.T) {
	loc := reportdate.Zone(reportdate.DefaultOffset)
	store, err := sqlite.NewMemoryStore(loc)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	seed(t, store)
	date := time.Now().In(loc).Format(reportdate.Layout)

	first, err := Run(ctx, store, date, discard)
	require.NoError(t, err)
	second, err := Run(ctx, store, date, discard)
	require.NoError(t, err)

	require.Len(t, first.Rows, 1)
	require.Len(t, second.Rows, 1)
	assert.Equal(t, first.Rows[0].ID, second.Rows[0].ID)
	assert.Equal(t, first.Rows[0].TotalEnergyKWh, second.Rows[0].TotalEnergyKWh)
	assert.Equal(t, int64(1), *second.Rows[0].WarningsCount)
	assert.InDelta(t, 6.9, *second.Rows[0].AvgPHWolffia, 1e-9)
	assert.InDelta(t, 150.0, *second.Rows[0].AvgCO2ReducedPPM, 1e-9)

	stored, err := store.GetDailySummary(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, first.Rows[0].ID, stored.ID)
}

func TestRunEmptyDayOnSQLite(t *testing.T) {
	store, err := sqlite.NewMemoryStore(nil)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	result, err := Run(ctx, store, "2020-01-01", discard)
	require.NoError(t, err)
	assert.True(t, result.Empty())

	_, err = store.GetDailySummary(ctx, "2020-01-01")
	assert.True(t, storage.IsNotFound(err))
}
