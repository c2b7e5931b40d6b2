package metrics

import (
	"context"
	"time"

	"github.com/jwulff/bioreactor-go/internal/domain"
	"github.com/jwulff/bioreactor-go/internal/storage"
)

// Store operation labels.
const (
	OpInsertCO2         = "insert_co2"
	OpInsertEnvironment = "insert_environment"
	OpDailyAggregate    = "daily_aggregate"
	OpUpsertSummary     = "upsert_summary"
	OpGetSummary        = "get_summary"
)

type instrumentedStore struct {
	next    storage.Store
	metrics *Metrics
}

// InstrumentStore times every call to next. It returns next unchanged when
// m is nil.
func InstrumentStore(next storage.Store, m *Metrics) storage.Store {
	if m == nil {
		return next
	}
	return &instrumentedStore{next: next, metrics: m}
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	// A missing row is an answer, not a failure.
	if storage.IsNotFound(err) {
		err = nil
	}
	s.metrics.StoreCall(op, time.Since(start), err)
}

func (s *instrumentedStore) InsertCO2Reading(ctx context.Context, reading *domain.CO2Reading) ([]domain.CO2Reading, error) {
	start := time.Now()
	rows, err := s.next.InsertCO2Reading(ctx, reading)
	s.observe(OpInsertCO2, start, err)
	return rows, err
}

func (s *instrumentedStore) InsertEnvironmentReading(ctx context.Context, reading *domain.EnvironmentReading) ([]domain.EnvironmentReading, error) {
	start := time.Now()
	rows, err := s.next.InsertEnvironmentReading(ctx, reading)
	s.observe(OpInsertEnvironment, start, err)
	return rows, err
}

func (s *instrumentedStore) DailyAggregate(ctx context.Context, date string) ([]domain.DailyAggregate, error) {
	start := time.Now()
	rows, err := s.next.DailyAggregate(ctx, date)
	s.observe(OpDailyAggregate, start, err)
	return rows, err
}

func (s *instrumentedStore) UpsertDailySummary(ctx context.Context, summary *domain.DailySummary) ([]domain.DailySummary, error) {
	start := time.Now()
	rows, err := s.next.UpsertDailySummary(ctx, summary)
	s.observe(OpUpsertSummary, start, err)
	return rows, err
}

func (s *instrumentedStore) GetDailySummary(ctx context.Context, date string) (*domain.DailySummary, error) {
	start := time.Now()
	row, err := s.next.GetDailySummary(ctx, date)
	s.observe(OpGetSummary, start, err)
	return row, err
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}
