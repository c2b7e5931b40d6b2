// Package summary runs the daily aggregation workflow: fetch the day's
// aggregate from the store and upsert it as the daily_summary row.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwulff/bioreactor-go/internal/domain"
	"github.com/jwulff/bioreactor-go/internal/reportdate"
	"github.com/jwulff/bioreactor-go/internal/storage"
)

// Outcomes, used as metric labels.
const (
	OutcomeWritten = "written"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
)

// ErrInvalidDate is returned for a date that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid summary date")

// Result is the terminal state of one workflow run.
type Result struct {
	Date string
	// Rows holds the persisted summary. It is nil when there was nothing to
	// summarize.
	Rows []domain.DailySummary
}

// Empty reports whether the run found no data and wrote nothing.
func (r *Result) Empty() bool {
	return r.Rows == nil
}

// Outcome returns OutcomeWritten or OutcomeEmpty.
func (r *Result) Outcome() string {
	if r.Empty() {
		return OutcomeEmpty
	}
	return OutcomeWritten
}

// Message is the explanatory text for an empty run.
func (r *Result) Message() string {
	return "No data to summarize for " + r.Date
}

// Run summarizes date. Re-running for the same date overwrites the existing
// row, so the workflow is safe to repeat.
func Run(ctx context.Context, store storage.Store, date string, log *slog.Logger) (*Result, error) {
	if !reportdate.Valid(date) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	log = log.With("summary_date", date)

	rows, err := store.DailyAggregate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("fetch daily aggregate for %s: %w", date, err)
	}

	result := &Result{Date: date}
	if len(rows) == 0 || rows[0].IsEmpty() {
		log.Info("no data to summarize")
		return result, nil
	}

	saved, err := store.UpsertDailySummary(ctx, rows[0].Summary(date))
	if err != nil {
		return nil, fmt.Errorf("upsert daily summary for %s: %w", date, err)
	}
	if saved == nil {
		saved = []domain.DailySummary{}
	}
	result.Rows = saved

	log.Info("daily summary written", "total_energy_kwh", *rows[0].TotalEnergyKWh)
	return result, nil
}
