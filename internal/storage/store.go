// Package storage provides storage abstractions for bioreactor telemetry.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwulff/bioreactor-go/internal/domain"
)

// Table and procedure names shared by every backend.
const (
	TableCO2          = "co2_data"
	TableEnvironment  = "environment_data"
	TableDailySummary = "daily_summary"

	ProcedureDailySummary = "get_daily_summary"
)

// Store is the interface for persistent storage.
type Store interface {
	// Raw readings, append-only
	InsertCO2Reading(ctx context.Context, reading *domain.CO2Reading) ([]domain.CO2Reading, error)
	InsertEnvironmentReading(ctx context.Context, reading *domain.EnvironmentReading) ([]domain.EnvironmentReading, error)

	// Daily summaries
	DailyAggregate(ctx context.Context, date string) ([]domain.DailyAggregate, error)
	UpsertDailySummary(ctx context.Context, summary *domain.DailySummary) ([]domain.DailySummary, error)
	GetDailySummary(ctx context.Context, date string) (*domain.DailySummary, error)

	// Lifecycle
	Close() error
}

// ErrNotFound is returned when a record is not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e ErrNotFound) Error() string {
	return e.Resource + " not found: " + e.ID
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// UpstreamError is a failed call to the backing store.
type UpstreamError struct {
	Op      string // e.g. "insert co2_data"
	Code    string // PostgREST or SQLSTATE code for remote stores
	Message string // message reported by the store
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	}
	return e.Op + ": " + e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream wraps err as an UpstreamError for op. It returns nil for nil.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Op: op, Message: err.Error(), Err: err}
}

// UpstreamMessage returns the store's own message for err, or err's text.
func UpstreamMessage(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return err.Error()
}
