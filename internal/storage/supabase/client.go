// Package supabase implements storage.Store against a Supabase project's
// PostgREST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/jwulff/bioreactor-go/internal/domain"
	"github.com/jwulff/bioreactor-go/internal/storage"
)

// DefaultTimeout bounds every store call.
const DefaultTimeout = 15 * time.Second

const restPath = "/rest/v1"

// PostgREST returning mode for inserts and upserts.
const returnRepresentation = "representation"

// ErrMissingCredentials is returned when the project URL or key is empty.
var ErrMissingCredentials = errors.New("supabase url and service role key are required")

// Client talks to the Supabase REST API through postgrest-go.
type Client struct {
	BaseURL        string
	ServiceRoleKey string
	Timeout        time.Duration
}

// NewClient creates a new Supabase client authenticated with the service role key.
func NewClient(baseURL, serviceRoleKey string) (*Client, error) {
	if baseURL == "" || serviceRoleKey == "" {
		return nil, ErrMissingCredentials
	}
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		ServiceRoleKey: serviceRoleKey,
		Timeout:        DefaultTimeout,
	}, nil
}

// RESTURL returns the PostgREST root for the project.
func (c *Client) RESTURL() string {
	return c.BaseURL + restPath
}

// rest builds a postgrest client for one call. postgrest.Client records
// transport errors in a shared field, so clients are never reused.
func (c *Client) rest() *postgrest.Client {
	return postgrest.NewClient(c.RESTURL(), "public", map[string]string{
		"apikey":        c.ServiceRoleKey,
		"Authorization": "Bearer " + c.ServiceRoleKey,
	})
}

type result struct {
	body []byte
	err  error
}

// call runs fn under the client timeout and ctx. postgrest-go has no
// context support, so an abandoned request finishes in the background.
func (c *Client) call(ctx context.Context, op string, fn func() ([]byte, error)) ([]byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, storage.Upstream(op, err)
	}

	done := make(chan result, 1)
	go func() {
		body, err := fn()
		done <- result{body: body, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, upstreamError(op, res.err)
		}
		return res.body, nil
	case <-ctx.Done():
		return nil, storage.Upstream(op, ctx.Err())
	}
}

// postgrestError splits the "(code) message" errors postgrest-go builds
// from PostgREST error bodies.
var postgrestError = regexp.MustCompile(`^\(([^)]*)\) (.*)$`)

func upstreamError(op string, err error) error {
	if m := postgrestError.FindStringSubmatch(err.Error()); m != nil {
		return &storage.UpstreamError{Op: op, Code: m[1], Message: m[2], Err: err}
	}
	return storage.Upstream(op, err)
}

// apiError is the PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// rpcError reports whether an rpc body is a PostgREST error. postgrest-go
// returns rpc bodies without their status code.
func rpcError(body []byte) (apiError, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return apiError{}, false
	}
	var apiErr apiError
	if err := json.Unmarshal(trimmed, &apiErr); err != nil {
		return apiError{}, false
	}
	return apiErr, apiErr.Code != "" && apiErr.Message != ""
}

// decodeRows accepts the three shapes PostgREST returns: an array, a single
// object, or null/empty.
func decodeRows[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var row T
		if err := json.Unmarshal(trimmed, &row); err != nil {
			return nil, err
		}
		return []T{row}, nil
	}
	var rows []T
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func insert[T any](ctx context.Context, c *Client, table, onConflict string, row *T) ([]T, error) {
	op := "insert " + table
	upsert := onConflict != ""
	if upsert {
		op = "upsert " + table
	}

	body, err := c.call(ctx, op, func() ([]byte, error) {
		body, _, err := c.rest().From(table).
			Insert([]*T{row}, upsert, onConflict, returnRepresentation, "").
			Execute()
		return body, err
	})
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows[T](body)
	if err != nil {
		return nil, storage.Upstream(op, fmt.Errorf("failed to parse rows: %w", err))
	}
	return rows, nil
}

// InsertCO2Reading appends one row to co2_data.
func (c *Client) InsertCO2Reading(ctx context.Context, reading *domain.CO2Reading) ([]domain.CO2Reading, error) {
	return insert(ctx, c, storage.TableCO2, "", reading)
}

// InsertEnvironmentReading appends one row to environment_data.
func (c *Client) InsertEnvironmentReading(ctx context.Context, reading *domain.EnvironmentReading) ([]domain.EnvironmentReading, error) {
	return insert(ctx, c, storage.TableEnvironment, "", reading)
}

// DailyAggregate calls the get_daily_summary procedure for date.
func (c *Client) DailyAggregate(ctx context.Context, date string) ([]domain.DailyAggregate, error) {
	op := "rpc " + storage.ProcedureDailySummary
	params := map[string]string{"report_date": date}

	body, err := c.call(ctx, op, func() ([]byte, error) {
		rest := c.rest()
		out := rest.Rpc(storage.ProcedureDailySummary, "", params)
		if rest.ClientError != nil {
			return nil, rest.ClientError
		}
		return []byte(out), nil
	})
	if err != nil {
		return nil, err
	}
	if apiErr, ok := rpcError(body); ok {
		return nil, &storage.UpstreamError{Op: op, Code: apiErr.Code, Message: apiErr.Message}
	}

	rows, err := decodeRows[domain.DailyAggregate](body)
	if err != nil {
		return nil, storage.Upstream(op, fmt.Errorf("failed to parse aggregate: %w", err))
	}
	return rows, nil
}

// UpsertDailySummary writes the row for summary.SummaryDate, replacing any
// existing row for that date.
func (c *Client) UpsertDailySummary(ctx context.Context, summary *domain.DailySummary) ([]domain.DailySummary, error) {
	return insert(ctx, c, storage.TableDailySummary, "summary_date", summary)
}

// GetDailySummary fetches the stored summary for date.
func (c *Client) GetDailySummary(ctx context.Context, date string) (*domain.DailySummary, error) {
	op := "select " + storage.TableDailySummary

	body, err := c.call(ctx, op, func() ([]byte, error) {
		body, _, err := c.rest().From(storage.TableDailySummary).
			Select("*", "", false).
			Eq("summary_date", date).
			Execute()
		return body, err
	})
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows[domain.DailySummary](body)
	if err != nil {
		return nil, storage.Upstream(op, fmt.Errorf("failed to parse rows: %w", err))
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound{Resource: storage.TableDailySummary, ID: date}
	}
	return &rows[0], nil
}

// Close is a no-op; postgrest-go shares the default transport.
func (c *Client) Close() error {
	return nil
}

// Verify interface compliance
var _ storage.Store = (*Client)(nil)
