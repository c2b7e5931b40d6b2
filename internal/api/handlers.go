// Package api serves the device-facing HTTP endpoints.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jwulff/bioreactor-go/internal/derive"
	"github.com/jwulff/bioreactor-go/internal/domain"
	"github.com/jwulff/bioreactor-go/internal/metrics"
	"github.com/jwulff/bioreactor-go/internal/reportdate"
	"github.com/jwulff/bioreactor-go/internal/storage"
	"github.com/jwulff/bioreactor-go/internal/summary"
)

const maxBodyBytes = 1 << 20

// Handlers serves the API endpoints over a shared store and clock.
type Handlers struct {
	Log *slog.Logger
	// Store is nil when credentials are missing; persistence endpoints then
	// answer with a configuration error.
	Store    storage.Store
	Resolver *reportdate.Resolver
	Metrics  *metrics.Metrics

	SamplingIntervalMinutes float64
	ExposeUpstreamErrors    bool
}

// IngestResponse is the success body of both ingestion endpoints.
type IngestResponse[T any] struct {
	Success   bool `json:"success"`
	SavedData []T  `json:"saved_data"`
}

// SummaryResponse is the success body of the daily summary endpoint.
type SummaryResponse struct {
	Success     bool                  `json:"success"`
	SummaryDate string                `json:"summary_date"`
	Data        []domain.DailySummary `json:"data"`
}

// EmptySummaryResponse is returned when there was nothing to summarize.
type EmptySummaryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HelloResponse is the liveness body.
type HelloResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Hello answers GET /api/hello.
func (h *Handlers) Hello(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, HelloResponse{
		Message:   "Hello from bioreactor! Your API is working.",
		Timestamp: h.now().UTC(),
	})
}

// SubmitCO2 stores one CO2 reading with its derived reduction figures.
func (h *Handlers) SubmitCO2(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if h.Store == nil {
		h.configurationError(w, r)
		return
	}

	var sub domain.CO2Submission
	if err := decodeBody(w, r, &sub); err != nil {
		h.invalidJSON(w, r, err)
		return
	}
	reading, err := sub.Reading()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	saved, err := h.Store.InsertCO2Reading(r.Context(), reading)
	if err != nil {
		h.upstreamError(w, r, "Failed to save data", err)
		return
	}

	h.Metrics.ReadingIngested(domain.KindCO2)
	h.logger(r).Info("co2 reading saved",
		"reduced_ppm", reading.ReducedPPMInterval,
		"efficiency_percentage", reading.EfficiencyPercentage)
	writeJSON(w, http.StatusOK, IngestResponse[domain.CO2Reading]{Success: true, SavedData: nonNil(saved)})
}

// SubmitEnvironment stores one environment reading with power and interval energy.
func (h *Handlers) SubmitEnvironment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if h.Store == nil {
		h.configurationError(w, r)
		return
	}

	var sub domain.EnvironmentSubmission
	if err := decodeBody(w, r, &sub); err != nil {
		h.invalidJSON(w, r, err)
		return
	}
	reading, err := sub.Reading(h.samplingInterval())
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	saved, err := h.Store.InsertEnvironmentReading(r.Context(), reading)
	if err != nil {
		h.upstreamError(w, r, "Failed to save data", err)
		return
	}

	h.Metrics.ReadingIngested(domain.KindEnvironment)
	h.logger(r).Info("environment reading saved",
		"power_w", reading.PowerW,
		"energy_wh_interval", reading.EnergyWhInterval)
	writeJSON(w, http.StatusOK, IngestResponse[domain.EnvironmentReading]{Success: true, SavedData: nonNil(saved)})
}

// CreateDailySummary summarizes the previous civil day. GET is accepted so
// that platform cron triggers can call it.
func (h *Handlers) CreateDailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		h.methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		return
	}
	if h.Store == nil {
		h.configurationError(w, r)
		return
	}

	date := h.Resolver.Yesterday()
	h.logger(r).Info("requesting daily summary", "summary_date", date)

	result, err := summary.Run(r.Context(), h.Store, date, h.logger(r))
	if err != nil {
		h.Metrics.SummaryRun(summary.OutcomeFailed)
		h.upstreamError(w, r, "Failed to create daily summary", err)
		return
	}
	h.Metrics.SummaryRun(result.Outcome())

	if result.Empty() {
		writeJSON(w, http.StatusOK, EmptySummaryResponse{Success: true, Message: result.Message()})
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Success: true, SummaryDate: date, Data: nonNil(result.Rows)})
}

// GetDailySummary returns the stored summary for the {date} path variable.
func (h *Handlers) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if h.Store == nil {
		h.configurationError(w, r)
		return
	}

	date := mux.Vars(r)["date"]
	if !reportdate.Valid(date) {
		h.badRequest(w, r, domain.ValidationError{Message: fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", date), Fields: []string{"date"}})
		return
	}

	row, err := h.Store.GetDailySummary(r.Context(), date)
	if storage.IsNotFound(err) {
		h.notFound(w, r, err)
		return
	}
	if err != nil {
		h.upstreamError(w, r, "Failed to load daily summary", err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *Handlers) samplingInterval() float64 {
	if h.SamplingIntervalMinutes > 0 {
		return h.SamplingIntervalMinutes
	}
	return derive.DefaultSamplingIntervalMinutes
}

func (h *Handlers) now() time.Time {
	if h.Resolver != nil && h.Resolver.Now != nil {
		return h.Resolver.Now()
	}
	return time.Now()
}

// decodeBody reads a JSON object into v. An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if body[0] != '{' {
		return errors.New("body is not a JSON object")
	}
	return json.Unmarshal(body, v)
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

// writeJSON encodes v before committing the status so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "status", status, "error", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "Failed to encode response", Code: CodeEncoding})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
