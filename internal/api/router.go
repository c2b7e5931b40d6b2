package api

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// NewRouter wires every route. Verbs are checked inside the handlers so that
// a 405 carries a JSON body. accessLog receives combined-format access lines.
func NewRouter(h *Handlers, accessLog io.Writer) http.Handler {
	r := mux.NewRouter()
	r.Use(requestID(h.Log))

	m := h.Metrics
	r.Handle("/api/submit-co2", m.WrapHandler("submit_co2", http.HandlerFunc(h.SubmitCO2)))
	r.Handle("/api/submit-environment", m.WrapHandler("submit_environment", http.HandlerFunc(h.SubmitEnvironment)))
	r.Handle("/api/create-daily-summary", m.WrapHandler("create_daily_summary", http.HandlerFunc(h.CreateDailySummary)))
	r.Handle("/api/daily-summary/{date}", m.WrapHandler("get_daily_summary", http.HandlerFunc(h.GetDailySummary)))
	r.Handle("/api/hello", m.WrapHandler("hello", http.HandlerFunc(h.Hello)))
	r.Handle("/metrics", m.Handler())

	logged := handlers.LoggingHandler(accessLog, r)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{h.Log}))(logged)
}
