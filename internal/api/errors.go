package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jwulff/bioreactor-go/internal/domain"
	"github.com/jwulff/bioreactor-go/internal/storage"
)

// Stable error codes returned to callers.
const (
	CodeValidation       = "validation_error"
	CodeInvalidJSON      = "invalid_json"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeConfiguration    = "configuration_error"
	CodeUpstream         = "upstream_error"
	CodeNotFound         = "not_found"
	CodeEncoding         = "encoding_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
	Detail string   `json:"detail,omitempty"`
}

func (h *Handlers) methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	h.logger(r).Warn("method not allowed", "method", r.Method, "allowed", allowed)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method Not Allowed", Code: CodeMethodNotAllowed})
}

func (h *Handlers) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	h.logger(r).Warn("bad request", "error", err)

	resp := ErrorResponse{Error: err.Error(), Code: CodeValidation}
	var ve domain.ValidationError
	if errors.As(err, &ve) {
		resp.Error = ve.Message
		resp.Fields = ve.Fields
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

func (h *Handlers) invalidJSON(w http.ResponseWriter, r *http.Request, err error) {
	h.logger(r).Warn("invalid json body", "error", err)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Request body must be a JSON object", Code: CodeInvalidJSON})
}

func (h *Handlers) configurationError(w http.ResponseWriter, r *http.Request) {
	h.logger(r).Error("store not configured", "hint", "set SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Server configuration error", Code: CodeConfiguration})
}

// upstreamError logs err in full and answers 500 with msg. The store's own
// message is only echoed when ExposeUpstreamErrors is set.
func (h *Handlers) upstreamError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger(r).Error("upstream error", "error", err)

	resp := ErrorResponse{Error: msg, Code: CodeUpstream}
	if h.ExposeUpstreamErrors {
		resp.Detail = storage.UpstreamMessage(err)
	}
	writeJSON(w, http.StatusInternalServerError, resp)
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request, err error) {
	h.logger(r).Info("not found", "error", err)
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: CodeNotFound})
}
