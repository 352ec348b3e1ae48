package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/sredstva/internal/ledger"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorResponse{Error: message})
}

type errorResponse struct {
	Error       string   `json:"error"`
	Reason      string   `json:"reason,omitempty"`
	Identifiers []string `json:"identifiers,omitempty"`
	DeviceID    int64    `json:"device_id,omitempty"`
	Available   *int     `json:"available,omitempty"`
	Requested   int      `json:"requested,omitempty"`
}

// ledgerError maps a ledger rejection to a status code and writes it with
// whatever details the error carries.
func ledgerError(w http.ResponseWriter, err error) {
	reason := ledger.Reason(err)

	status := http.StatusConflict
	switch {
	case reason == "internal":
		slog.Error("ledger failure", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	case errors.Is(err, ledger.ErrDeviceNotFound),
		errors.Is(err, ledger.ErrLocationNotFound),
		errors.Is(err, ledger.ErrUserNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidRequest):
		status = http.StatusBadRequest
	}

	resp := errorResponse{Error: err.Error(), Reason: reason}
	var lineErr *ledger.LineError
	if errors.As(err, &lineErr) {
		resp.Identifiers = lineErr.Identifiers
	}
	var stockErr *ledger.StockError
	if errors.As(err, &stockErr) {
		resp.DeviceID = stockErr.DeviceID
		resp.Available = &stockErr.Available
		resp.Requested = stockErr.Requested
	}
	jsonResponse(w, status, resp)
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// queryID parses an optional positive integer query parameter. Missing
// parameters are 0.
func queryID(r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	return id, err == nil && id > 0
}

// emptyIfNil keeps list endpoints returning [] instead of null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
