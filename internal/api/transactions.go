package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/sredstva/internal/ledger"
	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

const defaultListLimit = 100

// TransactionsHandler records and lists asset movements.
type TransactionsHandler struct {
	DB     *sql.DB
	Ledger *ledger.Ledger
}

// Create handles POST /api/transactions. The body is a ledger.Request.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.Request
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Ledger.Create(r.Context(), actor(r.Context()), req)
	if err != nil {
		ledgerError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, t)
}

// Confirm handles POST /api/transactions/{id}/confirm.
func (h *TransactionsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.Ledger.Confirm(r.Context(), actor(r.Context()), id)
	if err != nil {
		ledgerError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// Cancel handles POST /api/transactions/{id}/cancel.
func (h *TransactionsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.Ledger.Cancel(r.Context(), actor(r.Context()), id)
	if err != nil {
		ledgerError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, t)
}

// List handles GET /api/transactions?type=&status=&device_id=&user_id=&limit=.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.TransactionFilter{
		Type:   model.TransactionType(q.Get("type")),
		Status: model.TransactionStatus(q.Get("status")),
		Limit:  defaultListLimit,
	}
	if f.Type != "" && !f.Type.Valid() {
		jsonError(w, http.StatusBadRequest, "unknown transaction type")
		return
	}

	var ok bool
	if f.DeviceID, ok = queryID(r, "device_id"); !ok {
		jsonError(w, http.StatusBadRequest, "invalid device_id")
		return
	}
	if f.UserID, ok = queryID(r, "user_id"); !ok {
		jsonError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	transactions, err := store.ListTransactions(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list transactions", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(transactions))
}

// Get handles GET /api/transactions/{id}.
func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := store.GetTransaction(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get transaction", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get transaction")
		return
	}
	if t == nil {
		jsonError(w, http.StatusNotFound, "transaction not found")
		return
	}
	jsonResponse(w, http.StatusOK, t)
}
