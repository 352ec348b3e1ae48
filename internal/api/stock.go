package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

// StockHandler handles bulk stock pools.
type StockHandler struct {
	DB *sql.DB
}

type intakeRequest struct {
	Pool       model.PoolKind `json:"pool"`
	LocationID int64          `json:"location_id"`
	ModelID    int64          `json:"model_id"`
	Quantity   int            `json:"quantity"`
}

// List handles GET /api/stock?pool=warehouse|floor|user&location_id=&device_id=.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	f := store.StockFilter{Pool: model.PoolKind(r.URL.Query().Get("pool"))}
	if f.Pool == "" {
		f.Pool = model.PoolWarehouse
	}
	if !f.Pool.Valid() {
		jsonError(w, http.StatusBadRequest, "pool must be warehouse, floor, or user")
		return
	}

	var ok bool
	if f.LocationID, ok = queryID(r, "location_id"); !ok {
		jsonError(w, http.StatusBadRequest, "invalid location_id")
		return
	}
	if f.DeviceID, ok = queryID(r, "device_id"); !ok {
		jsonError(w, http.StatusBadRequest, "invalid device_id")
		return
	}

	entries, err := store.ListStock(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list stock", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list stock")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(entries))
}

// Intake handles POST /api/stock/intake: new bulk stock arriving at a
// warehouse or floor.
func (h *StockHandler) Intake(w http.ResponseWriter, r *http.Request) {
	var req intakeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Pool != model.PoolWarehouse && req.Pool != model.PoolFloor {
		jsonError(w, http.StatusBadRequest, "pool must be warehouse or floor")
		return
	}
	if req.LocationID <= 0 || req.ModelID <= 0 || req.Quantity <= 0 {
		jsonError(w, http.StatusBadRequest, "location_id, model_id, and a positive quantity required")
		return
	}

	bulk, err := store.GetBulkDevice(r.Context(), h.DB, req.ModelID)
	if err != nil {
		slog.Error("failed to get bulk device", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bulk == nil {
		jsonError(w, http.StatusNotFound, "no bulk stock for this model")
		return
	}

	if err := store.AddStock(r.Context(), h.DB, req.Pool, bulk.ID, req.LocationID, req.Quantity); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	qty, err := store.GetStock(r.Context(), h.DB, req.Pool, bulk.ID, req.LocationID)
	if err != nil {
		slog.Error("failed to read stock", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("stock added", "user", GetClaims(r.Context()).Username,
		"model", bulk.ModelName, "pool", req.Pool, "location_id", req.LocationID, "quantity", req.Quantity)
	jsonResponse(w, http.StatusOK, model.StockEntry{
		Pool:       req.Pool,
		DeviceID:   bulk.ID,
		LocationID: req.LocationID,
		Quantity:   qty,
		ModelName:  bulk.ModelName,
	})
}
