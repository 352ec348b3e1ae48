package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/sredstva/internal/model"
	"github.com/erazemk/sredstva/internal/store"
)

// DevicesHandler handles serialized units and bulk buckets.
type DevicesHandler struct {
	DB *sql.DB
}

type registerDeviceRequest struct {
	ModelID     int64  `json:"model_id"`
	Serial      string `json:"serial"`
	WarehouseID int64  `json:"warehouse_id"`
	Note        string `json:"note"`
}

// List handles GET /api/devices. Filters: model_id, status, serial (substring),
// and at most one of warehouse_id, floor_id, user_id.
func (h *DevicesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.DeviceFilter{
		Status: model.DeviceStatus(q.Get("status")),
		Serial: q.Get("serial"),
	}

	var ok bool
	if f.ModelID, ok = queryID(r, "model_id"); !ok {
		jsonError(w, http.StatusBadRequest, "invalid model_id")
		return
	}

	var located []model.Location
	for _, p := range []struct {
		param string
		at    func(int64) model.Location
	}{
		{"warehouse_id", model.AtWarehouse},
		{"floor_id", model.AtFloor},
		{"user_id", model.HeldBy},
	} {
		id, ok := queryID(r, p.param)
		if !ok {
			jsonError(w, http.StatusBadRequest, "invalid "+p.param)
			return
		}
		if id > 0 {
			located = append(located, p.at(id))
		}
	}
	if len(located) > 1 {
		jsonError(w, http.StatusBadRequest, "filter by one location at a time")
		return
	}
	if len(located) == 1 {
		f.Location = &located[0]
	}

	devices, err := store.ListDevices(r.Context(), h.DB, f)
	if err != nil {
		slog.Error("failed to list devices", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(devices))
}

// Register handles POST /api/devices: a new serialized unit, in stock at a
// warehouse.
func (h *DevicesHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ModelID <= 0 || req.WarehouseID <= 0 || req.Serial == "" {
		jsonError(w, http.StatusBadRequest, "model_id, serial, and warehouse_id required")
		return
	}

	wh, err := store.GetWarehouse(r.Context(), h.DB, req.WarehouseID)
	if err != nil {
		slog.Error("failed to get warehouse", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get warehouse")
		return
	}
	if wh == nil {
		jsonError(w, http.StatusNotFound, "warehouse not found")
		return
	}

	d, err := store.RegisterDevice(r.Context(), h.DB, req.ModelID, req.Serial, req.WarehouseID, req.Note)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("device registered", "user", GetClaims(r.Context()).Username,
		"serial", d.Serial, "model", d.ModelName, "warehouse", wh.Name)
	jsonResponse(w, http.StatusCreated, d)
}

// Get handles GET /api/devices/{id}.
func (h *DevicesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid device id")
		return
	}

	d, err := store.GetDevice(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get device", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get device")
		return
	}
	if d == nil {
		jsonError(w, http.StatusNotFound, "device not found")
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// History handles GET /api/devices/{id}/history.
func (h *DevicesHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid device id")
		return
	}

	history, err := store.GetDeviceHistory(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get device history", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get device history")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(history))
}
