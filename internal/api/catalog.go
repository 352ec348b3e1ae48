package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/sredstva/internal/imaging"
	"github.com/erazemk/sredstva/internal/store"
)

// CatalogHandler handles device types, models and model photos.
type CatalogHandler struct {
	DB *sql.DB
}

type createDeviceTypeRequest struct {
	Name      string `json:"name"`
	HasSerial bool   `json:"has_serial"`
}

type createModelRequest struct {
	DeviceTypeID int64  `json:"device_type_id"`
	Name         string `json:"name"`
}

// ListDeviceTypes handles GET /api/device-types.
func (h *CatalogHandler) ListDeviceTypes(w http.ResponseWriter, r *http.Request) {
	types, err := store.ListDeviceTypes(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list device types", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list device types")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(types))
}

// CreateDeviceType handles POST /api/device-types.
func (h *CatalogHandler) CreateDeviceType(w http.ResponseWriter, r *http.Request) {
	var req createDeviceTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	dt, err := store.CreateDeviceType(r.Context(), h.DB, req.Name, req.HasSerial)
	if err != nil {
		jsonError(w, http.StatusConflict, "device type already exists")
		return
	}

	slog.Info("device type created", "user", GetClaims(r.Context()).Username, "type", dt.Name, "has_serial", dt.HasSerial)
	jsonResponse(w, http.StatusCreated, dt)
}

// ListModels handles GET /api/models?device_type_id=.
func (h *CatalogHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	typeID, ok := queryID(r, "device_type_id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid device_type_id")
		return
	}

	models, err := store.ListModels(r.Context(), h.DB, typeID)
	if err != nil {
		slog.Error("failed to list models", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list models")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(models))
}

// CreateModel handles POST /api/models. Models of non-serialized types get
// their bulk stock bucket here.
func (h *CatalogHandler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var req createModelRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.DeviceTypeID <= 0 {
		jsonError(w, http.StatusBadRequest, "device_type_id and name required")
		return
	}

	dt, err := store.GetDeviceType(r.Context(), h.DB, req.DeviceTypeID)
	if err != nil || dt == nil {
		jsonError(w, http.StatusNotFound, "device type not found")
		return
	}

	m, err := store.CreateModel(r.Context(), h.DB, req.DeviceTypeID, req.Name)
	if err != nil {
		jsonError(w, http.StatusConflict, "model already exists for this device type")
		return
	}

	slog.Info("model created", "user", GetClaims(r.Context()).Username, "model", m.Name, "type", dt.Name)
	jsonResponse(w, http.StatusCreated, m)
}

// UploadPhoto handles PUT /api/models/{id}/photo (multipart field "photo").
func (h *CatalogHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid model id")
		return
	}

	m, err := store.GetModel(r.Context(), h.DB, id)
	if err != nil || m == nil {
		jsonError(w, http.StatusNotFound, "model not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "photo file required")
		return
	}
	defer file.Close()

	photo, err := imaging.ProcessPhoto(file)
	if errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetModelImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save model photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save photo")
		return
	}

	slog.Info("model photo uploaded", "user", GetClaims(r.Context()).Username, "model", m.Name, "bytes", len(photo.Data))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "photo uploaded"})
}

// GetPhoto handles GET /api/models/{id}/photo.
func (h *CatalogHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid model id")
		return
	}

	data, mime, err := store.GetModelImage(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get model photo", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get photo")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no photo")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
