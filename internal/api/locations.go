package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/sredstva/internal/store"
)

// LocationsHandler handles sites, warehouses and floors.
type LocationsHandler struct {
	DB *sql.DB
}

type createSiteRequest struct {
	Name string `json:"name"`
}

type createPlaceRequest struct {
	SiteID int64  `json:"site_id"`
	Name   string `json:"name"`
}

// ListSites handles GET /api/sites.
func (h *LocationsHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := store.ListSites(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list sites", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list sites")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(sites))
}

// CreateSite handles POST /api/sites.
func (h *LocationsHandler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	site, err := store.CreateSite(r.Context(), h.DB, req.Name)
	if err != nil {
		jsonError(w, http.StatusConflict, "site already exists")
		return
	}

	slog.Info("site created", "user", GetClaims(r.Context()).Username, "site", site.Name)
	jsonResponse(w, http.StatusCreated, site)
}

// ListWarehouses handles GET /api/warehouses?site_id=.
func (h *LocationsHandler) ListWarehouses(w http.ResponseWriter, r *http.Request) {
	siteID, ok := queryID(r, "site_id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid site_id")
		return
	}

	warehouses, err := store.ListWarehouses(r.Context(), h.DB, siteID)
	if err != nil {
		slog.Error("failed to list warehouses", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list warehouses")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(warehouses))
}

// CreateWarehouse handles POST /api/warehouses.
func (h *LocationsHandler) CreateWarehouse(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePlace(w, r)
	if !ok {
		return
	}

	wh, err := store.CreateWarehouse(r.Context(), h.DB, req.SiteID, req.Name)
	if err != nil {
		jsonError(w, http.StatusConflict, "warehouse already exists on this site")
		return
	}

	slog.Info("warehouse created", "user", GetClaims(r.Context()).Username, "warehouse", wh.Name, "site_id", wh.SiteID)
	jsonResponse(w, http.StatusCreated, wh)
}

// ListFloors handles GET /api/floors?site_id=.
func (h *LocationsHandler) ListFloors(w http.ResponseWriter, r *http.Request) {
	siteID, ok := queryID(r, "site_id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid site_id")
		return
	}

	floors, err := store.ListFloors(r.Context(), h.DB, siteID)
	if err != nil {
		slog.Error("failed to list floors", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list floors")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(floors))
}

// CreateFloor handles POST /api/floors.
func (h *LocationsHandler) CreateFloor(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePlace(w, r)
	if !ok {
		return
	}

	floor, err := store.CreateFloor(r.Context(), h.DB, req.SiteID, req.Name)
	if err != nil {
		jsonError(w, http.StatusConflict, "floor already exists on this site")
		return
	}

	slog.Info("floor created", "user", GetClaims(r.Context()).Username, "floor", floor.Name, "site_id", floor.SiteID)
	jsonResponse(w, http.StatusCreated, floor)
}

// decodePlace reads a warehouse or floor request and checks its site exists.
func (h *LocationsHandler) decodePlace(w http.ResponseWriter, r *http.Request) (createPlaceRequest, bool) {
	var req createPlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.SiteID <= 0 {
		jsonError(w, http.StatusBadRequest, "site_id and name required")
		return req, false
	}

	site, err := store.GetSite(r.Context(), h.DB, req.SiteID)
	if err != nil {
		slog.Error("failed to get site", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return req, false
	}
	if site == nil {
		jsonError(w, http.StatusNotFound, "site not found")
		return req, false
	}
	return req, true
}
