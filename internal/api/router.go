package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/sredstva/internal/ledger"
	"github.com/erazemk/sredstva/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, l *ledger.Ledger) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	locationsHandler := &LocationsHandler{DB: db}
	catalogHandler := &CatalogHandler{DB: db}
	devicesHandler := &DevicesHandler{DB: db}
	stockHandler := &StockHandler{DB: db}
	transactionsHandler := &TransactionsHandler{DB: db, Ledger: l}
	reportsHandler := &ReportsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	manager := func(h http.HandlerFunc) http.Handler { return authMW(requireManager(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))

	// Users (admin only), except holdings which managers need for returns.
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))
	mux.Handle("GET /api/users/{id}/holdings", manager(usersHandler.Holdings))

	// Locations and catalog: read (all roles), write (manager+).
	mux.Handle("GET /api/sites", authed(locationsHandler.ListSites))
	mux.Handle("POST /api/sites", manager(locationsHandler.CreateSite))
	mux.Handle("GET /api/warehouses", authed(locationsHandler.ListWarehouses))
	mux.Handle("POST /api/warehouses", manager(locationsHandler.CreateWarehouse))
	mux.Handle("GET /api/floors", authed(locationsHandler.ListFloors))
	mux.Handle("POST /api/floors", manager(locationsHandler.CreateFloor))

	mux.Handle("GET /api/device-types", authed(catalogHandler.ListDeviceTypes))
	mux.Handle("POST /api/device-types", manager(catalogHandler.CreateDeviceType))
	mux.Handle("GET /api/models", authed(catalogHandler.ListModels))
	mux.Handle("POST /api/models", manager(catalogHandler.CreateModel))
	mux.Handle("PUT /api/models/{id}/photo", manager(catalogHandler.UploadPhoto))
	mux.Handle("GET /api/models/{id}/photo", authed(catalogHandler.GetPhoto))

	// Devices and stock.
	mux.Handle("GET /api/devices", authed(devicesHandler.List))
	mux.Handle("POST /api/devices", manager(devicesHandler.Register))
	mux.Handle("GET /api/devices/{id}", authed(devicesHandler.Get))
	mux.Handle("GET /api/devices/{id}/history", authed(devicesHandler.History))
	mux.Handle("GET /api/stock", authed(stockHandler.List))
	mux.Handle("POST /api/stock/intake", manager(stockHandler.Intake))

	// Ledger: read (all roles), record (manager+).
	mux.Handle("GET /api/transactions", authed(transactionsHandler.List))
	mux.Handle("POST /api/transactions", manager(transactionsHandler.Create))
	mux.Handle("GET /api/transactions/{id}", authed(transactionsHandler.Get))
	mux.Handle("POST /api/transactions/{id}/confirm", manager(transactionsHandler.Confirm))
	mux.Handle("POST /api/transactions/{id}/cancel", manager(transactionsHandler.Cancel))

	mux.Handle("GET /api/reports/stock.xlsx", manager(reportsHandler.Stock))

	return mux
}
