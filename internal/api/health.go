package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/sredstva/internal/db"
)

// HealthHandler reports whether the database answers and which schema
// version it is on.
func HealthHandler(database *sql.DB) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := database.PingContext(ctx); err != nil {
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		version, err := db.Version(ctx, database)
		if err != nil {
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "schema_version": version})
	})
}
