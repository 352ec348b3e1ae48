package api

import (
	"bytes"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/sredstva/internal/report"
)

// ReportsHandler serves downloadable reports.
type ReportsHandler struct {
	DB *sql.DB
}

// Stock handles GET /api/reports/stock.xlsx.
func (h *ReportsHandler) Stock(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteStock(r.Context(), h.DB, &buf); err != nil {
		slog.Error("failed to build stock report", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	name := fmt.Sprintf("stock_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Write(buf.Bytes())
}
