package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/export"

	"github.com/gorilla/mux"
)

func (h *handler) listReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"reports": h.services.Report.Names()})
}

// runReport serves a named report as JSON, or as a workbook with ?format=xlsx.
func (h *handler) runReport(w http.ResponseWriter, r *http.Request) {
	name := domain.ReportName(mux.Vars(r)["name"])
	q := r.URL.Query()

	var params domain.ReportParams
	days, err := queryInt(r, "days")
	if err != nil {
		writeError(w, r, err)
		return
	}
	params.Days = days
	if raw := strings.TrimSpace(q.Get("start_date")); raw != "" {
		if params.StartDate, err = domain.ParseDate("start_date", raw); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if raw := strings.TrimSpace(q.Get("end_date")); raw != "" {
		if params.EndDate, err = domain.ParseDate("end_date", raw); err != nil {
			writeError(w, r, err)
			return
		}
	}

	report, err := h.services.Report.Run(r.Context(), name, params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch format := strings.ToLower(strings.TrimSpace(q.Get("format"))); format {
	case "", "json":
		writeJSON(w, http.StatusOK, report)
	case "xlsx":
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, report); err != nil {
			writeError(w, r, fmt.Errorf("export report %s: %w", name, err))
			return
		}
		w.Header().Set("Content-Type", export.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(report)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	default:
		writeError(w, r, domain.NewValidation("format", "unsupported format %q", format))
	}
}
