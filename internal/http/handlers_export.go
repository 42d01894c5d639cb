package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/http/respond"
	"fintrack/internal/services"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	format := services.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = services.ExportCSV
	}
	if format != services.ExportCSV && format != services.ExportJSON {
		respond.Error(w, http.StatusBadRequest, "invalid format, want csv or json")
		return
	}

	filter, err := transactionFilterFromQuery(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	// Buffer the export so errors can still produce a clean response.
	var buf bytes.Buffer
	if err := s.deps.Exports.Export(r.Context(), principal.UserID, format, filter, &buf); err != nil {
		writeDomainError(w, err)
		return
	}

	if format == services.ExportCSV {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	filename := services.ExportFilename(format, time.Now())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
