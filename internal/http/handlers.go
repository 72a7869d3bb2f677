package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ardiutama/Piutang/internal/export"
	applog "github.com/ardiutama/Piutang/internal/log"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	view := s.viewFor(st)
	data := struct {
		ReceivableCount int
		RevenueCount    int
		Outstanding     string
	}{
		ReceivableCount: len(view.Receivables),
		RevenueCount:    len(view.Revenues),
		Outstanding:     view.ReceivableSummary.Remaining.Format(),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed",
			applog.FieldError, err.Error(), "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleSummary renders the totals partial for both record types.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	view := s.viewFor(st)
	data := struct {
		ReceivableTotal string
		Outstanding     string
		RevenueTotal    string
	}{
		ReceivableTotal: view.ReceivableSummary.Total.Format(),
		Outstanding:     view.ReceivableSummary.Remaining.Format(),
		RevenueTotal:    view.RevenueSummary.Total.Format(),
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="summary"><div class="placeholder">Outstanding: ` + data.Outstanding + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "summary.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error",
			applog.FieldError, err.Error(), "template", "summary.html")
		_, _ = w.Write([]byte(`<section id="summary"><div class="placeholder">Error rendering summary</div></section>`))
	}
}

// handleExport streams the current records as an xlsx workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	view := s.viewFor(st)
	wb := export.NewWorkbook(view.Receivables, view.Revenues)

	filename := fmt.Sprintf("piutang-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := wb.WriteTo(w); err != nil {
		s.logger.ErrorContext(r.Context(), "Export error",
			applog.FieldError, err.Error(),
			applog.FieldOperation, applog.OpExport)
	}
}
