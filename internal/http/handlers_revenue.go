package http

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/ardiutama/Piutang/internal/core"
	applog "github.com/ardiutama/Piutang/internal/log"
)

func (s *Server) handleCreateRevenue(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.logger.ErrorContext(r.Context(), "Parse form error", applog.FieldError, err.Error(), applog.FieldPath, r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Malformed request</div>`))
		return
	}

	desc := sanitizeInput(r.Form.Get("description"))

	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		writeErrorDiv(w, err, "Invalid amount")
		return
	}
	date, err := core.ParseDate(r.Form.Get("date"))
	if err != nil {
		writeErrorDiv(w, err, "Invalid date")
		return
	}

	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	rev, err := st.AddRevenue(r.Context(), desc, amount, date)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Revenue create error",
			applog.FieldError, err.Error(),
			applog.FieldOperation, applog.OpCreate)
		writeErrorDiv(w, err, "Could not save the revenue: "+err.Error())
		return
	}

	w.Header().Set("HX-Trigger", `{"records:changed": {"entity": "revenue"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Revenue recorded: ` +
		template.HTMLEscapeString(rev.Description) +
		` — ` + template.HTMLEscapeString(rev.Amount.Format()) + `</div>`))
}

func (s *Server) handleUpdateRevenue(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Malformed request</div>`))
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	desc := sanitizeInput(r.Form.Get("description"))

	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		writeErrorDiv(w, err, "Invalid amount")
		return
	}
	date, err := core.ParseDate(r.Form.Get("date"))
	if err != nil {
		writeErrorDiv(w, err, "Invalid date")
		return
	}

	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	rev, err := st.UpdateRevenue(r.Context(), id, desc, amount, date)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Revenue update error",
			applog.FieldError, err.Error(),
			applog.FieldRecordID, id,
			applog.FieldOperation, applog.OpUpdate)
		writeErrorDiv(w, err, "Could not update the revenue: "+err.Error())
		return
	}

	w.Header().Set("HX-Trigger", `{"records:changed": {"entity": "revenue"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Revenue updated: ` +
		template.HTMLEscapeString(rev.Description) + `</div>`))
}

func (s *Server) handleDeleteRevenue(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Malformed request</div>`))
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	if err := st.DeleteRevenue(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(), "Revenue delete error",
			applog.FieldError, err.Error(),
			applog.FieldRecordID, id,
			applog.FieldOperation, applog.OpDelete)
		writeErrorDiv(w, err, "Could not delete the revenue: "+err.Error())
		return
	}

	w.Header().Set("HX-Trigger", `{"records:changed": {"entity": "revenue"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Revenue deleted</div>`))
}

// handleRevenuesTable renders the revenues table partial newest first.
func (s *Server) handleRevenuesTable(w http.ResponseWriter, r *http.Request) {
	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	view := s.viewFor(st)

	type row struct {
		ID          string
		Description string
		Amount      string
		Date        string
	}
	data := struct {
		Rows  []row
		Total string
	}{Total: view.RevenueSummary.Total.Format()}

	for _, rev := range view.Revenues {
		data.Rows = append(data.Rows, row{
			ID:          rev.ID,
			Description: rev.Description,
			Amount:      rev.Amount.Format(),
			Date:        rev.Date.String(),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="revenues"><div class="placeholder">Total: ` +
			template.HTMLEscapeString(view.RevenueSummary.Total.Format()) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "revenues.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error",
			applog.FieldError, err.Error(), "template", "revenues.html")
		_, _ = w.Write([]byte(`<section id="revenues"><div class="placeholder">Error rendering revenues</div></section>`))
	}
}
