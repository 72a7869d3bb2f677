package http

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/ardiutama/Piutang/internal/core"
	applog "github.com/ardiutama/Piutang/internal/log"
)

func (s *Server) handleCreateReceivable(w http.ResponseWriter, r *http.Request) {
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

	total, err := core.ParseAmount(r.Form.Get("total"))
	if err != nil {
		writeErrorDiv(w, err, "Invalid total amount")
		return
	}
	due, err := core.ParseDate(r.Form.Get("due_date"))
	if err != nil {
		writeErrorDiv(w, err, "Invalid due date")
		return
	}

	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	rec, err := st.AddReceivable(r.Context(), desc, total, due)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Receivable create error",
			applog.FieldError, err.Error(),
			applog.FieldOperation, applog.OpCreate)
		writeErrorDiv(w, err, "Could not save the receivable: "+err.Error())
		return
	}

	w.Header().Set("HX-Trigger", `{"records:changed": {"entity": "receivable"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Receivable recorded: ` +
		template.HTMLEscapeString(rec.Description) +
		` — ` + template.HTMLEscapeString(rec.Total.Format()) + `</div>`))
}

func (s *Server) handleUpdateReceivable(w http.ResponseWriter, r *http.Request) {
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

	total, err := core.ParseAmount(r.Form.Get("total"))
	if err != nil {
		writeErrorDiv(w, err, "Invalid total amount")
		return
	}
	due, err := core.ParseDate(r.Form.Get("due_date"))
	if err != nil {
		writeErrorDiv(w, err, "Invalid due date")
		return
	}

	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	rec, err := st.UpdateReceivable(r.Context(), id, desc, total, due)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Receivable update error",
			applog.FieldError, err.Error(),
			applog.FieldRecordID, id,
			applog.FieldOperation, applog.OpUpdate)
		writeErrorDiv(w, err, "Could not update the receivable: "+err.Error())
		return
	}

	w.Header().Set("HX-Trigger", `{"records:changed": {"entity": "receivable"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Receivable updated: ` +
		template.HTMLEscapeString(rec.Description) + `</div>`))
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Malformed request</div>`))
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	amount, err := core.ParseAmount(r.Form.Get("amount"))
	if err != nil {
		writeErrorDiv(w, err, "Invalid payment amount")
		return
	}

	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	rec, err := st.RecordPayment(r.Context(), id, amount)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Payment record error",
			applog.FieldError, err.Error(),
			applog.FieldRecordID, id,
			applog.FieldOperation, applog.OpPay)
		writeErrorDiv(w, err, "Could not record the payment: "+err.Error())
		return
	}

	w.Header().Set("HX-Trigger", `{"records:changed": {"entity": "receivable"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Payment recorded, remaining ` +
		template.HTMLEscapeString(rec.Remaining().Format()) + `</div>`))
}

func (s *Server) handleDeleteReceivable(w http.ResponseWriter, r *http.Request) {
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
	if err := st.DeleteReceivable(r.Context(), id); err != nil {
		s.logger.ErrorContext(r.Context(), "Receivable delete error",
			applog.FieldError, err.Error(),
			applog.FieldRecordID, id,
			applog.FieldOperation, applog.OpDelete)
		writeErrorDiv(w, err, "Could not delete the receivable: "+err.Error())
		return
	}

	w.Header().Set("HX-Trigger", `{"records:changed": {"entity": "receivable"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Receivable deleted</div>`))
}

// handleReceivablesTable renders the receivables table partial sorted
// for display.
func (s *Server) handleReceivablesTable(w http.ResponseWriter, r *http.Request) {
	st, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	view := s.viewFor(st)

	type row struct {
		ID          string
		Description string
		Total       string
		Paid        string
		Remaining   string
		DueDate     string
		Settled     bool
	}
	data := struct {
		Rows  []row
		Total string
	}{Total: view.ReceivableSummary.Total.Format()}

	for _, rec := range view.Receivables {
		data.Rows = append(data.Rows, row{
			ID:          rec.ID,
			Description: rec.Description,
			Total:       rec.Total.Format(),
			Paid:        rec.Paid.Format(),
			Remaining:   rec.Remaining().Format(),
			DueDate:     rec.DueDate.String(),
			Settled:     rec.IsPaid(),
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="receivables"><div class="placeholder">Outstanding: ` +
			template.HTMLEscapeString(view.ReceivableSummary.Remaining.Format()) + `</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "receivables.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error",
			applog.FieldError, err.Error(), "template", "receivables.html")
		_, _ = w.Write([]byte(`<section id="receivables"><div class="placeholder">Error rendering receivables</div></section>`))
	}
}
