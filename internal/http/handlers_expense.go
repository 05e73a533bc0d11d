package http

import (
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"

	"tracker/internal/analytics"
	"tracker/internal/core"
	applog "tracker/internal/log"
)

// returnTarget reads the dashboard view a form post came from.
func returnTarget(p *RequestBodyParser) (string, analytics.SortKey) {
	filter := p.Get("return_category")
	if filter == "" {
		filter = analytics.AllCategories
	}
	key, err := analytics.ParseSortKey(p.Get("return_sort"))
	if err != nil {
		key = analytics.SortDate
	}
	return filter, key
}

// handleCreateExpense accepts the dashboard form. Browsers without HTMX get
// a redirect back to the dashboard; HTMX requests get triggers only.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	in, p, err := ParseExpenseInput(r)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Parse form error",
			applog.FieldError, err, applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}
	filter, key := returnTarget(p)

	e, err := s.svc.Add(r.Context(), in)
	if err != nil {
		atomic.AddInt64(&s.appMetrics.validationFailures, 1)
		field, _ := core.FieldOf(err)
		s.logger.InfoContext(r.Context(), "Expense rejected",
			applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeValidation, "field", field)

		if isHTMX(r) {
			FieldError(field, err.Error()).
				Header("HX-Retarget", "#form-errors").
				Header("HX-Reswap", "innerHTML").
				Write(w)
			return
		}
		data := s.dashboard(r, filter, key)
		data.Form = formView{
			Description: in.Description,
			Amount:      p.Get("amount"),
			Category:    in.Category,
			Date:        in.Date,
		}
		data.Error = err.Error()
		data.ErrorField = field
		s.render(w, r, http.StatusUnprocessableEntity, "index.html", data)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesAdded, 1)

	if isHTMX(r) {
		NewHTMXResponse().
			TriggerExpenseCreated(e.ID).
			TriggerFormReset().
			TriggerLedgerRefresh(s.svc.Version()).
			TriggerSuccessNotification(fmt.Sprintf("Expense recorded: %s (%s)", e.Description, formatDollars(s.printer, e.Amount))).
			Write(w)
		return
	}
	http.Redirect(w, r, listQuery(filter, key), http.StatusSeeOther)
}

// handleDeleteExpense removes an expense from the dashboard. Unknown ids are
// treated as already deleted.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError("Invalid expense id").Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	_ = p.Parse()
	filter, key := returnTarget(p)

	if s.svc.Remove(r.Context(), id) {
		atomic.AddInt64(&s.appMetrics.expensesRemoved, 1)
	}

	if isHTMX(r) {
		NewHTMXResponse().
			TriggerExpenseDeleted(id).
			TriggerLedgerRefresh(s.svc.Version()).
			TriggerSuccessNotification("Expense deleted").
			Write(w)
		return
	}
	http.Redirect(w, r, listQuery(filter, key), http.StatusSeeOther)
}

type expenseList struct {
	Expenses []core.Expense `json:"expenses"`
	Count    int            `json:"count"`
}

func (s *Server) handleAPIListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, key, err := listParams(r.URL.Query())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	items := s.svc.Query(filter, key)
	writeJSON(w, http.StatusOK, expenseList{Expenses: items, Count: len(items)})
}

func (s *Server) handleAPIGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	e, ok := s.svc.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "expense " + strconv.FormatInt(id, 10) + " not found"})
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleAPICreateExpense(w http.ResponseWriter, r *http.Request) {
	in, _, err := ParseExpenseInput(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	e, err := s.svc.Add(r.Context(), in)
	if err != nil {
		atomic.AddInt64(&s.appMetrics.validationFailures, 1)
		writeAPIError(w, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesAdded, 1)
	w.Header().Set("Location", "/api/expenses/"+strconv.FormatInt(e.ID, 10))
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleAPIDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	removed := s.svc.Remove(r.Context(), id)
	if removed {
		atomic.AddInt64(&s.appMetrics.expensesRemoved, 1)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Summary(r.Context()))
}

func (s *Server) handleAPICategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Categories())
}
