package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/message"

	"tracker/internal/analytics"
	"tracker/internal/core"
)

var errInvalidID = errors.New("invalid expense id")

// formatDollars renders an amount with the printer's digit grouping and
// decimal separator, e.g. "$1,234.50" for English.
func formatDollars(p *message.Printer, m core.Money) string {
	sign := ""
	if m.Cents < 0 {
		sign = "-"
		m.Cents = -m.Cents
	}
	return p.Sprintf("%s$%.2f", sign, m.Dollars())
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// parseID reads the {id} path value. Ids are positive integers.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// listParams reads the category filter and sort key. An empty filter means all
// categories; an empty sort key means newest first.
func listParams(q url.Values) (string, analytics.SortKey, error) {
	filter := sanitizeInput(q.Get("category"))
	if filter == "" {
		filter = analytics.AllCategories
	}
	key, err := analytics.ParseSortKey(q.Get("sort"))
	if err != nil {
		return filter, analytics.SortDate, err
	}
	return filter, key, nil
}

// listQuery rebuilds the dashboard query string, omitting defaults.
func listQuery(filter string, key analytics.SortKey) string {
	q := url.Values{}
	if filter != "" && filter != analytics.AllCategories {
		q.Set("category", filter)
	}
	if key != "" && key != analytics.SortDate {
		q.Set("sort", string(key))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeAPIError maps service errors to status codes. Validation failures
// carry the rejected field.
func writeAPIError(w http.ResponseWriter, err error) {
	if field, ok := core.FieldOf(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: err.Error(), Field: field})
		return
	}
	switch {
	case errors.Is(err, errInvalidID):
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error(), Field: "id"})
	case errors.Is(err, analytics.ErrUnknownSortKey):
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error(), Field: "sort"})
	default:
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
	}
}
