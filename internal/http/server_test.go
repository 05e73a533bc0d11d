package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tracker/internal/core"
	"tracker/internal/services"
)

func fixedNow() time.Time {
	return time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T, opts Options) (*Server, *services.LedgerService) {
	t.Helper()
	svc := services.NewLedgerService(core.DefaultCategories(), services.Options{Clock: fixedNow})
	opts.Clock = fixedNow
	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	srv := NewServer(":0", svc, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, svc
}

func do(t *testing.T, srv *Server, method, target, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

const formType = "application/x-www-form-urlencoded"

func TestIndexAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Smart Expense Tracker",
		"Total Transactions",
		"No expenses found. Add your first expense!",
		`value="2025-10-20"`,
		"All Categories",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("request id header missing")
	}

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/static/app.css"} {
		rr := do(t, srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	if rr := do(t, srv, http.MethodGet, "/nope", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path status=%d", rr.Code)
	}
}

func TestCreateExpenseValidationAndSuccess(t *testing.T) {
	srv, svc := newTestServer(t, Options{})

	// Wrong method
	if rr := do(t, srv, http.MethodGet, "/expenses", "", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	// Invalid amount re-renders the form with the submitted values
	rr := do(t, srv, http.MethodPost, "/expenses", formType, "description=Lunch&amount=abc&category=Food&date=2025-10-20")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `data-field="amount"`) || !strings.Contains(rr.Body.String(), `value="Lunch"`) {
		t.Fatalf("form not re-rendered with error: %s", rr.Body.String())
	}

	// Missing description
	rr = do(t, srv, http.MethodPost, "/expenses", formType, "description=&amount=1.23&category=Food&date=2025-10-20")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if svc.Version() != 0 {
		t.Fatalf("rejected submissions must not change the ledger")
	}

	// Success redirects back to the view the form came from
	rr = do(t, srv, http.MethodPost, "/expenses", formType,
		"description=Lunch&amount=25.50&category=Food&date=2025-10-20&return_category=Food&return_sort=amount")
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/?category=Food&sort=amount" {
		t.Fatalf("Location = %q", loc)
	}

	rr = do(t, srv, http.MethodGet, "/?category=Food&sort=amount", "", "")
	body := rr.Body.String()
	for _, want := range []string{"Lunch", "$25.50", "/expenses/1/delete"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestCreateExpenseHTMX(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/expenses", formType,
		"description=Uber&amount=15&category=Transport&date=2025-10-19", "HX-Request", "true")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	trigger := rr.Header().Get("HX-Trigger")
	for _, want := range []string{`"expense:created":{"id":1}`, `"form:reset"`, `"ledger:refresh":{"version":1}`} {
		if !strings.Contains(trigger, want) {
			t.Errorf("HX-Trigger missing %q: %s", want, trigger)
		}
	}

	rr = do(t, srv, http.MethodPost, "/expenses", formType,
		"description=Uber&amount=15&category=Rockets&date=2025-10-19", "HX-Request", "true")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if rr.Header().Get("HX-Retarget") != "#form-errors" || !strings.Contains(rr.Body.String(), `data-field="category"`) {
		t.Fatalf("unexpected HTMX error response: %v %s", rr.Header(), rr.Body.String())
	}
}

func TestDeleteExpenseForm(t *testing.T) {
	srv, svc := newTestServer(t, Options{})
	if _, err := svc.Add(context.Background(), services.AddInput{Description: "Lunch", Amount: "25.50", Category: "Food", Date: "2025-10-20"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	rr := do(t, srv, http.MethodPost, "/expenses/1/delete", formType, "return_sort=name")
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/?sort=name" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if len(svc.Snapshot()) != 0 {
		t.Fatalf("expense not removed")
	}

	// Unknown ids are already gone
	if rr := do(t, srv, http.MethodPost, "/expenses/1/delete", formType, ""); rr.Code != http.StatusSeeOther {
		t.Fatalf("repeat delete status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, "/expenses/abc/delete", formType, ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed id status=%d", rr.Code)
	}
}

func TestAPI(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	const jsonType = "application/json"

	rr := do(t, srv, http.MethodPost, "/api/expenses", jsonType,
		`{"description":"Lunch","amount":25.5,"category":"Food","date":"2025-10-20"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"amount":25.50`) || rr.Header().Get("Location") != "/api/expenses/1" {
		t.Fatalf("unexpected create response %s", rr.Body.String())
	}
	do(t, srv, http.MethodPost, "/api/expenses", jsonType,
		`{"description":"Uber","amount":"15.00","category":"Transport","date":"2025-10-19"}`)

	rr = do(t, srv, http.MethodPost, "/api/expenses", jsonType,
		`{"description":"Taxi","amount":12,"category":"Rockets","date":"2025-10-19"}`)
	var apiErr apiError
	if rr.Code != http.StatusUnprocessableEntity || json.Unmarshal(rr.Body.Bytes(), &apiErr) != nil || apiErr.Field != "category" {
		t.Fatalf("expected 422 category error, got %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses?sort=amount", "", "")
	var list struct {
		Expenses []core.Expense `json:"expenses"`
		Count    int            `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Count != 2 || list.Expenses[0].Description != "Lunch" || list.Expenses[1].Amount.Cents != 1500 {
		t.Fatalf("unexpected list %+v", list)
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses?category=Transport", "", "")
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil || list.Count != 1 {
		t.Fatalf("filter by category failed: %s", rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/expenses?sort=price", "", "")
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), `"field":"sort"`) {
		t.Fatalf("expected 400 for unknown sort, got %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/summary", "", "")
	var sum core.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Total.Cents != 4050 || sum.MonthToDate.Cents != 4050 || sum.Count != 2 || len(sum.TrailingDays) != 7 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	if rr := do(t, srv, http.MethodGet, "/api/expenses/2", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("get status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/expenses/99", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("missing get status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodDelete, "/api/expenses/1", "", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"removed":true`) {
		t.Fatalf("delete response %d %s", rr.Code, rr.Body.String())
	}
	rr = do(t, srv, http.MethodDelete, "/api/expenses/1", "", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"removed":false`) {
		t.Fatalf("repeat delete response %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodDelete, "/api/expenses/0", "", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid id status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/categories", "", "")
	var cats core.Categories
	if err := json.Unmarshal(rr.Body.Bytes(), &cats); err != nil || len(cats) != 8 {
		t.Fatalf("unexpected categories %s", rr.Body.String())
	}
}

func TestPartials(t *testing.T) {
	srv, svc := newTestServer(t, Options{})
	_, _ = svc.Add(context.Background(), services.AddInput{Description: "Lunch", Amount: "25.50", Category: "Food", Date: "2025-10-20"})

	rr := do(t, srv, http.MethodGet, "/ui/summary", "", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Category Distribution") {
		t.Fatalf("summary partial %d %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "<html") {
		t.Fatalf("partial must not render the full page")
	}

	rr = do(t, srv, http.MethodGet, "/ui/expenses?category=Transport", "", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "No expenses found") {
		t.Fatalf("ledger partial %d %s", rr.Code, rr.Body.String())
	}
	if rr := do(t, srv, http.MethodGet, "/ui/expenses?sort=bogus", "", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad sort status=%d", rr.Code)
	}
}

func TestTemplateParseErrorPath(t *testing.T) {
	broken := fstest.MapFS{"templates/index.html": {Data: []byte("{{define")}}
	srv, _ := newTestServer(t, Options{TemplatesFS: broken})

	if rr := do(t, srv, http.MethodGet, "/", "", ""); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for missing templates, got %d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/readyz", "", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from readyz, got %d", rr.Code)
	}
	// The JSON API keeps working without templates
	if rr := do(t, srv, http.MethodGet, "/api/expenses", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("api status=%d", rr.Code)
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimitPerMinute: 2})
	body := `{"description":"Coffee","amount":3,"category":"Food","date":"2025-10-20"}`

	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/api/expenses", "application/json", body); rr.Code != http.StatusCreated {
			t.Fatalf("request %d status=%d", i+1, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/api/expenses", "application/json", body)
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d", rr.Code)
	}
	// Reads are not limited
	if rr := do(t, srv, http.MethodGet, "/api/expenses", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("read status=%d", rr.Code)
	}

	metrics := do(t, srv, http.MethodGet, "/metrics", "", "").Body.String()
	for _, want := range []string{"expenses_added_total 2", "rate_limit_hits_total 1", "ledger_version 2"} {
		if !strings.Contains(metrics, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestFormatDollars(t *testing.T) {
	p := message.NewPrinter(language.English)
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{2550, "$25.50"},
		{123456, "$1,234.56"},
	}
	for _, tt := range tests {
		if got := formatDollars(p, core.Money{Cents: tt.cents}); got != tt.want {
			t.Errorf("formatDollars(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
