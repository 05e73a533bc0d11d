package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	applog "tracker/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.svc.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Storage readiness check failed",
			applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeDatabase)
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	stats := s.svc.SummaryCacheStats()
	checks["summary_cache"] = map[string]any{
		"entries": stats.Size,
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}
	checks["ledger"] = map[string]any{
		"version": s.svc.Version(),
		"status":  "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	cacheStats := s.svc.SummaryCacheStats()

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_request_duration_avg_microseconds", "gauge", "Average request duration", traceMetrics.AverageResponseTime)
	metric("expenses_added_total", "counter", "Expenses recorded through HTTP", atomic.LoadInt64(&s.appMetrics.expensesAdded))
	metric("expenses_removed_total", "counter", "Expenses removed through HTTP", atomic.LoadInt64(&s.appMetrics.expensesRemoved))
	metric("expense_validation_failures_total", "counter", "Rejected expense submissions", atomic.LoadInt64(&s.appMetrics.validationFailures))
	metric("ledger_version", "gauge", "Current ledger mutation counter", s.svc.Version())
	metric("summary_cache_hits_total", "counter", "Summary cache hits", cacheStats.Hits)
	metric("summary_cache_misses_total", "counter", "Summary cache misses", cacheStats.Misses)
	metric("summary_cache_entries", "gauge", "Current summary cache entries", cacheStats.Size)
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.appMetrics.started).Seconds()))
}
