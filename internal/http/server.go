package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	applog "tracker/internal/log"
	"tracker/internal/middleware/ratelimit"
	"tracker/internal/middleware/security"
	"tracker/internal/middleware/trace"
	"tracker/internal/services"
	appweb "tracker/web"
)

// Options configures a Server. Zero values select defaults.
type Options struct {
	RateLimitPerMinute int
	Language           language.Tag
	Logger             *applog.Logger
	Clock              func() time.Time

	// TemplatesFS and StaticFS override the embedded web assets.
	TemplatesFS fs.FS
	StaticFS    fs.FS
}

type appMetrics struct {
	started            time.Time
	expensesAdded      int64
	expensesRemoved    int64
	validationFailures int64
}

// Server serves the dashboard and the JSON API for one ledger.
type Server struct {
	http.Server
	svc       *services.LedgerService
	templates *template.Template
	printer   *message.Printer
	now       func() time.Time
	logger    *applog.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	httpLogger := logger.WithComponent(applog.ComponentHTTP)

	lang := opts.Language
	if lang == language.Und {
		lang = language.English
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	templatesFS := opts.TemplatesFS
	if templatesFS == nil {
		templatesFS = appweb.TemplatesFS
	}
	staticFS := opts.StaticFS
	if staticFS == nil {
		if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
			staticFS = sub
		} else {
			httpLogger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
		}
	}

	detector := security.NewDetector()
	s := &Server{
		svc:              svc,
		printer:          message.NewPrinter(lang),
		now:              clock,
		logger:           httpLogger,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		appMetrics:       appMetrics{started: time.Now()},
	}

	t, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		httpLogger.Warn("Failed parsing templates",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
	}
	s.templates = t

	mux := http.NewServeMux()

	if staticFS != nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	}

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimit)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/summary", s.handleSummaryPartial)
	mux.HandleFunc("GET /ui/expenses", s.handleLedgerPartial)
	mux.Handle("POST /expenses", limited(http.HandlerFunc(s.handleCreateExpense)))
	mux.Handle("POST /expenses/{id}/delete", limited(http.HandlerFunc(s.handleDeleteExpense)))

	mux.HandleFunc("GET /api/expenses", s.handleAPIListExpenses)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleAPIGetExpense)
	mux.Handle("POST /api/expenses", limited(http.HandlerFunc(s.handleAPICreateExpense)))
	mux.Handle("DELETE /api/expenses/{id}", limited(http.HandlerFunc(s.handleAPIDeleteExpense)))
	mux.HandleFunc("GET /api/summary", s.handleAPISummary)
	mux.HandleFunc("GET /api/categories", s.handleAPICategories)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Outermost first: tracing assigns the request id every later layer logs.
	var handler http.Handler = mux
	handler = detector.Middleware(logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = applog.Middleware(httpLogger)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	if isHTMX(r) {
		ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").Write(w)
		return
	}
	writeJSON(w, http.StatusTooManyRequests, apiError{Error: "rate limit exceeded"})
}

// render buffers the template output; status and body are only written once
// execution succeeded.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	logger := s.logger.WithComponent(applog.ComponentTemplate)
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpRender,
			"template", name)
		http.Error(w, "template rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
