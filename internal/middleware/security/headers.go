package security

import (
	"fmt"
	"net/http"
	"strings"
)

// HTMXOrigin serves the htmx script referenced by the dashboard templates.
const HTMXOrigin = "https://unpkg.com"

// HeadersConfig selects the response headers sent with every page and API
// response.
type HeadersConfig struct {
	// ScriptOrigins extend 'self' in script-src. The embedded app.js is
	// always same-origin.
	ScriptOrigins []string
	// InlineStyles allows style attributes; the summary bars and the daily
	// chart size themselves with inline widths and heights.
	InlineStyles bool

	// HSTS is only sent over TLS.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	FrameOptions      string
	ReferrerPolicy    string
	PermissionsPolicy string
	OpenerPolicy      string
	ResourcePolicy    string
}

// DefaultHeadersConfig matches the dashboard's asset set: app.js and app.css
// from /static, htmx from HTMXOrigin. No cross-origin embedder policy is set
// because unpkg responses are not guaranteed to carry a CORP header.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		ScriptOrigins:         []string{HTMXOrigin},
		InlineStyles:          true,
		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,
		FrameOptions:          "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		OpenerPolicy:          "same-origin",
		ResourcePolicy:        "same-origin",
	}
}

// ContentSecurityPolicy renders the CSP. htmx only talks to this server and
// forms only post to it.
func (c HeadersConfig) ContentSecurityPolicy() string {
	script := append([]string{"'self'"}, c.ScriptOrigins...)
	style := []string{"'self'"}
	if c.InlineStyles {
		style = append(style, "'unsafe-inline'")
	}
	directives := []string{
		"default-src 'self'",
		"script-src " + strings.Join(script, " "),
		"style-src " + strings.Join(style, " "),
		"img-src 'self' data:",
		"connect-src 'self'",
		"object-src 'none'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}

// HeadersMiddleware applies security headers to responses.
type HeadersMiddleware struct {
	fixed http.Header
	hsts  string
}

// NewHeadersMiddleware renders the configured headers once.
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	fixed := http.Header{}
	set := func(name, value string) {
		if value != "" {
			fixed.Set(name, value)
		}
	}
	set("Content-Security-Policy", config.ContentSecurityPolicy())
	set("X-Content-Type-Options", "nosniff")
	set("X-Frame-Options", config.FrameOptions)
	set("Referrer-Policy", config.ReferrerPolicy)
	set("Permissions-Policy", config.PermissionsPolicy)
	set("Cross-Origin-Opener-Policy", config.OpenerPolicy)
	set("Cross-Origin-Resource-Policy", config.ResourcePolicy)

	m := &HeadersMiddleware{fixed: fixed}
	if config.HSTSMaxAge > 0 {
		m.hsts = fmt.Sprintf("max-age=%d", config.HSTSMaxAge)
		if config.HSTSIncludeSubdomains {
			m.hsts += "; includeSubDomains"
		}
	}
	return m
}

// Middleware returns the HTTP middleware function
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for name, values := range h.fixed {
			headers[name] = append([]string(nil), values...)
		}
		if r.TLS != nil && h.hsts != "" {
			headers.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware adds caching headers for the embedded assets. File
// names carry no content hash, so responses are cacheable but not immutable.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
