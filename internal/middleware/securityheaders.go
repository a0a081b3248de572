package middleware

import (
	"net/http"
)

const (
	// CSPAPI forbids everything; JSON responses load nothing.
	CSPAPI = "default-src 'none'; frame-ancestors 'none'"
	// CSPDashboard lets server-rendered pages load their own styles and submit forms to themselves.
	CSPDashboard = "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'"
)

// SecurityHeaders sets common security response headers with the given Content-Security-Policy.
// When hsts is true (serving HTTPS), adds Strict-Transport-Security.
func SecurityHeaders(csp string, hsts bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "same-origin")
			w.Header().Set("Content-Security-Policy", csp)
			if hsts {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
