package middleware

import (
	"fmt"
	"net/http"
)

// SecurityHeaders sets CSP and related headers on every response.
// Must run after NonceMiddleware.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scriptSrc := "'self'"
		if nonce := GetNonce(r.Context()); nonce != "" {
			scriptSrc = fmt.Sprintf("'self' 'nonce-%s'", nonce)
		}

		// Avatars come from ui-avatars.com
		csp := fmt.Sprintf("default-src 'self'; script-src %s; style-src 'self' 'unsafe-inline'; "+
			"img-src 'self' data: https://ui-avatars.com; connect-src 'self'; "+
			"frame-ancestors 'none'; base-uri 'self'; form-action 'self'", scriptSrc)

		h := w.Header()
		h.Set("Content-Security-Policy", csp)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
