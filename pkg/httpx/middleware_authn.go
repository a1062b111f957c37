package httpx

import (
	"net/http"
	"strings"
)

// RequireBearer rejects requests without an `Authorization: Bearer` header
// and stores the raw token on the context. Verifying the token is left to
// the handler's service, which owns the identity provider.
func RequireBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := ParseBearer(r.Header.Get("Authorization"))
			if !ok {
				WriteBearerChallenge(w, "missing bearer token")
				WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error":             "unauthorized",
					"error_description": "missing bearer token",
				})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithBearer(r.Context(), raw)))
		})
	}
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}

// WriteBearerChallenge sets the RFC 6750 WWW-Authenticate header. The caller
// still writes the status and body.
func WriteBearerChallenge(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
}
