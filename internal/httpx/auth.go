package httpx

import (
	"crypto/subtle"
	"net/http"
)

const authHeader = "X-API-Key"

// requireAPIKey rejects mutating requests lacking a matching X-API-Key
// header, when an API key has been configured (section 6: "if present,
// all mutating operations require it in a header"). With no key
// configured, every request passes through.
func (r *Router) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	if r.apiKey == "" {
		return next
	}
	expected := []byte(r.apiKey)
	return func(w http.ResponseWriter, req *http.Request) {
		provided := []byte(req.Header.Get(authHeader))
		if len(provided) != len(expected) || subtle.ConstantTimeCompare(provided, expected) != 1 {
			writeError(w, http.StatusUnauthorized, "missing or invalid API key")
			return
		}
		next(w, req)
	}
}
