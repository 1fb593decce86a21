package middleware

import "net/http"

// MaxRequestSize caps the readable request body. Availability toggles and
// create payloads are small; anything larger is rejected mid-decode with
// http.MaxBytesError surfacing as a 400 from the handler's JSON decoder.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
