package middleware

import "net/http"

// APIKey requires every request to carry the backend's public API key,
// either in the apikey header or as X-Api-Key.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("apikey")
			if got == "" {
				got = r.Header.Get("X-Api-Key")
			}
			if got != key {
				http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
