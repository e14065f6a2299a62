package middleware

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

// DrainAndCloseRequest makes sure the request body is fully read and closed
// after the handler is done, so the underlying connection can be reused.
func DrainAndCloseRequest() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if r.Body != nil {
					_, _ = io.Copy(io.Discard, r.Body)
					_ = r.Body.Close()
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
