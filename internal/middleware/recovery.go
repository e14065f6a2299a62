package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vukovx/fitlog/internal/telemetry/metrics"
	"github.com/vukovx/fitlog/pkg"
)

func PanicRecovery(metricsManager *metrics.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Errorf("panic while handling [%s %s]: %v", r.Method, r.URL.Path, rec)
					metricsManager.CounterHandleRequestPanic.Inc()
					pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
