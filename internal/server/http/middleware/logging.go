package middleware

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/lip/internal/logging"
)

// Logging puts a request-scoped logger into the context and writes one
// record per request once it is served.
func Logging(l logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := RequestIDFrom(r.Context()); rid != "" {
				reqLogger = reqLogger.With("request_id", rid)
			}
			r = r.WithContext(logging.Into(r.Context(), reqLogger))

			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)

			reqLogger.Info(r.Context(), "http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"dur", time.Since(start),
				"bytes", sw.count,
			)
		})
	}
}
