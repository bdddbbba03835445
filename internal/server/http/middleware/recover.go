package middleware

import (
	"net/http"

	"github.com/dmitrijs2005/lip/internal/logging"
)

// Recover turns a panic into a 500 with the generic internal-error body.
func Recover(fallback logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logging.From(r.Context(), fallback).Error(r.Context(), "panic", "path", r.URL.Path, "reason", rec)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"info":"internal server error"}` + "\n"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
