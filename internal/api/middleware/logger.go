package middleware

import (
	"net/http"

	"leetcode_backend/internal/platform/logger"

	"github.com/go-chi/httplog/v2"
)

// ContextLogger hands the request's httplog entry to code below the handlers,
// which reads it back with logger.FromContext. It must run after
// httplog.RequestLogger.
func ContextLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithLogger(r.Context(), httplog.LogEntry(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
