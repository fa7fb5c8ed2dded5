package adminapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type requestIDKeyType struct{}

var requestIDKey requestIDKeyType

// withRequestID extracts X-Request-ID from the incoming request, or
// generates one, and attaches it to both the request context and the
// response so admin-API calls can be correlated across logs. Grounded on
// the teacher's proxy.AddRequestID/GetRequestID pattern.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		logger := log.With().Str("request_id", requestID).Logger()

		w.Header().Set("X-Request-ID", requestID)
		logger.Debug().Str("path", r.URL.Path).Msg("adminapi: request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestIDFromContext retrieves the request ID attached by withRequestID.
func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
