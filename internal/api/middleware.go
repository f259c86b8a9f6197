package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/misty-step/scry-sub000/internal/logger"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

type contextKey string

const userContextKey contextKey = "user_id"

// userHeader carries the resolved identity. Authentication itself lives in
// front of this service; this middleware is only the identity resolver
// mapping a request to a userID.
const userHeader = "X-User-ID"

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(r.Context()).Error("panic recovered: %v", rec)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.Default().WithFields(map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		ctx := logger.NewContext(r.Context(), log)

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))

		log.Debug("request completed: status=%d, size=%d, duration=%s",
			rw.status, rw.size, time.Since(start))
	})
}

func (s *Server) userMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(userHeader)
		if raw == "" {
			http.Error(w, "missing "+userHeader+" header", http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid "+userHeader+" header", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFromContext returns the resolved userID. The user middleware guarantees
// presence on all /api routes.
func userFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userContextKey).(uuid.UUID)
	return id
}
