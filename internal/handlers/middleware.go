package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"examquiz/internal/apierr"
	"examquiz/internal/logger"
	"examquiz/internal/security"
	"examquiz/internal/validation"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	LearnerUIDContextKey ContextKey = "learner_uid"
	RequestIDContextKey  ContextKey = "request_id"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	verifier security.TokenVerifier
	admin    *security.AdminTokens
	limiter  *security.RateLimiter
	log      *logger.Logger
}

// NewMiddleware creates a new middleware instance. A nil verifier leaves learner
// routes unauthenticated; a nil limiter disables rate limiting.
func NewMiddleware(verifier security.TokenVerifier, admin *security.AdminTokens, limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	if admin == nil {
		admin = security.NewAdminTokens("")
	}
	return &Middleware{verifier: verifier, admin: admin, limiter: limiter, log: log}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging assigns a request id and logs each request once it completes
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = security.NewRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		m.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
		)
	})
}

// Recover turns a panic in a handler into a 500 NOK response
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.log.Error("panic recovered",
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
					"panic", fmt.Sprint(rec),
				)
				respondWithError(w, m.log, apierr.Upstream(ErrInternalServerError, fmt.Errorf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequireLearner verifies the Firebase ID token and stores its subject in the
// context. Handlers compare it with the uid they act on via authorizeLearner.
func (m *Middleware) RequireLearner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.verifier == nil {
			next(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondWithError(w, m.log, apierr.Unauthorized("Missing bearer token"))
			return
		}

		uid, err := m.verifier.Verify(r.Context(), strings.TrimSpace(token))
		if err != nil {
			m.log.Debug("token rejected", "error", err)
			respondWithError(w, m.log, apierr.Unauthorized("Invalid or expired token"))
			return
		}

		ctx := context.WithValue(r.Context(), LearnerUIDContextKey, uid)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin checks the X-Admin-Token header against the configured hash
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.admin.Enabled() {
			respondWithError(w, m.log, apierr.Forbidden("Admin access is not configured"))
			return
		}
		if !m.admin.Check(r.Header.Get(HeaderAdminToken)) {
			respondWithError(w, m.log, apierr.Unauthorized(ErrUnauthorized))
			return
		}
		next(w, r)
	}
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			respondJSON(w, http.StatusTooManyRequests, envelope{"status": StatusNOK, "message": ErrTooManyRequests})
			return
		}
		next(w, r)
	}
}

// authorizeLearner rejects malformed uids and ensures an authenticated caller only
// acts on their own uid
func authorizeLearner(ctx context.Context, uid string) error {
	var ve validation.ValidationError
	if err := validation.ValidateUID(uid); errors.As(err, &ve) {
		return apierr.Validation("%s", ve.Message)
	}

	subject, ok := ctx.Value(LearnerUIDContextKey).(string)
	if !ok {
		return nil
	}
	if subject != strings.TrimSpace(uid) {
		return apierr.Forbidden("Token does not belong to this learner")
	}
	return nil
}

// GetRequestID retrieves the request id from the request context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
