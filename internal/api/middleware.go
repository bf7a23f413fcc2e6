package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robo-univ/agent-portal/internal/apperrors"
	"github.com/robo-univ/agent-portal/internal/auth"
	"github.com/robo-univ/agent-portal/internal/core"
)

type contextKey string

const actorContextKey contextKey = "actor"

// actorFromContext returns the caller set by JWTAuthMiddleware.
func actorFromContext(ctx context.Context) core.Actor {
	actor, _ := ctx.Value(actorContextKey).(core.Actor)
	return actor
}

// RequestLogger logs one line per request with status and latency.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		event := log.Info()
		if status >= 400 && status < 500 {
			event = log.Warn()
		} else if status >= 500 {
			event = log.Error()
		}
		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("body_size", ww.BytesWritten()).
			Msg("request completed")
	})
}

// JWTAuthMiddleware validates the bearer token and records the caller.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, apperrors.NewUnauthorizedError("authorization header is required"))
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := auth.ValidateJWT(tokenString)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected token")
			writeError(w, apperrors.NewUnauthorizedError("invalid token"))
			return
		}

		user, err := h.dbStore.UpsertUser(r.Context(), claims.Subject, claims.Role)
		if err != nil {
			log.Error().Err(err).Str("user_id", claims.Subject).Msg("Failed to record user")
			writeError(w, apperrors.NewInternalError("failed to process user identity", err))
			return
		}

		actor := core.Actor{UserID: user.ID, Role: user.Role}
		ctx := context.WithValue(r.Context(), actorContextKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
