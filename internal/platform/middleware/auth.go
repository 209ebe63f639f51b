package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"petidentity/pkg/domain"
	"petidentity/pkg/requestcontext"
)

// PrincipalValidator turns a bearer token into an authenticated principal.
type PrincipalValidator interface {
	Principal(tokenString string) (requestcontext.Principal, error)
}

func RequireAuth(validator PrincipalValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeRaw(w, logger, r, http.StatusUnauthorized,
					`{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`)
				return
			}

			principal, err := validator.Principal(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeRaw(w, logger, r, http.StatusUnauthorized,
					`{"error":"unauthorized","error_description":"Invalid or expired token"}`)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, principal)))
		})
	}
}

// RequireRole admits only principals holding one of roles. It must run after
// RequireAuth.
func RequireRole(logger *slog.Logger, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := requestcontext.PrincipalFrom(r.Context())
			if !ok || !principal.IsAny(roles...) {
				logger.WarnContext(r.Context(), "forbidden - role not permitted",
					"user_id", principal.UserID,
					"role", string(principal.Role),
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeRaw(w, logger, r, http.StatusForbidden,
					`{"error":"forbidden","error_description":"Your role cannot perform this action"}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRaw(w http.ResponseWriter, logger *slog.Logger, r *http.Request, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.ErrorContext(r.Context(), "failed to write error response",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
}
