package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kwhite/taskpulse/internal/auth"
	"github.com/kwhite/taskpulse/internal/logger"
	"github.com/kwhite/taskpulse/internal/request"
	"go.uber.org/zap"
)

// Auth creates authentication middleware that validates bearer tokens
// and attaches the resulting identity to the request context.
func Auth(verifier *auth.Verifier, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			identity, err := verifier.Verify(r.Context(), parts[1])
			if err != nil {
				log.Warn("token_verification_failed",
					zap.String("path", logger.SanitizePath(r.URL.Path)),
					zap.String("error", logger.SanitizeError(err)),
				)
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := request.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	_ = json.NewEncoder(w).Encode(response)
}
