package auth

import (
	"net/http"
	apperrors "spadesk/pkg/errors"
	httputil "spadesk/pkg/http"
	"spadesk/pkg/logger"
	"strings"
)

// Authenticate requires a bearer token on every request except those whose
// path is in public. The token subject becomes the request operator.
func Authenticate(secret []byte, public []string, log *logger.Logger) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(public))
	for _, p := range public {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				writeUnauthorized(w, log, "Authorization header required")
				return
			}

			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				tokenString, ok = strings.CutPrefix(header, "bearer ")
			}
			if !ok || tokenString == "" {
				writeUnauthorized(w, log, "Authorization header must be a bearer token")
				return
			}

			claims, err := Parse(secret, tokenString)
			if err != nil {
				log.Warn("Rejected token", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, log, "Invalid token")
				return
			}

			ctx := WithOperator(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, log *logger.Logger, message string) {
	if err := httputil.WriteError(w, apperrors.Unauthorized(message)); err != nil {
		log.Error("failed to write error response", "handler", "Authenticate", "operation", "WriteError", "error", err)
	}
}
