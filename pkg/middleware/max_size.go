package middleware

import (
	"net/http"

	apperrors "spadesk/pkg/errors"
	"spadesk/pkg/logger"
)

// MaxRequestSize rejects declared oversize bodies up front and caps the rest
// while they are read.
func MaxRequestSize(limit int64, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, log, "MaxRequestSize", &apperrors.AppError{
					Code:       apperrors.CodeBadRequest,
					Message:    "Request body too large",
					HTTPStatus: http.StatusRequestEntityTooLarge,
					Details:    map[string]any{"max_bytes": limit},
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
