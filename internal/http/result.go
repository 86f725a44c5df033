package httpapi

import (
	"net/http"

	"senser/internal/domain"

	"go.uber.org/zap"
)

// Result error envelope: {"code": -1, "type": "error", "message": "..."}
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result,omitempty"`
}

const ResultError = -1

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message}
}

// writeError maps err to its status; 5xx are logged at error level, 4xx at warn
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := domain.HTTPStatus(err)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", fields...)
	} else {
		logger.Warn("Request rejected", fields...)
	}
	writeJSON(w, status, Fail(domain.UserMessage(err)))
}

func badRequest(w http.ResponseWriter, r *http.Request, logger *zap.Logger, format string, args ...interface{}) {
	writeError(w, r, logger, domain.NewError(domain.ErrInvalidArgument, format, args...))
}
