package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// ErrorResponse mirrors the API error envelope. The middleware keeps its
// own copy so panics can be reported even if higher layers are broken.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the code and message of a recovered failure.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Recovery converts handler panics into 500 responses with the standard
// error envelope.
func Recovery(next http.Handler) http.Handler {
	return RecoveryWithLogger(nil)(next)
}

// RecoveryWithLogger is Recovery with panic details logged through the
// given logger.
func RecoveryWithLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if logger != nil {
					logger.Error("handler panic",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(ErrorResponse{
					Error: ErrorDetail{
						Code:      "INTERNAL_ERROR",
						Message:   fmt.Sprintf("panic: %v", rec),
						RequestID: GetRequestID(r.Context()),
					},
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
