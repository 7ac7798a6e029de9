package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/luxequeer/deployer/internal/api/types"
	appErr "github.com/luxequeer/deployer/pkg/errors"
	"github.com/luxequeer/deployer/pkg/logger"
)

// Recovery turns a handler panic into a logged 500 with the usual error envelope.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			id := GetRequestID(r.Context())
			logger.Component("http").Error("panic recovered",
				zap.String("request_id", id),
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(types.APIResponse{
				Error: &types.APIError{Code: string(appErr.CodeInternal), Message: http.StatusText(http.StatusInternalServerError)},
				Meta:  &types.Meta{RequestID: id},
			})
		}()
		next.ServeHTTP(w, r)
	})
}
