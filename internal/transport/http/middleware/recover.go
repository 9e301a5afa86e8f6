package middleware

import (
	"net/http"

	"github.com/vedran77/userdesk/internal/transport/http/handlers"
	"go.uber.org/zap"
)

// Recover turns a panic into a generic 500 envelope.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.Error("panic serving request",
						zap.Any("panic", p),
						zap.String("method", r.Method),
						zap.String("uri", r.RequestURI),
						zap.Stack("stack"),
					)
					handlers.WriteError(w, http.StatusInternalServerError, handlers.MsgServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
