package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/advisorlens/advisorlens/internal/pkg/errors"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
	"github.com/advisorlens/advisorlens/internal/pkg/utils"
)

// Recovery recovers from handler panics and returns a 500 response.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithFields(map[string]interface{}{
						"panic":      fmt.Sprintf("%v", rec),
						"stack":      string(debug.Stack()),
						"request_id": GetRequestID(r),
					}).Error("panic recovered in handler")

					utils.WriteError(w, errors.Internal("internal server error", nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
