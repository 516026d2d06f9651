package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/stagehand/theater/internal/theaterapi/response"
	"github.com/stagehand/theater/internal/theaterlog"
)

// Recovery converts a panic anywhere downstream into a 500 response
// instead of crashing the process.
func Recovery(log theaterlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("panic recovered", "error", err, "path", r.URL.Path, "stack", string(debug.Stack()))
					response.Error(w, http.StatusInternalServerError, response.ErrCodeInternal,
						fmt.Sprintf("internal server error: %v", err), GetRequestID(r.Context()))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
