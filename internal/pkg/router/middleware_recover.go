package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/datasprint/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into the 500 envelope. In debug
// mode the panic value and internal frames are included.
func middlewareRecoverer(debugMode bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				frames := stacktrace.InternalPaths(debug.Stack())
				slog.ErrorContext(r.Context(), "handler panicked", "panic", rvr, "stack", frames)

				var details map[string]string
				if !debugMode {
					frames = nil
				} else {
					details = map[string]string{"cause": fmt.Sprint(rvr)}
				}

				writeError(w, r, http.StatusInternalServerError, "Internal server error", details, frames)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
