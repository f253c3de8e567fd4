// backend/internal/adapters/in/http/middleware/recover.go
package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

var recoverLog = logger.For("middleware.recover")

func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(r.Context(), recoverLog).
					WithField("panic", rec).
					WithField("stack", string(debug.Stack())).
					Error("PANIC")

				// CORS は外側で付ける（チェーン順が重要）
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
