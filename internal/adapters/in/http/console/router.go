// backend/internal/adapters/in/http/console/router.go
package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	consoleHandler "github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/in/http/console/handler"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/in/http/middleware"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"
)

type RouterDeps struct {
	Registry *editor.Registry
	Auth     *middleware.AuthMiddleware

	CORSOrigin   string
	MaxFileBytes int64
}

// NewRouter builds the console HTTP surface.
//
// チェーン順: CORS(外) → RequestID → TraceContext → Recover → Auth
// Recover が返す 500 にも CORS ヘッダが付くようにする。
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(deps.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(middleware.TraceContext)
	r.Use(middleware.Recover)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	// previews are capability URLs (unguessable handle), loaded by <img> without a bearer
	r.Method(http.MethodGet, editor.PreviewPathPrefix+"{handle}", consoleHandler.NewPreviewHandler(deps.Registry.Previews()))

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Handler)

		consoleHandler.NewProductEditorHandler(deps.Registry, deps.MaxFileBytes).Routes(r)
		r.Method(http.MethodGet, "/categories", consoleHandler.NewCategoryHandler(deps.Registry))
	})

	return r
}
