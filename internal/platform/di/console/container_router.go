// backend/internal/platform/di/console/container_router.go
package console

import (
	"net/http"

	httpin "github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/in/http/console"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/in/http/middleware"
)

func (c *Container) RouterDeps() httpin.RouterDeps {
	// FirebaseAuth が nil の場合、AuthMiddleware は 503 を返す
	authMw := &middleware.AuthMiddleware{RequiredRole: c.Infra.Settings.AuthRole}
	if c.Infra.FirebaseAuth != nil {
		authMw.Verifier = c.Infra.FirebaseAuth
	}

	return httpin.RouterDeps{
		Registry:     c.Registry,
		Auth:         authMw,
		CORSOrigin:   c.Infra.Settings.CORSOrigin,
		MaxFileBytes: c.Infra.Settings.MaxImageSizeBytes,
	}
}

func (c *Container) Router() http.Handler {
	return httpin.NewRouter(c.RouterDeps())
}
