// backend/internal/platform/di/console/container.go
package console

import (
	"context"
	"errors"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
	shared "github.com/PIUMYOMIN/ekaro-sub001/internal/platform/di/shared"
)

var diLog = logger.For("di.console")

// ========================================
// Container (Console DI)
// ========================================
type Container struct {
	Infra *shared.Infra

	Ports    ports
	Registry *editor.Registry
}

func NewContainer(ctx context.Context, infra *shared.Infra) (*Container, error) {
	if infra == nil {
		return nil, errors.New("di.console: shared infra is nil")
	}

	p, err := buildPorts(ctx, infra)
	if err != nil {
		return nil, err
	}

	s := infra.Settings
	deps := editor.Deps{
		Store:      p.store,
		Uploader:   p.uploader,
		Endpoint:   p.endpoint,
		Categories: p.categories,
		Previews:   editor.NewPreviewRegistry(),
		Policy: imgdom.Policy{
			MaxBytes: s.MaxImageSizeBytes,
			MIMEs:    imgdom.SupportedImageMIMEs,
		},
		UploadConcurrency: s.UploadConcurrency,
		SaveDebounce:      s.SaveDebounce,
	}
	// typed nil を interface に入れない
	if p.notifier != nil {
		deps.Notifier = p.notifier
	}

	diLog.WithField("draft_backend", s.DraftBackend).Info("console container ready")
	return &Container{
		Infra:    infra,
		Ports:    p,
		Registry: editor.NewRegistry(deps),
	}, nil
}

// Shutdown flushes live editor sessions (pending debounced saves, preview handles).
func (c *Container) Shutdown(ctx context.Context) {
	if c != nil && c.Registry != nil {
		c.Registry.Shutdown(ctx)
	}
}

func (c *Container) Close() error {
	if c != nil && c.Infra != nil {
		return c.Infra.Close()
	}
	return nil
}
