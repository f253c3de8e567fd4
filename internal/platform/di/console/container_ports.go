// backend/internal/platform/di/console/container_ports.go
package console

import (
	"context"
	"fmt"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/out/db"
	fs "github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/out/firestore"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/out/gcs"
	httpout "github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/out/http"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/out/mail"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/out/memory"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"
	shared "github.com/PIUMYOMIN/ekaro-sub001/internal/platform/di/shared"
)

// ports are the outbound adapters behind editor.Deps.
type ports struct {
	store      editor.DraftStore
	uploader   editor.AssetUploader
	endpoint   editor.ProductEndpoint
	categories editor.CategoryLookup
	notifier   *mail.PublishMailer
}

func buildPorts(ctx context.Context, infra *shared.Infra) (ports, error) {
	s := infra.Settings
	var p ports

	// Draft Store
	switch s.DraftBackend {
	case shared.DraftBackendFirestore:
		if infra.Firestore == nil {
			return p, fmt.Errorf("di.console: DRAFT_BACKEND=%s but firestore client is nil", s.DraftBackend)
		}
		p.store = fs.NewProductDraftRepositoryFS(infra.Firestore, s.EditorDraftsCollection)
	case shared.DraftBackendPostgres:
		if infra.DB == nil || infra.DB.Client == nil {
			return p, fmt.Errorf("di.console: DRAFT_BACKEND=%s but database is nil", s.DraftBackend)
		}
		p.store = db.NewProductDraftRepositoryPG(infra.DB.Client)
	case shared.DraftBackendMemory:
		p.store = memory.NewProductDraftRepositoryMem()
	default:
		return p, fmt.Errorf("di.console: unknown draft backend %q", s.DraftBackend)
	}

	// Categories: Firestore when available, otherwise the dev list.
	if infra.Firestore != nil {
		p.categories = fs.NewCategoryRepositoryFS(infra.Firestore, s.CategoriesCollection)
	} else {
		diLog.Warn("firestore unavailable: serving built-in dev categories")
		p.categories = memory.NewCategoryRepositoryMem(memory.DevCategories)
	}

	p.uploader = gcs.NewProductImageRepositoryGCS(infra.GCS, s.ProductImageBucket)
	// Product endpoint: remote API, or Firestore directly when no API is configured.
	if s.ProductAPIBaseURL == "" && infra.Firestore != nil {
		diLog.WithField("collection", s.ProductsCollection).Info("product endpoint: firestore")
		p.endpoint = fs.NewProductRepositoryFS(infra.Firestore, s.ProductsCollection)
	} else {
		p.endpoint = httpout.NewProductAPIClient(s.ProductAPIBaseURL, infra.ProductAPIToken(ctx), s.ProductAPITimeout)
	}

	// Publish notification (optional)
	if s.SendGridAPIKey != "" {
		p.notifier = mail.NewPublishMailer(
			mail.NewSendGridClient(s.SendGridAPIKey, "Ekaro Console"),
			s.SendGridFrom,
			s.ConsoleBaseURL,
		)
	}
	return p, nil
}
