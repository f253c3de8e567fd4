// backend/internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	appcfg "github.com/PIUMYOMIN/ekaro-sub001/internal/infra/config"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/database"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/secrets"
)

var infraLog = logger.For("shared.infra")

// Infra is shared runtime infrastructure for DI.
// - owns external clients (Firestore/FirebaseAuth/GCS/SecretManager/Postgres)
// - owns config-resolved runtime settings (bucket, collections, base URLs)
//
// IMPORTANT:
// Infra must NOT depend on routers, handlers, or the editor application layer.
type Infra struct {
	// Config
	Config    *appcfg.Config
	ProjectID string
	Settings  RuntimeSettings

	// Clients (owned; Close-managed)
	Firestore     *firestore.Client
	GCS           *storage.Client
	FirebaseApp   *firebase.App
	FirebaseAuth  *firebaseauth.Client
	SecretManager *secretmanager.Client
	DB            *database.DB

	Secrets *secrets.Provider
}

// NewInfra initializes shared infra.
// GCS is strict. Firestore is strict unless DRAFT_BACKEND=memory.
// Postgres is strict when DRAFT_BACKEND=postgres.
// Firebase/Auth and SecretManager are best-effort (warn + continue).
func NewInfra(ctx context.Context, cfg *appcfg.Config) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}

	settings, warns, err := ResolveRuntimeSettings(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range warns {
		infraLog.Warn(w)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	projectID := resolveProjectID(cfg)
	if projectID == "" && settings.DraftBackend != DraftBackendMemory {
		// If empty, Firestore/NewApp become unstable; treat as hard error.
		return nil, errors.New("shared.infra: projectID is empty (set FIRESTORE_PROJECT_ID, GCP_PROJECT_ID or GOOGLE_CLOUD_PROJECT)")
	}

	inf := &Infra{
		Config:    cfg,
		ProjectID: projectID,
		Settings:  settings,
	}

	// Credentials file (optional; mainly for local dev)
	var clientOpts []option.ClientOption
	if credFile := strings.TrimSpace(cfg.GCPCreds); credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		infraLog.WithField("credentials", redactPath(credFile)).Info("using credentials file for GCP clients")
	} else {
		infraLog.Info("using Application Default Credentials")
	}

	// 1) Optional: Secret Manager client (product API token)
	if projectID != "" {
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			infraLog.WithError(err).Warn("secretmanager.NewClient failed (secret-backed settings disabled)")
		} else {
			inf.SecretManager = sm
		}
	}
	inf.Secrets = secrets.NewProvider(inf.SecretManager, projectID)

	// 2) Firestore (strict unless memory backend)
	if projectID != "" {
		fsClient, err := firestore.NewClient(ctx, projectID, clientOpts...)
		if err != nil {
			if settings.DraftBackend != DraftBackendMemory {
				_ = inf.Close()
				return nil, fmt.Errorf("shared.infra: firestore.NewClient failed (project=%s): %w", projectID, err)
			}
			infraLog.WithError(err).Warn("firestore unavailable (memory backend continues)")
		} else {
			inf.Firestore = fsClient
			infraLog.WithField("project", projectID).Info("firestore connected")
		}
	}

	// 3) GCS (strict)
	{
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: storage.NewClient failed: %w", err)
		}
		inf.GCS = gcsClient
		infraLog.Info("GCS storage client initialized")
	}

	// 4) Postgres (strict when selected)
	if settings.DraftBackend == DraftBackendPostgres {
		db, err := database.NewConnection(ctx, settings.DatabaseURL)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		inf.DB = db
	}

	// 5) Firebase App/Auth (best-effort)
	{
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, clientOpts...)
		if err != nil {
			infraLog.WithError(err).Warn("firebase app init failed")
		} else {
			inf.FirebaseApp = fbApp
			authClient, err := fbApp.Auth(ctx)
			if err != nil {
				infraLog.WithError(err).Warn("firebase auth init failed (editor routes will answer 503)")
			} else {
				inf.FirebaseAuth = authClient
				infraLog.Info("firebase auth initialized")
			}
		}
	}

	// Final sanity checks (panic prevention)
	if inf.GCS == nil {
		_ = inf.Close()
		return nil, errors.New("shared.infra: gcs client is nil after initialization (unexpected)")
	}

	return inf, nil
}

// ProductAPIToken returns PRODUCT_API_TOKEN, else the Secret Manager value.
// A secret failure is logged and yields an empty token.
func (i *Infra) ProductAPIToken(ctx context.Context) string {
	if i == nil {
		return ""
	}
	if i.Settings.ProductAPIToken != "" {
		return i.Settings.ProductAPIToken
	}
	if i.Settings.ProductAPITokenSecret == "" {
		return ""
	}
	tok, err := i.Secrets.Access(ctx, i.Settings.ProductAPITokenSecret)
	if err != nil {
		infraLog.WithError(err).WithField("secret", i.Settings.ProductAPITokenSecret).Warn("product API token not resolved")
		return ""
	}
	return tok
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Firestore != nil {
		errs = append(errs, i.Firestore.Close())
	}
	if i.GCS != nil {
		errs = append(errs, i.GCS.Close())
	}
	if i.SecretManager != nil {
		errs = append(errs, i.SecretManager.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	return errors.Join(errs...)
}

func resolveProjectID(cfg *appcfg.Config) string {
	// Priority:
	// 1) FIRESTORE_PROJECT_ID / GCP_PROJECT_ID (config)
	// 2) GOOGLE_CLOUD_PROJECT (often set in Cloud Run)
	if cfg != nil {
		if v := cfg.GetFirestoreProjectID(); v != "" {
			return v
		}
	}
	return strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT"))
}

func redactPath(p string) string {
	// Do not log full path; keep only the last segment
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***/" + last
}
