// backend/internal/platform/di/shared/runtime_settings.go
package shared

import (
	"errors"
	"strings"
	"time"

	appcfg "github.com/PIUMYOMIN/ekaro-sub001/internal/infra/config"
)

const (
	DraftBackendFirestore = "firestore"
	DraftBackendPostgres  = "postgres"
	DraftBackendMemory    = "memory"

	defaultEditorDraftsCollection = "editorDrafts"
	defaultCategoriesCollection   = "categories"
	defaultProductsCollection     = "products"
	defaultUploadConcurrency      = 3
	defaultSaveDebounce           = 400 * time.Millisecond
	defaultMaxImageSizeBytes      = 5 * 1024 * 1024
)

// RuntimeSettings is config-resolved runtime settings (normalized once).
// It intentionally contains only "values" (no external clients).
//
// Policy:
// - Keep normalization (trim, lower-case, trailing slash removal) here.
// - Keep hard validation in runtime_settings_validate.go.
type RuntimeSettings struct {
	DraftBackend string
	DatabaseURL  string

	EditorDraftsCollection string
	CategoriesCollection   string
	ProductsCollection     string

	ProductImageBucket string
	MaxImageSizeBytes  int64
	UploadConcurrency  int
	SaveDebounce       time.Duration

	ProductAPIBaseURL     string
	ProductAPIToken       string
	ProductAPITokenSecret string
	ProductAPITimeout     time.Duration

	SendGridAPIKey string
	SendGridFrom   string
	ConsoleBaseURL string

	CORSOrigin string
	AuthRole   string
}

// ResolveRuntimeSettings resolves and normalizes runtime settings from cfg.
//
// Notes:
// - This function is side-effect free (no logging).
// - It returns warnings as strings so callers can decide how to surface them.
func ResolveRuntimeSettings(cfg *appcfg.Config) (RuntimeSettings, []string, error) {
	if cfg == nil {
		return RuntimeSettings{}, nil, errors.New("shared.runtime_settings: cfg is nil")
	}

	var warns []string
	s := RuntimeSettings{
		DraftBackend:          strings.ToLower(strings.TrimSpace(cfg.DraftBackend)),
		DatabaseURL:           strings.TrimSpace(cfg.DatabaseURL),
		ProductImageBucket:    strings.TrimSpace(cfg.ProductImageBucket),
		MaxImageSizeBytes:     cfg.MaxImageSizeBytes,
		UploadConcurrency:     cfg.UploadConcurrency,
		SaveDebounce:          cfg.DraftSaveDebounce,
		ProductAPIBaseURL:     normalizeBaseURL(cfg.ProductAPIBaseURL),
		ProductAPIToken:       strings.TrimSpace(cfg.ProductAPIToken),
		ProductAPITokenSecret: strings.TrimSpace(cfg.ProductAPITokenSecret),
		ProductAPITimeout:     cfg.ProductAPITimeout,
		SendGridAPIKey:        strings.TrimSpace(cfg.SendGridAPIKey),
		SendGridFrom:          strings.TrimSpace(cfg.SendGridFrom),
		ConsoleBaseURL:        normalizeBaseURL(cfg.ConsoleBaseURL),
		CORSOrigin:            strings.TrimSpace(cfg.CORSOrigin),
		AuthRole:              strings.TrimSpace(cfg.AuthRole),
	}

	if s.DraftBackend == "" {
		s.DraftBackend = DraftBackendFirestore
	}
	s.EditorDraftsCollection = orDefault(cfg.EditorDraftsCollection, defaultEditorDraftsCollection)
	s.CategoriesCollection = orDefault(cfg.CategoriesCollection, defaultCategoriesCollection)
	s.ProductsCollection = orDefault(cfg.ProductsCollection, defaultProductsCollection)

	if s.MaxImageSizeBytes <= 0 {
		s.MaxImageSizeBytes = defaultMaxImageSizeBytes
	}
	if s.UploadConcurrency <= 0 {
		s.UploadConcurrency = defaultUploadConcurrency
	}
	if s.SaveDebounce <= 0 {
		s.SaveDebounce = defaultSaveDebounce
	}

	if s.ProductImageBucket == "" {
		warns = append(warns, "PRODUCT_IMAGE_BUCKET is empty (image uploads will fail)")
	}
	if s.ProductAPIBaseURL == "" {
		warns = append(warns, "PRODUCT_API_BASE_URL is empty (products are written to Firestore directly)")
	}
	if s.ProductAPIToken == "" && s.ProductAPITokenSecret == "" {
		warns = append(warns, "PRODUCT_API_TOKEN/PRODUCT_API_TOKEN_SECRET are empty (requests are sent without a token)")
	}
	if s.SendGridAPIKey == "" {
		warns = append(warns, "SENDGRID_API_KEY is empty (publish notifications disabled)")
	}
	if s.DraftBackend == DraftBackendMemory {
		warns = append(warns, "DRAFT_BACKEND=memory (drafts are lost on restart)")
	}

	return s, warns, nil
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

func normalizeBaseURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	return strings.TrimRight(u, "/")
}
