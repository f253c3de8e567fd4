// backend/internal/platform/di/shared/runtime_settings_validate.go
package shared

import (
	"fmt"
	"strings"
)

// Validate performs hard validation for RuntimeSettings.
//
// Policy:
//   - This should be stricter than Resolve.
//   - It should fail fast for values that would cause undefined behavior,
//     while allowing optional features to remain disabled when settings are empty.
func (s RuntimeSettings) Validate() error {
	switch s.DraftBackend {
	case DraftBackendFirestore, DraftBackendMemory:
	case DraftBackendPostgres:
		if s.DatabaseURL == "" {
			return fmt.Errorf("shared.runtime_settings: DATABASE_URL is required when DRAFT_BACKEND=%s", DraftBackendPostgres)
		}
	default:
		return fmt.Errorf("shared.runtime_settings: unknown DRAFT_BACKEND %q (want firestore|postgres|memory)", s.DraftBackend)
	}

	// Collections must never be empty once resolved (defaults exist).
	if s.EditorDraftsCollection == "" || s.CategoriesCollection == "" || s.ProductsCollection == "" {
		return fmt.Errorf("shared.runtime_settings: collection name is empty")
	}
	if strings.Contains(s.EditorDraftsCollection, "/") || strings.Contains(s.CategoriesCollection, "/") || strings.Contains(s.ProductsCollection, "/") {
		return fmt.Errorf("shared.runtime_settings: collection names must not contain '/'")
	}

	// Base URLs are optional, but if set they must look like HTTP(S) URLs.
	for name, u := range map[string]string{
		"PRODUCT_API_BASE_URL": s.ProductAPIBaseURL,
		"CONSOLE_BASE_URL":     s.ConsoleBaseURL,
	} {
		if u != "" && !(strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")) {
			return fmt.Errorf("shared.runtime_settings: %s must start with http:// or https:// (got %q)", name, u)
		}
	}

	// GCS bucket names cannot contain spaces.
	if strings.ContainsAny(s.ProductImageBucket, " \t\r\n") {
		return fmt.Errorf("shared.runtime_settings: PRODUCT_IMAGE_BUCKET contains whitespace (got %q)", s.ProductImageBucket)
	}

	if s.UploadConcurrency > 32 {
		return fmt.Errorf("shared.runtime_settings: UPLOAD_CONCURRENCY too large (%d)", s.UploadConcurrency)
	}
	if s.SendGridAPIKey != "" && s.SendGridFrom == "" {
		return fmt.Errorf("shared.runtime_settings: SENDGRID_FROM is required when SENDGRID_API_KEY is set")
	}

	return nil
}
