// backend/internal/adapters/out/gcs/helper_repository_gcs.go
package gcs

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

// sanitizePathSegment normalizes a path segment for GCS object paths.
// - removes separators
// - trims dots/spaces
func sanitizePathSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.Trim(s, ". ")
	return s
}

// ensureExtensionByMIME appends an extension based on MIME when fileName has no extension.
func ensureExtensionByMIME(fileName string, mime string) string {
	lower := strings.ToLower(strings.TrimSpace(fileName))
	if strings.Contains(path.Base(lower), ".") {
		return fileName
	}

	ext := ""
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	}
	return fileName + ext
}

func newObjectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// productObjectPath builds products/{ownerId}/{objectId}/{fileName}.
func productObjectPath(ownerID, objectID, fileName, mime string) (string, error) {
	owner := sanitizePathSegment(ownerID)
	if owner == "" {
		return "", errors.New("productImage_repository_gcs: ownerID is empty")
	}
	id := sanitizePathSegment(objectID)
	if id == "" {
		return "", errors.New("productImage_repository_gcs: objectID is empty")
	}
	name := sanitizePathSegment(fileName)
	if name == "" {
		name = "image"
	}
	name = ensureExtensionByMIME(name, mime)
	return fmt.Sprintf("products/%s/%s/%s", owner, id, name), nil
}

// publicURL builds https://storage.googleapis.com/<bucket>/<object>.
// object の各セグメントは URL エスケープする。
func publicURL(baseURL, bucket, objectPath string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultPublicBaseURL
	}
	segs := strings.Split(strings.TrimLeft(objectPath, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return base + "/" + strings.TrimSpace(bucket) + "/" + strings.Join(segs, "/")
}
