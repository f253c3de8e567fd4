// backend/internal/adapters/out/gcs/productImage_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"

	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

// ProductImageRepositoryGCS uploads staged product images to Cloud Storage.
//
// Layout (single bucket):
// - objectPath: products/{ownerId}/{objectId}/{fileName}
//
// Public access:
//   - bucket は uniform access + "allUsers: Storage Object Viewer" を前提とする。
//     object 単位の ACL 変更はしない。
type ProductImageRepositoryGCS struct {
	Client *storage.Client
	Bucket string
	// Optional: if empty, uses https://storage.googleapis.com
	PublicBaseURL string
	// CacheControl is applied to every uploaded object.
	CacheControl string
}

func NewProductImageRepositoryGCS(client *storage.Client, bucket string) *ProductImageRepositoryGCS {
	return &ProductImageRepositoryGCS{
		Client:        client,
		Bucket:        strings.TrimSpace(bucket),
		PublicBaseURL: defaultPublicBaseURL,
		CacheControl:  "public, max-age=31536000",
	}
}

var gcsLog = logger.For("gcs.productImage")

func (r *ProductImageRepositoryGCS) bucket() (*storage.BucketHandle, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("productImage_repository_gcs: storage client is nil")
	}
	if strings.TrimSpace(r.Bucket) == "" {
		return nil, errors.New("productImage_repository_gcs: bucket is empty")
	}
	return r.Client.Bucket(r.Bucket), nil
}

// Upload writes one binary and returns its public URL.
func (r *ProductImageRepositoryGCS) Upload(ctx context.Context, ownerID string, file imgdom.File, angle imgdom.Angle) (string, error) {
	bh, err := r.bucket()
	if err != nil {
		return "", err
	}
	if len(file.Data) == 0 {
		return "", imgdom.ErrEmptyFile
	}

	objectPath, err := productObjectPath(ownerID, newObjectID(), file.Name, file.ContentType)
	if err != nil {
		return "", err
	}

	w := bh.Object(objectPath).NewWriter(ctx)
	w.ContentType = strings.TrimSpace(file.ContentType)
	w.CacheControl = r.CacheControl
	w.Metadata = map[string]string{
		"owner_id": strings.TrimSpace(ownerID),
		"angle":    string(angle),
	}

	if _, err := w.Write(file.Data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("productImage_repository_gcs: write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("productImage_repository_gcs: close %s: %w", objectPath, err)
	}

	u := publicURL(r.PublicBaseURL, r.Bucket, objectPath)
	gcsLog.WithFields(map[string]any{
		"owner_id": ownerID,
		"object":   objectPath,
		"size":     len(file.Data),
	}).Debug("uploaded")
	return u, nil
}
