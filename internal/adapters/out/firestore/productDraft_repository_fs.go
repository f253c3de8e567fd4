// backend/internal/adapters/out/firestore/productDraft_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

// Firestore schema:
// - editorDrafts/{ownerId}/entries/{entryKey}
// fields:
// - payload    : string   (JSON, decoded by productDraft codec)
// - kind       : string
// - updated_at : timestamp
//
// NOTE:
// - entryKey is "<kind>:draft" or "<kind>:previews".
// - payload is stored opaque so that a broken value is detected on decode.

const DefaultEditorDraftsCollection = "editorDrafts"

var draftLog = logger.For("firestore.productDraft")

type ProductDraftRepositoryFS struct {
	Client     *gfs.Client
	Collection string
}

func NewProductDraftRepositoryFS(client *gfs.Client, collection string) *ProductDraftRepositoryFS {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = DefaultEditorDraftsCollection
	}
	return &ProductDraftRepositoryFS{Client: client, Collection: collection}
}

var _ draftdom.Store = (*ProductDraftRepositoryFS)(nil)

func (r *ProductDraftRepositoryFS) entryRef(ownerID, entryKey string) *gfs.DocumentRef {
	return r.Client.Collection(r.Collection).Doc(ownerID).Collection("entries").Doc(entryKey)
}

func (r *ProductDraftRepositoryFS) check(key draftdom.Key) error {
	if r == nil || r.Client == nil {
		return errors.New("firestore client is nil")
	}
	if !key.Valid() {
		return draftdom.ErrInvalidKind
	}
	return nil
}

// readPayload returns (payload, found). A missing document is not an error.
func (r *ProductDraftRepositoryFS) readPayload(ctx context.Context, key draftdom.Key, entryKey string) ([]byte, bool, error) {
	snap, err := r.entryRef(key.OwnerID, entryKey).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data := snap.Data()
	// 型違い(数値など)も壊れたデータとして扱う
	s, _ := data["payload"].(string)
	return []byte(s), true, nil
}

func (r *ProductDraftRepositoryFS) writePayload(ctx context.Context, key draftdom.Key, entryKey string, raw []byte) error {
	_, err := r.entryRef(key.OwnerID, entryKey).Set(ctx, map[string]any{
		"payload":    string(raw),
		"kind":       string(key.Kind),
		"updated_at": time.Now().UTC(),
	})
	return err
}

func (r *ProductDraftRepositoryFS) deleteEntry(ctx context.Context, key draftdom.Key, entryKey string) error {
	_, err := r.entryRef(key.OwnerID, entryKey).Delete(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	return err
}

func (r *ProductDraftRepositoryFS) LoadDraft(ctx context.Context, key draftdom.Key) (*draftdom.Draft, error) {
	if err := r.check(key); err != nil {
		return nil, err
	}
	raw, ok, err := r.readPayload(ctx, key, key.DraftEntryKey())
	if err != nil || !ok {
		return nil, err
	}
	d, err := draftdom.DecodeDraft(raw)
	if err != nil {
		draftLog.WithError(err).WithField("owner_id", key.OwnerID).Warn("corrupt draft treated as absent")
		return nil, nil
	}
	return &d, nil
}

func (r *ProductDraftRepositoryFS) SaveDraft(ctx context.Context, key draftdom.Key, d draftdom.Draft) error {
	if err := r.check(key); err != nil {
		return err
	}
	raw, err := draftdom.EncodeDraft(d)
	if err != nil {
		return err
	}
	return r.writePayload(ctx, key, key.DraftEntryKey(), raw)
}

func (r *ProductDraftRepositoryFS) ClearDraft(ctx context.Context, key draftdom.Key) error {
	if err := r.check(key); err != nil {
		return err
	}
	return r.deleteEntry(ctx, key, key.DraftEntryKey())
}

func (r *ProductDraftRepositoryFS) LoadPreviews(ctx context.Context, key draftdom.Key) ([]imgdom.PreviewMeta, error) {
	if err := r.check(key); err != nil {
		return nil, err
	}
	raw, ok, err := r.readPayload(ctx, key, key.PreviewsEntryKey())
	if err != nil || !ok {
		return nil, err
	}
	metas, err := draftdom.DecodePreviews(raw)
	if err != nil {
		draftLog.WithError(err).WithField("owner_id", key.OwnerID).Warn("corrupt previews treated as absent")
		return nil, nil
	}
	return metas, nil
}

func (r *ProductDraftRepositoryFS) SavePreviews(ctx context.Context, key draftdom.Key, metas []imgdom.PreviewMeta) error {
	if err := r.check(key); err != nil {
		return err
	}
	raw, err := draftdom.EncodePreviews(metas)
	if err != nil {
		return err
	}
	return r.writePayload(ctx, key, key.PreviewsEntryKey(), raw)
}

func (r *ProductDraftRepositoryFS) ClearPreviews(ctx context.Context, key draftdom.Key) error {
	if err := r.check(key); err != nil {
		return err
	}
	return r.deleteEntry(ctx, key, key.PreviewsEntryKey())
}
