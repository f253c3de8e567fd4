// backend/internal/adapters/out/memory/productDraft_repository_mem.go
package memory

import (
	"context"
	"errors"
	"sync"

	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

var log = logger.For("memory.productDraft")

// ProductDraftRepositoryMem keeps serialized entries in process memory.
// Entries go through the same codec as the durable stores.
type ProductDraftRepositoryMem struct {
	mu      sync.Mutex
	entries map[string][]byte // ownerID + "/" + entryKey
}

func NewProductDraftRepositoryMem() *ProductDraftRepositoryMem {
	return &ProductDraftRepositoryMem{entries: map[string][]byte{}}
}

var _ draftdom.Store = (*ProductDraftRepositoryMem)(nil)

func storageKey(ownerID, entryKey string) string {
	return ownerID + "/" + entryKey
}

func (r *ProductDraftRepositoryMem) get(ownerID, entryKey string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.entries[storageKey(ownerID, entryKey)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), raw...), true
}

func (r *ProductDraftRepositoryMem) put(ownerID, entryKey string, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[storageKey(ownerID, entryKey)] = append([]byte(nil), raw...)
}

func (r *ProductDraftRepositoryMem) del(ownerID, entryKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, storageKey(ownerID, entryKey))
}

func (r *ProductDraftRepositoryMem) LoadDraft(_ context.Context, key draftdom.Key) (*draftdom.Draft, error) {
	if !key.Valid() {
		return nil, draftdom.ErrInvalidKind
	}
	raw, ok := r.get(key.OwnerID, key.DraftEntryKey())
	if !ok {
		return nil, nil
	}
	d, err := draftdom.DecodeDraft(raw)
	if err != nil {
		log.WithError(err).WithField("owner_id", key.OwnerID).Warn("corrupt draft treated as absent")
		return nil, nil
	}
	return &d, nil
}

func (r *ProductDraftRepositoryMem) SaveDraft(_ context.Context, key draftdom.Key, d draftdom.Draft) error {
	if !key.Valid() {
		return draftdom.ErrInvalidKind
	}
	raw, err := draftdom.EncodeDraft(d)
	if err != nil {
		return err
	}
	r.put(key.OwnerID, key.DraftEntryKey(), raw)
	return nil
}

func (r *ProductDraftRepositoryMem) ClearDraft(_ context.Context, key draftdom.Key) error {
	if !key.Valid() {
		return draftdom.ErrInvalidKind
	}
	r.del(key.OwnerID, key.DraftEntryKey())
	return nil
}

func (r *ProductDraftRepositoryMem) LoadPreviews(_ context.Context, key draftdom.Key) ([]imgdom.PreviewMeta, error) {
	if !key.Valid() {
		return nil, draftdom.ErrInvalidKind
	}
	raw, ok := r.get(key.OwnerID, key.PreviewsEntryKey())
	if !ok {
		return nil, nil
	}
	metas, err := draftdom.DecodePreviews(raw)
	if err != nil {
		log.WithError(err).WithField("owner_id", key.OwnerID).Warn("corrupt previews treated as absent")
		return nil, nil
	}
	return metas, nil
}

func (r *ProductDraftRepositoryMem) SavePreviews(_ context.Context, key draftdom.Key, metas []imgdom.PreviewMeta) error {
	if !key.Valid() {
		return draftdom.ErrInvalidKind
	}
	raw, err := draftdom.EncodePreviews(metas)
	if err != nil {
		return err
	}
	r.put(key.OwnerID, key.PreviewsEntryKey(), raw)
	return nil
}

func (r *ProductDraftRepositoryMem) ClearPreviews(_ context.Context, key draftdom.Key) error {
	if !key.Valid() {
		return draftdom.ErrInvalidKind
	}
	r.del(key.OwnerID, key.PreviewsEntryKey())
	return nil
}

// PutRaw stores raw bytes under an entry key as-is.
func (r *ProductDraftRepositoryMem) PutRaw(ownerID, entryKey string, raw []byte) error {
	if ownerID == "" || entryKey == "" {
		return errors.New("memory: ownerID and entryKey are required")
	}
	r.put(ownerID, entryKey, raw)
	return nil
}

// Has reports whether an entry exists.
func (r *ProductDraftRepositoryMem) Has(ownerID, entryKey string) bool {
	_, ok := r.get(ownerID, entryKey)
	return ok
}
