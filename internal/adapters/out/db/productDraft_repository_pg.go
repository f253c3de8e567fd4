// backend/internal/adapters/out/db/productDraft_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

// Schema:
//
//	CREATE TABLE editor_drafts (
//	    owner_id   TEXT        NOT NULL,
//	    entry_key  TEXT        NOT NULL,
//	    payload    TEXT        NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (owner_id, entry_key)
//	);

var draftLog = logger.For("db.productDraft")

// ========================================
// Repository Implementation (PostgreSQL)
// ========================================
type ProductDraftRepositoryPG struct {
	DB *sql.DB
}

func NewProductDraftRepositoryPG(db *sql.DB) *ProductDraftRepositoryPG {
	return &ProductDraftRepositoryPG{DB: db}
}

// Ensure interface implementation
var _ draftdom.Store = (*ProductDraftRepositoryPG)(nil)

const (
	selectEntrySQL = `SELECT payload FROM editor_drafts WHERE owner_id = $1 AND entry_key = $2`
	upsertEntrySQL = `
INSERT INTO editor_drafts (owner_id, entry_key, payload, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (owner_id, entry_key)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
`
	deleteEntrySQL = `DELETE FROM editor_drafts WHERE owner_id = $1 AND entry_key = $2`
)

func (r *ProductDraftRepositoryPG) check(key draftdom.Key) error {
	if r == nil || r.DB == nil {
		return errors.New("db is nil")
	}
	if !key.Valid() {
		return draftdom.ErrInvalidKind
	}
	return nil
}

func (r *ProductDraftRepositoryPG) read(ctx context.Context, ownerID, entryKey string) ([]byte, bool, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, selectEntrySQL, ownerID, entryKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(payload), true, nil
}

func (r *ProductDraftRepositoryPG) write(ctx context.Context, ownerID, entryKey string, raw []byte) error {
	_, err := r.DB.ExecContext(ctx, upsertEntrySQL, ownerID, entryKey, string(raw), time.Now().UTC())
	return err
}

func (r *ProductDraftRepositoryPG) remove(ctx context.Context, ownerID, entryKey string) error {
	_, err := r.DB.ExecContext(ctx, deleteEntrySQL, ownerID, entryKey)
	return err
}

// ========================================
// Draft entry
// ========================================
func (r *ProductDraftRepositoryPG) LoadDraft(ctx context.Context, key draftdom.Key) (*draftdom.Draft, error) {
	if err := r.check(key); err != nil {
		return nil, err
	}
	raw, ok, err := r.read(ctx, key.OwnerID, key.DraftEntryKey())
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

func (r *ProductDraftRepositoryPG) SaveDraft(ctx context.Context, key draftdom.Key, d draftdom.Draft) error {
	if err := r.check(key); err != nil {
		return err
	}
	raw, err := draftdom.EncodeDraft(d)
	if err != nil {
		return err
	}
	return r.write(ctx, key.OwnerID, key.DraftEntryKey(), raw)
}

func (r *ProductDraftRepositoryPG) ClearDraft(ctx context.Context, key draftdom.Key) error {
	if err := r.check(key); err != nil {
		return err
	}
	return r.remove(ctx, key.OwnerID, key.DraftEntryKey())
}

// ========================================
// Previews entry
// ========================================
func (r *ProductDraftRepositoryPG) LoadPreviews(ctx context.Context, key draftdom.Key) ([]imgdom.PreviewMeta, error) {
	if err := r.check(key); err != nil {
		return nil, err
	}
	raw, ok, err := r.read(ctx, key.OwnerID, key.PreviewsEntryKey())
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

func (r *ProductDraftRepositoryPG) SavePreviews(ctx context.Context, key draftdom.Key, metas []imgdom.PreviewMeta) error {
	if err := r.check(key); err != nil {
		return err
	}
	raw, err := draftdom.EncodePreviews(metas)
	if err != nil {
		return err
	}
	return r.write(ctx, key.OwnerID, key.PreviewsEntryKey(), raw)
}

func (r *ProductDraftRepositoryPG) ClearPreviews(ctx context.Context, key draftdom.Key) error {
	if err := r.check(key); err != nil {
		return err
	}
	return r.remove(ctx, key.OwnerID, key.PreviewsEntryKey())
}
