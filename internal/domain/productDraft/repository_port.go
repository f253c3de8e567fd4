// backend/internal/domain/productDraft/repository_port.go
package productDraft

import (
	"context"
	"strings"

	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

// Key identifies the persisted entries of one owner and resource kind.
type Key struct {
	OwnerID string
	Kind    Kind
}

func (k Key) Valid() bool {
	return strings.TrimSpace(k.OwnerID) != "" && k.Kind.Valid()
}

// DraftEntryKey / PreviewsEntryKey are the two independent entries stored per kind.
func (k Key) DraftEntryKey() string    { return string(k.Kind) + ":draft" }
func (k Key) PreviewsEntryKey() string { return string(k.Kind) + ":previews" }

// Store は draft 永続化の契約（受け身の保存面。データを変更しない）
//
// Load* は「存在しない」「壊れている」の両方で (nil, nil) を返す。
// I/O エラーのみ error を返す。
type Store interface {
	LoadDraft(ctx context.Context, key Key) (*Draft, error)
	SaveDraft(ctx context.Context, key Key, d Draft) error
	ClearDraft(ctx context.Context, key Key) error

	LoadPreviews(ctx context.Context, key Key) ([]imgdom.PreviewMeta, error)
	SavePreviews(ctx context.Context, key Key, metas []imgdom.PreviewMeta) error
	ClearPreviews(ctx context.Context, key Key) error
}
