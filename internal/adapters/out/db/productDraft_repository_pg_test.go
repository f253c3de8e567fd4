package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

var draftKey = draftdom.Key{OwnerID: "seller-1", Kind: draftdom.KindProduct}

func newMock(t *testing.T) (*ProductDraftRepositoryPG, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProductDraftRepositoryPG(db), mock
}

func TestProductDraftRepositoryPG_SaveDraftUpserts(t *testing.T) {
	repo, mock := newMock(t)

	d := draftdom.New()
	d.Name = "Cement"
	raw, err := draftdom.EncodeDraft(d)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO editor_drafts")).
		WithArgs("seller-1", "product:draft", string(raw), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveDraft(context.Background(), draftKey, d))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductDraftRepositoryPG_LoadDraft(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectEntrySQL)).
		WithArgs("seller-1", "product:draft").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`{"name":"Cement","price":"8500"}`))

	got, err := repo.LoadDraft(context.Background(), draftKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Cement", got.Name)
	assert.Equal(t, "8500", got.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductDraftRepositoryPG_LoadAbsentAndCorrupt(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(selectEntrySQL)).
		WithArgs("seller-1", "product:draft").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))
	got, err := repo.LoadDraft(ctx, draftKey)
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectQuery(regexp.QuoteMeta(selectEntrySQL)).
		WithArgs("seller-1", "product:previews").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(`[{"url":`))
	metas, err := repo.LoadPreviews(ctx, draftKey)
	require.NoError(t, err)
	assert.Nil(t, metas)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductDraftRepositoryPG_LoadPropagatesIOError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectEntrySQL)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.LoadPreviews(context.Background(), draftKey)
	assert.EqualError(t, err, "connection reset")
}

func TestProductDraftRepositoryPG_SaveAndClearPreviews(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO editor_drafts")).
		WithArgs("seller-1", "product:previews", `[{"url":"https://cdn.example.com/a.png","angle":"front","isPrimary":true,"isExisting":true}]`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteEntrySQL)).
		WithArgs("seller-1", "product:previews").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteEntrySQL)).
		WithArgs("seller-1", "product:draft").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SavePreviews(ctx, draftKey, []imgdom.PreviewMeta{
		{URL: "https://cdn.example.com/a.png", Angle: imgdom.AngleFront, IsPrimary: true, IsExisting: true},
	}))
	require.NoError(t, repo.ClearPreviews(ctx, draftKey))
	require.NoError(t, repo.ClearDraft(ctx, draftKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductDraftRepositoryPG_InvalidKey(t *testing.T) {
	repo, _ := newMock(t)
	err := repo.SaveDraft(context.Background(), draftdom.Key{OwnerID: "x", Kind: "bad:kind"}, draftdom.New())
	assert.ErrorIs(t, err, draftdom.ErrInvalidKind)
}
