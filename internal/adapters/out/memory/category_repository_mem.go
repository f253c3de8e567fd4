// backend/internal/adapters/out/memory/category_repository_mem.go
package memory

import (
	"context"

	catdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/category"
)

// CategoryRepositoryMem serves a fixed category list (local dev without Firestore).
type CategoryRepositoryMem struct {
	rows []catdom.Category
}

func NewCategoryRepositoryMem(rows []catdom.Category) *CategoryRepositoryMem {
	return &CategoryRepositoryMem{rows: append([]catdom.Category(nil), rows...)}
}

func (r *CategoryRepositoryMem) ListCategories(_ context.Context) ([]*catdom.Node, error) {
	return catdom.BuildTree(r.rows), nil
}

// DevCategories は DRAFT_BACKEND=memory 用の最小カテゴリ。
var DevCategories = []catdom.Category{
	{ID: 1, DisplayName: "Building Materials", SortOrder: 1},
	{ID: 12, ParentID: 1, DisplayName: "Cement", SortOrder: 1},
	{ID: 13, ParentID: 1, DisplayName: "Steel", SortOrder: 2},
	{ID: 2, DisplayName: "Electrical", SortOrder: 2},
	{ID: 21, ParentID: 2, DisplayName: "Cables", SortOrder: 1},
}
