// backend/internal/adapters/out/firestore/category_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	catdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/category"
)

// Firestore schema:
// - categories/{categoryId}
// fields:
// - id           : number   (optional; docID is used when absent)
// - parent_id    : number   (0 or missing = root)
// - display_name : string
// - sort_order   : number   (optional)

const DefaultCategoriesCollection = "categories"

type CategoryRepositoryFS struct {
	Client     *gfs.Client
	Collection string
}

func NewCategoryRepositoryFS(client *gfs.Client, collection string) *CategoryRepositoryFS {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = DefaultCategoriesCollection
	}
	return &CategoryRepositoryFS{Client: client, Collection: collection}
}

var _ catdom.Lookup = (*CategoryRepositoryFS)(nil)

// ListCategories reads every row and returns the arranged tree.
func (r *CategoryRepositoryFS) ListCategories(ctx context.Context) ([]*catdom.Node, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("firestore client is nil")
	}

	it := r.Client.Collection(r.Collection).Documents(ctx)
	defer it.Stop()

	rows := make([]catdom.Category, 0, 64)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		row, ok := decodeCategory(snap.Ref.ID, snap.Data())
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return catdom.BuildTree(rows), nil
}

func decodeCategory(docID string, data map[string]any) (catdom.Category, bool) {
	id := asInt(data["id"])
	if id <= 0 {
		id = asInt(docID)
	}
	if id <= 0 {
		return catdom.Category{}, false
	}
	name := strings.TrimSpace(asString(data["display_name"]))
	if name == "" {
		// 旧データは "name"
		name = strings.TrimSpace(asString(data["name"]))
	}
	return catdom.Category{
		ID:          id,
		ParentID:    asInt(data["parent_id"]),
		DisplayName: name,
		SortOrder:   asInt(data["sort_order"]),
	}, true
}
