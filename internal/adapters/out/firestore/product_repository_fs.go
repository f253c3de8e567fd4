// backend/internal/adapters/out/firestore/product_repository_fs.go
package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
)

// Firestore schema:
// - products/{productId}
// fields: the payload keys (snake_case) + created_at / updated_at
//
// NOTE:
// - decimal values that are not integral are stored as strings ("8500.50").
// - used as the product endpoint when no remote product API is configured.

const DefaultProductsCollection = "products"

// requiredProductKeys must be present and non-null on create.
var requiredProductKeys = []string{"name", "description", "price", "quantity", "min_order", "category_id", "condition"}

// ProductRepositoryFS is a Firestore-based product endpoint.
type ProductRepositoryFS struct {
	Client     *gfs.Client
	Collection string
}

func NewProductRepositoryFS(client *gfs.Client, collection string) *ProductRepositoryFS {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = DefaultProductsCollection
	}
	return &ProductRepositoryFS{Client: client, Collection: collection}
}

var _ productdom.Endpoint = (*ProductRepositoryFS)(nil)

func (r *ProductRepositoryFS) col() *gfs.CollectionRef {
	return r.Client.Collection(r.Collection)
}

// Get returns a single Product by ID
func (r *ProductRepositoryFS) Get(ctx context.Context, id string) (productdom.Product, error) {
	if r.Client == nil {
		return productdom.Product{}, errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, "/") {
		return productdom.Product{}, productdom.ErrInvalidID
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return productdom.Product{}, productdom.ErrNotFound
	}
	if err != nil {
		return productdom.Product{}, err
	}
	return productFromData(snap.Ref.ID, snap.Data())
}

// Create inserts a new product (Firestore auto-ID)
func (r *ProductRepositoryFS) Create(ctx context.Context, payload productdom.Payload) (productdom.Product, error) {
	if r.Client == nil {
		return productdom.Product{}, errors.New("firestore client is nil")
	}
	if err := validateProductPayload(payload, true); err != nil {
		return productdom.Product{}, err
	}

	data, err := payloadToData(payload)
	if err != nil {
		return productdom.Product{}, err
	}
	now := time.Now().UTC()
	data["created_at"] = now
	data["updated_at"] = now

	ref := r.col().NewDoc()
	if _, err := ref.Create(ctx, data); err != nil {
		return productdom.Product{}, err
	}
	return productFromData(ref.ID, data)
}

// Update merges payload keys into an existing product.
func (r *ProductRepositoryFS) Update(ctx context.Context, id string, payload productdom.Payload) (productdom.Product, error) {
	if r.Client == nil {
		return productdom.Product{}, errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, "/") {
		return productdom.Product{}, productdom.ErrInvalidID
	}
	if err := validateProductPayload(payload, false); err != nil {
		return productdom.Product{}, err
	}

	data, err := payloadToData(payload)
	if err != nil {
		return productdom.Product{}, err
	}
	data["updated_at"] = time.Now().UTC()

	ref := r.col().Doc(id)
	// 存在しない id への Update は NotFound (Set だと新規作成になる)
	err = r.Client.RunTransaction(ctx, func(ctx context.Context, tx *gfs.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, data, gfs.MergeAll)
	})
	if status.Code(err) == codes.NotFound {
		return productdom.Product{}, productdom.ErrNotFound
	}
	if err != nil {
		return productdom.Product{}, err
	}
	return r.Get(ctx, id)
}

// validateProductPayload mirrors the checks the product API performs.
func validateProductPayload(p productdom.Payload, create bool) error {
	fields := map[string][]string{}
	if create {
		for _, k := range requiredProductKeys {
			if v, ok := p[k]; !ok || v == nil || strings.TrimSpace(asString(v)) == "" {
				fields[k] = append(fields[k], "is required")
			}
		}
	}
	if v, ok := p["images"]; ok {
		imgs, _ := v.([]productdom.FinalImage)
		if len(imgs) == 0 {
			fields["images"] = append(fields["images"], "at least one image is required")
		}
	}
	if len(fields) > 0 {
		return &productdom.ValidationError{Message: "The given data was invalid.", Fields: fields}
	}
	return nil
}

// payloadToData converts the wire payload into Firestore-storable values.
func payloadToData(p productdom.Payload) (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return normalizeNumbers(m).(map[string]any), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = normalizeNumbers(x)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = normalizeNumbers(x)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		return t.String()
	default:
		return v
	}
}

// productFromData decodes a document (map) into a Product.
func productFromData(id string, data map[string]any) (productdom.Product, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return productdom.Product{}, err
	}
	var p productdom.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return productdom.Product{}, err
	}
	p.ID = id
	return p, nil
}
