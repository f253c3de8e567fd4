// backend/internal/domain/product/entity.go
package product

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

// Image is one image of a persisted product.
type Image struct {
	URL       string       `json:"url"`
	Angle     imgdom.Angle `json:"angle"`
	IsPrimary bool         `json:"is_primary"`
}

// Product is the resource as returned by the remote product API.
type Product struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	DescriptionMM *string           `json:"description_mm,omitempty"`
	Price         json.Number       `json:"price"`
	DiscountPrice *json.Number      `json:"discount_price,omitempty"`
	Quantity      int               `json:"quantity"`
	MinOrder      int               `json:"min_order"`
	MinOrderUnit  *string           `json:"min_order_unit,omitempty"`
	CategoryID    int               `json:"category_id"`
	Specs         map[string]string `json:"specifications,omitempty"`
	Condition     string            `json:"condition"`

	ShippingDetails *string `json:"shipping_details,omitempty"`
	Warranty        *string `json:"warranty,omitempty"`
	ReturnPolicy    *string `json:"return_policy,omitempty"`

	IsActive   bool `json:"is_active"`
	IsFeatured bool `json:"is_featured"`
	IsNew      bool `json:"is_new"`

	Images []Image `json:"images"`

	SellerID  string     `json:"seller_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// FinalImage is an image entry of the submission payload.
type FinalImage struct {
	URL       string       `json:"url"`
	Angle     imgdom.Angle `json:"angle"`
	IsPrimary bool         `json:"is_primary"`
}

// Payload is the wire body sent to create/update. Keys absent from the map
// are omitted; keys mapped to nil are sent as JSON null.
type Payload map[string]any

// Has reports whether key is present (null included).
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Keys returns the payload keys in sorted order.
func (p Payload) Keys() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var (
	ErrNotFound  = errors.New("product: not found")
	ErrInvalidID = errors.New("product: invalid id")
)

// ValidationError is a field-level rejection reported by the resource API.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "validation failed"
	}
	if len(e.Fields) == 0 {
		return "product: " + msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("product: %s (%s)", msg, strings.Join(keys, ", "))
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) && ve != nil {
		return ve, true
	}
	return nil, false
}

// PrimaryImage returns the primary image, or the first one.
func (p Product) PrimaryImage() (Image, bool) {
	for _, im := range p.Images {
		if im.IsPrimary {
			return im, true
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0], true
	}
	return Image{}, false
}
