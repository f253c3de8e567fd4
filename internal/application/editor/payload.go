// backend/internal/application/editor/payload.go
//
// Responsibility:
// - Draft + 確定済み画像から送信ペイロードを組み立てる（純粋関数）。
// - フィールドごとに required / omit-if-empty / null-if-empty を宣言する。
package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
)

// FieldRule says what happens to a field whose value is empty.
type FieldRule int

const (
	Required FieldRule = iota
	OmitIfEmpty
	NullIfEmpty
)

type valueKind int

const (
	kindText valueKind = iota
	kindDecimal
	kindInt
)

type fieldSpec struct {
	key  string
	rule FieldRule
	kind valueKind
	get  func(d draftdom.Draft) string
}

var payloadFields = []fieldSpec{
	{"name", Required, kindText, func(d draftdom.Draft) string { return d.Name }},
	{"description", Required, kindText, func(d draftdom.Draft) string { return d.Description }},
	{"description_mm", OmitIfEmpty, kindText, func(d draftdom.Draft) string { return d.DescriptionMM }},
	{"price", Required, kindDecimal, func(d draftdom.Draft) string { return d.Price }},
	{"discount_price", NullIfEmpty, kindDecimal, func(d draftdom.Draft) string { return d.DiscountPrice }},
	{"quantity", Required, kindInt, func(d draftdom.Draft) string { return d.Quantity }},
	{"min_order", Required, kindInt, func(d draftdom.Draft) string { return d.MinOrder }},
	{"min_order_unit", OmitIfEmpty, kindText, func(d draftdom.Draft) string { return d.MinOrderUnit }},
	{"category_id", Required, kindInt, func(d draftdom.Draft) string { return d.CategoryID }},
	{"condition", Required, kindText, func(d draftdom.Draft) string { return string(d.Condition) }},
	{"shipping_details", OmitIfEmpty, kindText, func(d draftdom.Draft) string { return d.ShippingDetails }},
	{"warranty", OmitIfEmpty, kindText, func(d draftdom.Draft) string { return d.Warranty }},
	{"return_policy", OmitIfEmpty, kindText, func(d draftdom.Draft) string { return d.ReturnPolicy }},
}

// PayloadError lists the fields that could not be coerced.
type PayloadError struct {
	Fields map[string][]string
}

func (e *PayloadError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("editor: invalid payload fields: %s", strings.Join(keys, ", "))
}

// BuildPayload coerces d into the wire payload and appends images in order.
func BuildPayload(d draftdom.Draft, images []productdom.FinalImage) (productdom.Payload, error) {
	p := productdom.Payload{}
	bad := map[string][]string{}

	for _, f := range payloadFields {
		raw := strings.TrimSpace(f.get(d))
		if raw == "" {
			switch f.rule {
			case Required:
				bad[f.key] = append(bad[f.key], "is required")
			case NullIfEmpty:
				p[f.key] = nil
			}
			continue
		}

		v, err := coerce(f.kind, raw)
		if err != nil {
			bad[f.key] = append(bad[f.key], err.Error())
			continue
		}
		p[f.key] = v
	}

	if len(d.Specifications) > 0 {
		specs := make(map[string]string, len(d.Specifications))
		for k, v := range d.Specifications {
			specs[k] = v
		}
		p["specifications"] = specs
	}

	p["is_active"] = d.IsActive
	p["is_featured"] = d.IsFeatured
	p["is_new"] = d.IsNew

	imgs := make([]productdom.FinalImage, len(images))
	copy(imgs, images)
	p["images"] = imgs

	if len(bad) > 0 {
		return nil, &PayloadError{Fields: bad}
	}
	return p, nil
}

func coerce(kind valueKind, raw string) (any, error) {
	switch kind {
	case kindDecimal:
		dv, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.New("must be a number")
		}
		return json.Number(dv.String()), nil
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("must be an integer")
		}
		return n, nil
	default:
		return raw, nil
	}
}

// DraftFromProduct seeds an editing draft from a persisted product.
func DraftFromProduct(p productdom.Product) draftdom.Draft {
	d := draftdom.New()
	d.ProductID = p.ID
	d.Name = p.Name
	d.Description = p.Description
	d.DescriptionMM = deref(p.DescriptionMM)
	d.Price = p.Price.String()
	if p.DiscountPrice != nil {
		d.DiscountPrice = p.DiscountPrice.String()
	}
	d.Quantity = strconv.Itoa(p.Quantity)
	d.MinOrder = strconv.Itoa(p.MinOrder)
	d.MinOrderUnit = deref(p.MinOrderUnit)
	if p.CategoryID > 0 {
		d.CategoryID = strconv.Itoa(p.CategoryID)
	}
	if len(p.Specs) > 0 {
		d.Specifications = make(map[string]string, len(p.Specs))
		for k, v := range p.Specs {
			d.Specifications[k] = v
		}
	}
	if c := draftdom.Condition(p.Condition); draftdom.IsValidCondition(c) {
		d.Condition = c
	}
	d.ShippingDetails = deref(p.ShippingDetails)
	d.Warranty = deref(p.Warranty)
	d.ReturnPolicy = deref(p.ReturnPolicy)
	d.IsActive = p.IsActive
	d.IsFeatured = p.IsFeatured
	d.IsNew = p.IsNew
	return d
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
