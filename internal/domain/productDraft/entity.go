// backend/internal/domain/productDraft/entity.go
package productDraft

import (
	"errors"
	"strings"
)

// Kind は draft を保存するリソース種別（保存キーの一部になる）
type Kind string

const (
	KindProduct Kind = "product"
)

func (k Kind) Valid() bool {
	return strings.TrimSpace(string(k)) != "" && !strings.ContainsAny(string(k), "/: ")
}

// Condition は商品の状態
type Condition string

const (
	ConditionNone        Condition = ""
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "refurbished"
)

func IsValidCondition(c Condition) bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	default:
		return false
	}
}

var (
	ErrInvalidKind      = errors.New("productDraft: invalid kind")
	ErrInvalidCondition = errors.New("productDraft: invalid condition")
	ErrCorrupt          = errors.New("productDraft: corrupt payload")
)

// Draft is the in-progress form state of one product.
//
// Numeric fields are kept as the raw text the seller typed; they are coerced
// to canonical types only when the submission payload is built.
type Draft struct {
	// ProductID is set when the draft edits an existing product.
	ProductID string `json:"productId,omitempty"`

	Name          string `json:"name" validate:"notblank"`
	Description   string `json:"description" validate:"notblank"`
	DescriptionMM string `json:"descriptionMm,omitempty"`

	Price         string `json:"price" validate:"posdecimal"`
	DiscountPrice string `json:"discountPrice,omitempty"`
	Quantity      string `json:"quantity" validate:"nonnegint"`
	MinOrder      string `json:"minOrder" validate:"posint"`
	MinOrderUnit  string `json:"minOrderUnit,omitempty"`

	CategoryID     string            `json:"categoryId" validate:"posint"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Condition      Condition         `json:"condition" validate:"oneof=new used refurbished"`

	ShippingDetails string `json:"shippingDetails,omitempty"`
	Warranty        string `json:"warranty,omitempty"`
	ReturnPolicy    string `json:"returnPolicy,omitempty"`

	IsActive   bool `json:"isActive"`
	IsFeatured bool `json:"isFeatured"`
	IsNew      bool `json:"isNew"`
}

// New returns an empty draft with the defaults the console form starts with.
func New() Draft {
	return Draft{
		MinOrder: "1",
		IsActive: true,
	}
}

// IsEditing reports whether the draft is backed by a persisted product.
func (d Draft) IsEditing() bool {
	return strings.TrimSpace(d.ProductID) != ""
}

// Clone returns a deep copy (specifications map included).
func (d Draft) Clone() Draft {
	out := d
	if d.Specifications != nil {
		out.Specifications = make(map[string]string, len(d.Specifications))
		for k, v := range d.Specifications {
			out.Specifications[k] = v
		}
	}
	return out
}

// Patch - 部分更新: nil のフィールドは更新しない
type Patch struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	DescriptionMM *string `json:"descriptionMm,omitempty"`

	Price         *string `json:"price,omitempty"`
	DiscountPrice *string `json:"discountPrice,omitempty"`
	Quantity      *string `json:"quantity,omitempty"`
	MinOrder      *string `json:"minOrder,omitempty"`
	MinOrderUnit  *string `json:"minOrderUnit,omitempty"`

	CategoryID *string `json:"categoryId,omitempty"`

	// SetSpecifications replaces the whole map; RemoveSpecifications deletes keys.
	SetSpecifications    map[string]string `json:"specifications,omitempty"`
	RemoveSpecifications []string          `json:"removeSpecifications,omitempty"`

	Condition *Condition `json:"condition,omitempty"`

	ShippingDetails *string `json:"shippingDetails,omitempty"`
	Warranty        *string `json:"warranty,omitempty"`
	ReturnPolicy    *string `json:"returnPolicy,omitempty"`

	IsActive   *bool `json:"isActive,omitempty"`
	IsFeatured *bool `json:"isFeatured,omitempty"`
	IsNew      *bool `json:"isNew,omitempty"`
}

// Apply returns a copy of d with p applied.
func (d Draft) Apply(p Patch) (Draft, error) {
	out := d.Clone()

	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}

	setStr(&out.Name, p.Name)
	setStr(&out.Description, p.Description)
	setStr(&out.DescriptionMM, p.DescriptionMM)
	setStr(&out.Price, p.Price)
	setStr(&out.DiscountPrice, p.DiscountPrice)
	setStr(&out.Quantity, p.Quantity)
	setStr(&out.MinOrder, p.MinOrder)
	setStr(&out.MinOrderUnit, p.MinOrderUnit)
	setStr(&out.CategoryID, p.CategoryID)
	setStr(&out.ShippingDetails, p.ShippingDetails)
	setStr(&out.Warranty, p.Warranty)
	setStr(&out.ReturnPolicy, p.ReturnPolicy)
	setBool(&out.IsActive, p.IsActive)
	setBool(&out.IsFeatured, p.IsFeatured)
	setBool(&out.IsNew, p.IsNew)

	if p.Condition != nil {
		c := Condition(strings.ToLower(strings.TrimSpace(string(*p.Condition))))
		if c != ConditionNone && !IsValidCondition(c) {
			return d, ErrInvalidCondition
		}
		out.Condition = c
	}

	if p.SetSpecifications != nil {
		out.Specifications = make(map[string]string, len(p.SetSpecifications))
		for k, v := range p.SetSpecifications {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			out.Specifications[k] = v
		}
	}
	for _, k := range p.RemoveSpecifications {
		delete(out.Specifications, strings.TrimSpace(k))
	}
	if len(out.Specifications) == 0 {
		out.Specifications = nil
	}

	return out, nil
}
