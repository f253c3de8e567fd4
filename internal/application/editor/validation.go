// backend/internal/application/editor/validation.go
//
// Responsibility:
// - ステップごとの必須項目チェック（validator/v10 の StructPartial を使用）。
// - 数値系のカスタムタグ: posdecimal / nonnegint / posint / notblank
package editor

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"

	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	jsonNames    map[string]string
)

func draftValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("posdecimal", validatePosDecimal)
		_ = v.RegisterValidation("nonnegint", validateNonNegInt)
		_ = v.RegisterValidation("posint", validatePosInt)
		validate = v
		jsonNames = draftJSONNames()
	})
	return validate
}

func validatePosDecimal(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return d.IsPositive()
}

func validateNonNegInt(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
	return err == nil && n >= 0
}

func validatePosInt(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
	return err == nil && n > 0
}

// draftJSONNames maps struct field names to their JSON keys.
func draftJSONNames() map[string]string {
	out := map[string]string{}
	t := reflect.TypeOf(draftdom.Draft{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			name = f.Name
		}
		out[f.Name] = name
	}
	return out
}

// stepFields lists the draft fields each step requires.
var stepFields = map[StepID][]string{
	StepBasicInfo:        {"Name", "Description", "CategoryID"},
	StepPricingInventory: {"Price", "Quantity", "MinOrder", "Condition"},
}

// MissingFields returns the JSON names of the fields of step that fail
// validation. Step media-specs requires at least one staged image; the
// last step has no requirement.
func MissingFields(step StepID, d draftdom.Draft, imageCount int) []string {
	switch step {
	case StepMediaSpecs:
		if imageCount < 1 {
			return []string{"images"}
		}
		return nil
	case StepShippingAndMore:
		return nil
	}

	fields, ok := stepFields[step]
	if !ok {
		return nil
	}
	v := draftValidator()
	err := v.StructPartial(d, fields...)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fieldsToJSON(fields)
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, jsonNames[fe.StructField()])
	}
	return missing
}

func fieldsToJSON(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, jsonNames[f])
	}
	return out
}
