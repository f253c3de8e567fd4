// backend/internal/domain/productDraft/codec.go
package productDraft

import (
	"encoding/json"
	"fmt"
	"strings"

	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

// EncodeDraft serializes d into the stored payload.
func EncodeDraft(d Draft) ([]byte, error) {
	return json.Marshal(d)
}

// DecodeDraft parses a stored payload. Any malformed input yields ErrCorrupt.
func DecodeDraft(raw []byte) (Draft, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Draft{}, ErrCorrupt
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if d.Condition != ConditionNone && !IsValidCondition(d.Condition) {
		return Draft{}, fmt.Errorf("%w: condition %q", ErrCorrupt, d.Condition)
	}
	if len(d.Specifications) == 0 {
		d.Specifications = nil
	}
	return d, nil
}

// EncodePreviews serializes preview metadata. A nil slice encodes as [].
func EncodePreviews(metas []imgdom.PreviewMeta) ([]byte, error) {
	if metas == nil {
		metas = []imgdom.PreviewMeta{}
	}
	return json.Marshal(metas)
}

// DecodePreviews parses a stored preview array. Entries with an unknown angle
// make the whole array corrupt.
func DecodePreviews(raw []byte) ([]imgdom.PreviewMeta, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, ErrCorrupt
	}
	var metas []imgdom.PreviewMeta
	if err := json.Unmarshal(raw, &metas); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for i, m := range metas {
		if !imgdom.IsValidAngle(m.Angle) {
			return nil, fmt.Errorf("%w: preview %d angle %q", ErrCorrupt, i, m.Angle)
		}
	}
	return metas, nil
}
