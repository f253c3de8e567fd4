package firestore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

func samplePayload() productdom.Payload {
	return productdom.Payload{
		"name":           "Cement 50kg",
		"description":    "Portland cement",
		"price":          json.Number("8500.50"),
		"discount_price": nil,
		"quantity":       100,
		"min_order":      10,
		"category_id":    12,
		"condition":      "new",
		"is_active":      true,
		"images": []productdom.FinalImage{
			{URL: "https://cdn.example.com/a.png", Angle: imgdom.AngleFront, IsPrimary: true},
		},
	}
}

func TestPayloadToData_ProductFromData(t *testing.T) {
	data, err := payloadToData(samplePayload())
	require.NoError(t, err)

	assert.Equal(t, "8500.50", data["price"])
	assert.Equal(t, int64(100), data["quantity"])
	assert.Nil(t, data["discount_price"])
	imgs := data["images"].([]any)
	require.Len(t, imgs, 1)
	assert.Equal(t, "front", imgs[0].(map[string]any)["angle"])

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data["created_at"] = now

	p, err := productFromData("p-1", data)
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, "Cement 50kg", p.Name)
	assert.Equal(t, json.Number("8500.50"), p.Price)
	assert.Nil(t, p.DiscountPrice)
	assert.Equal(t, 100, p.Quantity)
	assert.Equal(t, 12, p.CategoryID)
	require.Len(t, p.Images, 1)
	assert.True(t, p.Images[0].IsPrimary)
	require.NotNil(t, p.CreatedAt)
	assert.True(t, now.Equal(*p.CreatedAt))
}

func TestValidateProductPayload(t *testing.T) {
	assert.NoError(t, validateProductPayload(samplePayload(), true))

	p := samplePayload()
	delete(p, "name")
	p["price"] = nil
	p["images"] = []productdom.FinalImage{}
	err := validateProductPayload(p, true)
	ve, ok := productdom.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "price")
	assert.Contains(t, ve.Fields, "images")

	// update は部分的でよい
	assert.NoError(t, validateProductPayload(productdom.Payload{"warranty": "1 year"}, false))
}
