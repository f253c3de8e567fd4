package httpout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
)

func TestProductAPIClient_Create(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &gotBody))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"p-1","name":"Cement","price":"8500.00","quantity":100,"images":[{"url":"https://cdn/x.png","angle":"front","is_primary":true}]}}`))
	}))
	defer srv.Close()

	c := NewProductAPIClient(srv.URL+"/api/", "tkn", 0)
	p, err := c.Create(context.Background(), productdom.Payload{
		"name":           "Cement",
		"price":          json.Number("8500"),
		"discount_price": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, json.Number("8500.00"), p.Price)
	assert.Equal(t, 100, p.Quantity)
	require.Len(t, p.Images, 1)
	assert.True(t, p.Images[0].IsPrimary)

	assert.Equal(t, "Cement", gotBody["name"])
	assert.Equal(t, float64(8500), gotBody["price"])
	v, ok := gotBody["discount_price"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestProductAPIClient_UpdateAndGetBareBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/p%2F9", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"id":"p/9","name":"Steel"}`))
	}))
	defer srv.Close()

	c := NewProductAPIClient(srv.URL, "", 0)
	p, err := c.Update(context.Background(), "p/9", productdom.Payload{"name": "Steel"})
	require.NoError(t, err)
	assert.Equal(t, "Steel", p.Name)

	p, err = c.Get(context.Background(), "p/9")
	require.NoError(t, err)
	assert.Equal(t, "p/9", p.ID)

	_, err = c.Get(context.Background(), " ")
	assert.ErrorIs(t, err, productdom.ErrInvalidID)
}

func TestProductAPIClient_ValidationError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"price":["must be positive"]}}`))
		}))

		_, err := NewProductAPIClient(srv.URL, "", 0).Create(context.Background(), productdom.Payload{})
		ve, ok := productdom.AsValidationError(err)
		require.True(t, ok, "status %d", status)
		assert.Equal(t, "The given data was invalid.", ve.Message)
		assert.Equal(t, []string{"must be positive"}, ve.Fields["price"])
		srv.Close()
	}
}

func TestProductAPIClient_OtherFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/products/boom":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"database unavailable"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream timeout"))
		}
	}))
	defer srv.Close()
	c := NewProductAPIClient(srv.URL, "", 0)

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, productdom.ErrNotFound)

	_, err = c.Get(context.Background(), "boom")
	assert.EqualError(t, err, "database unavailable")
	_, isVE := productdom.AsValidationError(err)
	assert.False(t, isVE)

	_, err = c.Get(context.Background(), "other")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream timeout", apiErr.Message)
}
