// backend/internal/adapters/out/http/product_api_client.go
package httpout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

// ProductAPIClient talks to the remote product resource API.
//
//	GET  {base}/products/{id}
//	POST {base}/products
//	PUT  {base}/products/{id}
//
// Responses may be the bare product or wrapped as {"data": {...}}.
// 400/422 with {"message", "errors"} become *product.ValidationError.
type ProductAPIClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// baseURL example:
// - https://api.ekaro.app/api/v1
// - local: http://localhost:8000/api
func NewProductAPIClient(baseURL, token string, timeout time.Duration) *ProductAPIClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ProductAPIClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		client:  &http.Client{Timeout: timeout},
	}
}

var _ productdom.Endpoint = (*ProductAPIClient)(nil)

var apiLog = logger.For("http.productAPI")

// APIError is a non-validation failure reported by the resource API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("product api: status %d", e.Status)
	}
	return e.Message
}

type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func (c *ProductAPIClient) Get(ctx context.Context, id string) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrInvalidID
	}
	return c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil)
}

func (c *ProductAPIClient) Create(ctx context.Context, payload productdom.Payload) (productdom.Product, error) {
	return c.do(ctx, http.MethodPost, "/products", payload)
}

func (c *ProductAPIClient) Update(ctx context.Context, id string, payload productdom.Payload) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, productdom.ErrInvalidID
	}
	return c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), payload)
}

func (c *ProductAPIClient) do(ctx context.Context, method, path string, payload productdom.Payload) (productdom.Product, error) {
	if c == nil {
		return productdom.Product{}, errors.New("product api client is nil")
	}
	if c.baseURL == "" {
		return productdom.Product{}, errors.New("product api client baseURL is empty")
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return productdom.Product{}, fmt.Errorf("product api: encode payload: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return productdom.Product{}, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return productdom.Product{}, err
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<20))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiLog.WithFields(map[string]any{
			"method": method,
			"path":   path,
			"status": res.StatusCode,
		}).Warn("product api call failed")
		return productdom.Product{}, decodeFailure(res.StatusCode, raw)
	}
	return decodeProduct(raw)
}

func decodeFailure(status int, raw []byte) error {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)

	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = strings.TrimSpace(eb.Error)
	}

	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &productdom.ValidationError{Message: msg, Fields: eb.Errors}
	case http.StatusNotFound:
		return productdom.ErrNotFound
	}
	if msg == "" && !json.Valid(raw) {
		// plain text body
		msg = strings.TrimSpace(string(raw))
	}
	return &APIError{Status: status, Message: msg}
}

func decodeProduct(raw []byte) (productdom.Product, error) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		raw = env.Data
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p productdom.Product
	if err := dec.Decode(&p); err != nil {
		return productdom.Product{}, fmt.Errorf("product api: decode response: %w", err)
	}
	return p, nil
}
