package httpin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/in/http/middleware"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/out/memory"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"
	catdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/category"
	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	if idToken != "good" {
		return nil, errors.New("bad token")
	}
	return &fbauth.Token{UID: "seller-1", Claims: map[string]any{"role": "seller"}}, nil
}

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, ownerID string, f imgdom.File, _ imgdom.Angle) (string, error) {
	return "https://storage.googleapis.com/products/" + ownerID + "/" + f.Name, nil
}

type stubEndpoint struct{ created []productdom.Payload }

func (e *stubEndpoint) Get(context.Context, string) (productdom.Product, error) {
	return productdom.Product{}, productdom.ErrNotFound
}

func (e *stubEndpoint) Create(_ context.Context, p productdom.Payload) (productdom.Product, error) {
	e.created = append(e.created, p)
	name, _ := p["name"].(string)
	return productdom.Product{ID: "p-1", Name: name}, nil
}

func (e *stubEndpoint) Update(context.Context, string, productdom.Payload) (productdom.Product, error) {
	return productdom.Product{}, errors.New("unexpected update")
}

type stubCategories struct{}

func (stubCategories) ListCategories(context.Context) ([]*catdom.Node, error) {
	return catdom.BuildTree([]catdom.Category{{ID: 1, DisplayName: "Building"}, {ID: 12, ParentID: 1, DisplayName: "Cement"}}), nil
}

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func (c client) do(method, path, contentType string, body io.Reader) (int, map[string]any) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.srv.URL+path, body)
	require.NoError(c.t, err)
	req.Header.Set("Authorization", "Bearer good")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(c.t, json.Unmarshal(raw, &out), string(raw))
	}
	return res.StatusCode, out
}

func (c client) json(method, path, body string) (int, map[string]any) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return c.do(method, path, "application/json", r)
}

func newServer(t *testing.T) (client, *editor.Registry, *stubEndpoint) {
	ep := &stubEndpoint{}
	reg := editor.NewRegistry(editor.Deps{
		Store:      memory.NewProductDraftRepositoryMem(),
		Uploader:   stubUploader{},
		Endpoint:   ep,
		Categories: stubCategories{},
		Previews:   editor.NewPreviewRegistry(),
	})
	h := NewRouter(RouterDeps{
		Registry:   reg,
		Auth:       &middleware.AuthMiddleware{Verifier: fakeVerifier{}, RequiredRole: "seller"},
		CORSOrigin: "*",
	})
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		reg.Shutdown(context.Background())
	})
	return client{t: t, srv: srv}, reg, ep
}

func multipartBody(t *testing.T, angle string, files map[string][]byte) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("angle", angle))
	for name, data := range files {
		fw, err := mw.CreateFormFile("files[]", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}

func TestRouter_RequiresAuth(t *testing.T) {
	c, _, _ := newServer(t)

	res, err := http.Post(c.srv.URL+"/product-editor/sessions", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, err = http.Get(c.srv.URL + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRouter_EditorFlow(t *testing.T) {
	c, _, ep := newServer(t)

	code, body := c.json(http.MethodGet, "/product-editor/session", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = c.json(http.MethodPost, "/product-editor/sessions", `{"productId":""}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["wizard"].(map[string]any)["current"])

	code, _ = c.json(http.MethodPatch, "/product-editor/session/draft", `{"name":"Cement 50kg","description":"Portland","categoryId":"12"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = c.json(http.MethodPost, "/product-editor/session/wizard/next", "")
	require.Equal(t, http.StatusOK, code)

	code, body = c.json(http.MethodPost, "/product-editor/session/wizard/next", "")
	require.Equal(t, http.StatusBadRequest, code)
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "condition")

	code, _ = c.json(http.MethodPatch, "/product-editor/session/draft", `{"condition":"broken"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.json(http.MethodPatch, "/product-editor/session/draft", `{"price":"8500","quantity":"100","minOrder":"10","condition":"new"}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = c.json(http.MethodPost, "/product-editor/session/wizard/next", "")
	require.Equal(t, http.StatusOK, code)

	code, body = c.json(http.MethodPost, "/product-editor/session/wizard/next", "")
	require.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["fields"].(map[string]any), "images")

	ct, mp := multipartBody(t, "front", map[string][]byte{
		"front.png": []byte("\x89PNG-front"),
		"notes.txt": []byte("hello"),
	})
	code, body = c.do(http.MethodPost, "/product-editor/session/images", ct, mp)
	require.Equal(t, http.StatusOK, code)
	added := body["added"].([]any)
	require.Len(t, added, 1)
	rejections := body["rejections"].([]any)
	require.Len(t, rejections, 1)
	assert.Equal(t, imgdom.ReasonInvalidFileType, rejections[0].(map[string]any)["reason"])

	previewURL := added[0].(map[string]any)["url"].(string)
	res, err := http.Get(c.srv.URL + previewURL)
	require.NoError(t, err)
	data, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "\x89PNG-front", string(data))

	code, _ = c.json(http.MethodPost, "/product-editor/session/images/url", `{"url":"https://cdn.example.com/side.png","angle":"side"}`)
	require.Equal(t, http.StatusCreated, code)
	code, _ = c.json(http.MethodPost, "/product-editor/session/images/url", `{"url":"ftp://x/y.png"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.json(http.MethodPut, "/product-editor/session/images/1/primary", "")
	require.Equal(t, http.StatusOK, code)
	code, _ = c.json(http.MethodPut, "/product-editor/session/images/9/primary", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = c.json(http.MethodDelete, "/product-editor/session/images", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.json(http.MethodPost, "/product-editor/session/submit", "")
	assert.Equal(t, http.StatusConflict, code)

	code, body = c.json(http.MethodPost, "/product-editor/session/wizard/next", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["wizard"].(map[string]any)["atLast"])

	code, body = c.json(http.MethodPost, "/product-editor/session/submit", "")
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, true, body["ok"])
	require.Len(t, ep.created, 1)
	imgs := ep.created[0]["images"].([]productdom.FinalImage)
	require.Len(t, imgs, 2)
	assert.True(t, imgs[1].IsPrimary)

	res, err = http.Get(c.srv.URL + previewURL)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	code, _ = c.json(http.MethodGet, "/product-editor/session", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRouter_DiscardAndCategories(t *testing.T) {
	c, reg, _ := newServer(t)

	code, _ := c.json(http.MethodPost, "/product-editor/sessions", "")
	require.Equal(t, http.StatusOK, code)
	code, _ = c.json(http.MethodPost, "/product-editor/session/wizard/goto/3", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.json(http.MethodDelete, "/product-editor/session", "")
	assert.Equal(t, http.StatusNoContent, code)
	_, err := reg.Get("seller-1", "product")
	assert.ErrorIs(t, err, editor.ErrSessionNotFound)

	req, _ := http.NewRequest(http.MethodGet, c.srv.URL+"/categories", nil)
	req.Header.Set("Authorization", "Bearer good")
	res, err := c.srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var tree []catdom.Node
	require.NoError(t, json.NewDecoder(res.Body).Decode(&tree))
	require.Len(t, tree, 1)
	assert.Equal(t, "Cement", tree[0].Children[0].DisplayName)
}

func TestRouter_AddFilesBodyLimit(t *testing.T) {
	reg := editor.NewRegistry(editor.Deps{
		Store:    memory.NewProductDraftRepositoryMem(),
		Uploader: stubUploader{},
		Endpoint: &stubEndpoint{},
		Previews: editor.NewPreviewRegistry(),
	})
	h := NewRouter(RouterDeps{
		Registry:     reg,
		Auth:         &middleware.AuthMiddleware{Verifier: fakeVerifier{}, RequiredRole: "seller"},
		CORSOrigin:   "*",
		MaxFileBytes: 16,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		reg.Shutdown(context.Background())
	})
	c := client{t: t, srv: srv}

	code, _ := c.json(http.MethodPost, "/product-editor/sessions", "")
	require.Equal(t, http.StatusOK, code)

	// 16 bytes * 10 files + 64KiB of form overhead is the cap
	ct, mp := multipartBody(t, "front", map[string][]byte{
		"huge.png": bytes.Repeat([]byte{0x89}, 128<<10),
	})
	code, body := c.do(http.MethodPost, "/product-editor/session/images", ct, mp)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "request body too large", body["error"])

	ct, mp = multipartBody(t, "front", map[string][]byte{"small.png": []byte("\x89PNG")})
	code, body = c.do(http.MethodPost, "/product-editor/session/images", ct, mp)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["added"].([]any), 1)

	files := map[string][]byte{}
	for i := 0; i < 11; i++ {
		files[string(rune('a'+i))+".png"] = []byte("\x89PNG")
	}
	ct, mp = multipartBody(t, "front", files)
	code, _ = c.do(http.MethodPost, "/product-editor/session/images", ct, mp)
	assert.Equal(t, http.StatusBadRequest, code)
}
