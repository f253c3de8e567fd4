package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

func pngFile(name string) imgdom.File {
	return imgdom.File{Name: name, ContentType: "image/png", Data: []byte("\x89PNG-" + name)}
}

// fakeUploader fails for file names listed in failFor.
type fakeUploader struct {
	mu      sync.Mutex
	failFor map[string]bool
	calls   []string
	delay   time.Duration
}

func (u *fakeUploader) Upload(ctx context.Context, ownerID string, f imgdom.File, angle imgdom.Angle) (string, error) {
	if u.delay > 0 {
		time.Sleep(u.delay)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, f.Name)
	if u.failFor[f.Name] {
		return "", errors.New("upload refused")
	}
	return fmt.Sprintf("https://storage.googleapis.com/bucket/%s/%s/%s", ownerID, angle, f.Name), nil
}

func (u *fakeUploader) Calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.calls...)
}

type fakeEndpoint struct {
	mu       sync.Mutex
	products map[string]productdom.Product
	err      error
	created  []productdom.Payload
	updated  map[string]productdom.Payload
	next     int
	block    chan struct{}
}

func newFakeEndpoint() *fakeEndpoint {
	return &fakeEndpoint{
		products: map[string]productdom.Product{},
		updated:  map[string]productdom.Payload{},
	}
}

func (e *fakeEndpoint) Get(_ context.Context, id string) (productdom.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.products[id]
	if !ok {
		return productdom.Product{}, productdom.ErrNotFound
	}
	return p, nil
}

func (e *fakeEndpoint) Create(_ context.Context, payload productdom.Payload) (productdom.Product, error) {
	if e.block != nil {
		<-e.block
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return productdom.Product{}, e.err
	}
	e.created = append(e.created, payload)
	e.next++
	p := productdom.Product{ID: fmt.Sprintf("p-%d", e.next)}
	if v, ok := payload["name"].(string); ok {
		p.Name = v
	}
	e.products[p.ID] = p
	return p, nil
}

func (e *fakeEndpoint) Update(_ context.Context, id string, payload productdom.Payload) (productdom.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return productdom.Product{}, e.err
	}
	e.updated[id] = payload
	p := e.products[id]
	p.ID = id
	return p, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (n *fakeNotifier) NotifyPublished(context.Context, Actor, productdom.Product, bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return n.err
}

// completeDraft passes the basic-info and pricing-inventory steps.
func completeDraft() draftdom.Draft {
	d := draftdom.New()
	d.Name = "Cement 50kg"
	d.Description = "Portland cement"
	d.CategoryID = "12"
	d.Price = "8500"
	d.Quantity = "100"
	d.MinOrder = "10"
	d.Condition = draftdom.ConditionNew
	return d
}

func strp(s string) *string { return &s }
