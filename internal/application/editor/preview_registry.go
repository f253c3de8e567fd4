// backend/internal/application/editor/preview_registry.go
//
// Responsibility:
// - ローカルプレビュー（未送信バイナリ）のハンドルを払い出し、明示的に解放する。
// - Acquire と Release は 1:1。二重解放はエラーとして数える。
// - 解放済みハンドルは直近 releasedCap 件だけ覚える (古いものは忘れる)。
package editor

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

// PreviewPathPrefix is the console path live previews are served under.
const PreviewPathPrefix = "/product-editor/previews/"

// PreviewURL returns the console URL of a live preview.
func PreviewURL(handle string) string {
	return PreviewPathPrefix + handle
}

// PreviewHandleFromURL reports whether u points at a local preview.
func PreviewHandleFromURL(u string) (string, bool) {
	u = strings.TrimSpace(u)
	if !strings.HasPrefix(u, PreviewPathPrefix) {
		return "", false
	}
	h := strings.TrimPrefix(u, PreviewPathPrefix)
	if h == "" || strings.Contains(h, "/") {
		return "", false
	}
	return h, true
}

// DefaultReleasedCap is how many released handles are remembered for
// double-release detection.
const DefaultReleasedCap = 4096

// PreviewRegistry maps opaque handles to in-memory binaries.
type PreviewRegistry struct {
	mu             sync.Mutex
	live           map[string]imgdom.File
	released       map[string]struct{}
	releasedOrder  []string // FIFO, oldest first
	releasedCap    int
	doubleReleases int
	newHandle      func() string
}

func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{
		live:        map[string]imgdom.File{},
		released:    map[string]struct{}{},
		releasedCap: DefaultReleasedCap,
		newHandle:   func() string { return uuid.NewString() },
	}
}

// rememberReleasedLocked records h and forgets the oldest entries past the cap.
func (r *PreviewRegistry) rememberReleasedLocked(h string) {
	r.released[h] = struct{}{}
	r.releasedOrder = append(r.releasedOrder, h)
	for len(r.releasedOrder) > r.releasedCap {
		delete(r.released, r.releasedOrder[0])
		r.releasedOrder[0] = ""
		r.releasedOrder = r.releasedOrder[1:]
	}
}

// Acquire stores f and returns its handle.
func (r *PreviewRegistry) Acquire(f imgdom.File) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.newHandle()
	for {
		_, taken := r.live[h]
		_, used := r.released[h]
		if !taken && !used {
			break
		}
		h = r.newHandle()
	}
	r.live[h] = f
	return h
}

// Get returns the binary behind a live handle.
func (r *PreviewRegistry) Get(handle string) (imgdom.File, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.live[handle]
	return f, ok
}

// Release frees handle. A second release of the same handle returns
// ErrAlreadyReleased.
func (r *PreviewRegistry) Release(handle string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live[handle]; ok {
		delete(r.live, handle)
		r.rememberReleasedLocked(handle)
		return nil
	}
	if _, ok := r.released[handle]; ok {
		r.doubleReleases++
		return ErrAlreadyReleased
	}
	return ErrUnknownPreview
}

// ReleaseAll frees every live handle and returns how many were freed.
func (r *PreviewRegistry) ReleaseAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.live)
	for h := range r.live {
		r.rememberReleasedLocked(h)
	}
	r.live = map[string]imgdom.File{}
	return n
}

// Live reports the number of outstanding handles.
func (r *PreviewRegistry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// DoubleReleases reports how many Release calls hit an already freed handle.
func (r *PreviewRegistry) DoubleReleases() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doubleReleases
}
