// backend/internal/adapters/in/http/console/handler/preview_handler.go
package consoleHandler

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"
)

// PreviewHandler serves live local previews by handle.
// handle は推測不能な uuid なので <img src> から Bearer 無しで読める。
type PreviewHandler struct {
	previews *editor.PreviewRegistry
}

func NewPreviewHandler(previews *editor.PreviewRegistry) *PreviewHandler {
	return &PreviewHandler{previews: previews}
}

// GET /product-editor/previews/{handle}
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimSpace(chi.URLParam(r, "handle"))
	f, ok := h.previews.Get(handle)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: editor.ErrUnknownPreview.Error()})
		return
	}
	if ct := strings.TrimSpace(f.ContentType); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, f.Name, time.Time{}, bytes.NewReader(f.Data))
}
