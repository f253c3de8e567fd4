// backend/internal/adapters/in/http/console/handler/category_handler.go
package consoleHandler

import (
	"net/http"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"
)

type CategoryHandler struct {
	reg *editor.Registry
}

func NewCategoryHandler(reg *editor.Registry) *CategoryHandler {
	return &CategoryHandler{reg: reg}
}

// GET /categories
func (h *CategoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tree, err := h.reg.Categories(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}
