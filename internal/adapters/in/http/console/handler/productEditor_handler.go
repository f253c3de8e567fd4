// backend/internal/adapters/in/http/console/handler/productEditor_handler.go
//
// Responsibility:
// - 商品出品エディタ（新規 / 既存編集）の HTTP 面。
// - 認証済み actor ごとのセッションに対して draft 更新、画像ステージング、ウィザード遷移、送信を行う。
package consoleHandler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/adapters/in/http/middleware"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"
	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

// 1 リクエストのマルチパート上限（メモリ保持分）
const multipartMemory = 32 << 20

// 1 リクエストあたりのファイル数上限。本文全体は maxFileBytes * この値 + フォーム分まで。
const (
	maxFilesPerRequest = 10
	multipartOverhead  = 64 << 10
)

type ProductEditorHandler struct {
	reg          *editor.Registry
	maxFileBytes int64
}

func NewProductEditorHandler(reg *editor.Registry, maxFileBytes int64) *ProductEditorHandler {
	if maxFileBytes <= 0 {
		maxFileBytes = imgdom.DefaultMaxImageSizeBytes
	}
	return &ProductEditorHandler{reg: reg, maxFileBytes: maxFileBytes}
}

// Routes mounts every authenticated editor route on r.
func (h *ProductEditorHandler) Routes(r chi.Router) {
	r.Post("/product-editor/sessions", h.open)
	r.Route("/product-editor/session", func(r chi.Router) {
		r.Get("/", h.snapshot)
		r.Delete("/", h.discard)
		r.Patch("/draft", h.updateDraft)

		r.Post("/images", h.addFiles)
		r.Delete("/images", h.clearImages)
		r.Post("/images/url", h.addFromURL)
		r.Post("/images/reorder", h.reorder)
		r.Delete("/images/{index}", h.removeImage)
		r.Put("/images/{index}/primary", h.setPrimary)
		r.Put("/images/{index}/angle", h.setAngle)

		r.Post("/wizard/next", h.next)
		r.Post("/wizard/previous", h.previous)
		r.Post("/wizard/goto/{step}", h.goTo)

		r.Post("/submit", h.submit)
	})
}

// session resolves the caller's live session or writes the error response.
func (h *ProductEditorHandler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	actor, ok := middleware.CurrentActor(r)
	if !ok {
		writeErr(w, r, editor.ErrInvalidActor)
		return nil, false
	}
	s, err := h.reg.Get(actor.ID, draftdom.KindProduct)
	if err != nil {
		writeErr(w, r, err)
		return nil, false
	}
	return s, true
}

// ============================================================
// Session
// ============================================================

type openRequest struct {
	ProductID string `json:"productId"`
}

// POST /product-editor/sessions
func (h *ProductEditorHandler) open(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r)
	if !ok {
		writeErr(w, r, editor.ErrInvalidActor)
		return
	}
	var req openRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(w, "invalid json", nil)
			return
		}
	}

	s, err := h.reg.Open(r.Context(), actor, draftdom.KindProduct, req.ProductID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// GET /product-editor/session
func (h *ProductEditorHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// DELETE /product-editor/session
func (h *ProductEditorHandler) discard(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r)
	if !ok {
		writeErr(w, r, editor.ErrInvalidActor)
		return
	}
	if err := h.reg.Discard(r.Context(), actor.ID, draftdom.KindProduct); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PATCH /product-editor/session/draft
func (h *ProductEditorHandler) updateDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var patch draftdom.Patch
	if err := decodeBody(w, r, &patch); err != nil {
		badRequest(w, "invalid json", nil)
		return
	}
	d, err := s.Update(patch)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ============================================================
// Images
// ============================================================

type addFilesResponse struct {
	Added      []editor.ImageView     `json:"added"`
	Rejections []editor.FileRejection `json:"rejections"`
	Images     []editor.ImageView     `json:"images"`
}

// POST /product-editor/session/images (multipart: files[] + angle)
func (h *ProductEditorHandler) addFiles(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	limit := h.maxFileBytes*maxFilesPerRequest + multipartOverhead
	if r.ContentLength > limit {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
		return
	}
	// chunked body は Content-Length が無いので読み込み側でも止める
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return
		}
		badRequest(w, "invalid multipart form", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	angle, err := imgdom.NormalizeAngle(r.FormValue("angle"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	headers := r.MultipartForm.File["files[]"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		badRequest(w, "no files", map[string][]string{"files": {"required"}})
		return
	}
	if len(headers) > maxFilesPerRequest {
		badRequest(w, "too many files", map[string][]string{"files": {"at most 10 files per request"}})
		return
	}

	files := make([]imgdom.File, 0, len(headers))
	for _, fh := range headers {
		f, err := h.readFile(fh)
		if err != nil {
			badRequest(w, "failed to read file "+fh.Filename, nil)
			return
		}
		files = append(files, f)
	}

	added, rejected, err := s.AddFiles(files, angle)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	resp := addFilesResponse{
		Added:      make([]editor.ImageView, 0, len(added)),
		Rejections: rejected,
		Images:     s.Snapshot().Images,
	}
	if resp.Rejections == nil {
		resp.Rejections = []editor.FileRejection{}
	}
	for _, im := range added {
		resp.Added = append(resp.Added, editor.ViewOf(im))
	}
	writeJSON(w, http.StatusOK, resp)
}

// readFile reads at most maxFileBytes+1 so the size policy can still reject it.
func (h *ProductEditorHandler) readFile(fh *multipart.FileHeader) (imgdom.File, error) {
	f, err := fh.Open()
	if err != nil {
		return imgdom.File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxFileBytes+1))
	if err != nil {
		return imgdom.File{}, err
	}
	return imgdom.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

type addURLRequest struct {
	URL   string `json:"url"`
	Angle string `json:"angle"`
}

// POST /product-editor/session/images/url
func (h *ProductEditorHandler) addFromURL(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req addURLRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "invalid json", nil)
		return
	}
	angle, err := imgdom.NormalizeAngle(req.Angle)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	im, err := s.AddFromURL(req.URL, angle)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, editor.ViewOf(im))
}

// DELETE /product-editor/session/images?confirm=true
func (h *ProductEditorHandler) clearImages(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	confirmed := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("confirm")), "true")
	if err := s.ClearImages(confirmed); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot().Images)
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// POST /product-editor/session/images/reorder
func (h *ProductEditorHandler) reorder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req reorderRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "invalid json", nil)
		return
	}
	if err := s.ReorderImages(req.From, req.To); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot().Images)
}

// withIndex parses {index} and runs fn against the session.
func (h *ProductEditorHandler) withIndex(w http.ResponseWriter, r *http.Request, fn func(s *editor.Session, index int) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	index, ok := parseIndex(chi.URLParam(r, "index"))
	if !ok {
		badRequest(w, "invalid index", nil)
		return
	}
	if err := fn(s, index); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot().Images)
}

// DELETE /product-editor/session/images/{index}
func (h *ProductEditorHandler) removeImage(w http.ResponseWriter, r *http.Request) {
	h.withIndex(w, r, func(s *editor.Session, index int) error {
		return s.RemoveImage(index)
	})
}

// PUT /product-editor/session/images/{index}/primary
func (h *ProductEditorHandler) setPrimary(w http.ResponseWriter, r *http.Request) {
	h.withIndex(w, r, func(s *editor.Session, index int) error {
		return s.SetPrimary(index)
	})
}

type angleRequest struct {
	Angle string `json:"angle"`
}

// PUT /product-editor/session/images/{index}/angle
func (h *ProductEditorHandler) setAngle(w http.ResponseWriter, r *http.Request) {
	var req angleRequest
	if err := decodeBody(w, r, &req); err != nil {
		badRequest(w, "invalid json", nil)
		return
	}
	h.withIndex(w, r, func(s *editor.Session, index int) error {
		return s.SetAngle(index, imgdom.Angle(strings.ToLower(strings.TrimSpace(req.Angle))))
	})
}

// ============================================================
// Wizard
// ============================================================

type nextResponse struct {
	OK      bool               `json:"ok"`
	Missing []string           `json:"missing"`
	Wizard  editor.WizardState `json:"wizard"`
}

// POST /product-editor/session/wizard/next
func (h *ProductEditorHandler) next(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	advanced, missing, err := s.Next()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !advanced {
		badRequest(w, "missing required fields", missingFields(missing))
		return
	}
	writeJSON(w, http.StatusOK, nextResponse{OK: true, Missing: []string{}, Wizard: s.Wizard()})
}

// POST /product-editor/session/wizard/previous
func (h *ProductEditorHandler) previous(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Previous(); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Wizard())
}

// POST /product-editor/session/wizard/goto/{step}
func (h *ProductEditorHandler) goTo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	step, ok := parseIndex(chi.URLParam(r, "step"))
	if !ok {
		badRequest(w, "invalid step", nil)
		return
	}
	moved, err := s.GoTo(step)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if !moved {
		badRequest(w, "step is not reachable", nil)
		return
	}
	writeJSON(w, http.StatusOK, s.Wizard())
}

// ============================================================
// Submit
// ============================================================

// POST /product-editor/session/submit
func (h *ProductEditorHandler) submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r)
	if !ok {
		writeErr(w, r, editor.ErrInvalidActor)
		return
	}
	res, err := h.reg.Submit(r.Context(), actor.ID, draftdom.KindProduct)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	switch {
	case !res.OK:
		writeJSON(w, http.StatusUnprocessableEntity, res)
	case res.Created:
		writeJSON(w, http.StatusCreated, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}
