// backend/internal/application/editor/stager.go
//
// Responsibility:
// - 商品画像の候補集合（順序付き）を管理する。
// - ローカルファイルは PreviewRegistry のハンドルを所有し、削除・破棄時に必ず解放する。
//
// Invariant:
// - 集合が空でない限り primary はちょうど 1 件。
package editor

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

var stagerLog = logger.For("editor.stager")

// Stager owns the ordered set of staged images of one session.
type Stager struct {
	mu       sync.Mutex
	previews *PreviewRegistry
	policy   imgdom.Policy
	newID    func() string

	items []imgdom.StagedImage
}

func NewStager(previews *PreviewRegistry, policy imgdom.Policy) *Stager {
	if previews == nil {
		previews = NewPreviewRegistry()
	}
	return &Stager{
		previews: previews,
		policy:   policy,
		newID:    func() string { return uuid.NewString() },
	}
}

// AddFiles validates every file and stages the valid ones with a fresh local
// preview. Invalid files are reported without affecting the others.
func (s *Stager) AddFiles(files []imgdom.File, angle imgdom.Angle) ([]imgdom.StagedImage, []FileRejection) {
	if !imgdom.IsValidAngle(angle) {
		angle = imgdom.AngleOther
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]imgdom.StagedImage, 0, len(files))
	var rejected []FileRejection
	for _, f := range files {
		if err := s.policy.ValidateFile(f); err != nil {
			rejected = append(rejected, FileRejection{
				FileName: f.Name,
				Reason:   rejectionReason(err),
			})
			continue
		}

		h := s.previews.Acquire(f)
		img := imgdom.StagedImage{
			ID:            s.newID(),
			URL:           PreviewURL(h),
			PreviewHandle: h,
			Local:         true,
			FileName:      f.Name,
			ContentType:   f.ContentType,
			Size:          f.Size(),
			Angle:         angle,
			Primary:       len(s.items) == 0,
		}
		s.items = append(s.items, img)
		added = append(added, img)
	}
	return added, rejected
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, imgdom.ErrInvalidFileType):
		return imgdom.ReasonInvalidFileType
	case errors.Is(err, imgdom.ErrFileTooLarge):
		return imgdom.ReasonFileTooLarge
	case errors.Is(err, imgdom.ErrEmptyFile):
		return imgdom.ReasonEmptyFile
	default:
		return err.Error()
	}
}

// AddFromURL stages an externally hosted image.
func (s *Stager) AddFromURL(u string, angle imgdom.Angle) (imgdom.StagedImage, error) {
	u = strings.TrimSpace(u)
	if err := imgdom.ValidateRemoteURL(u); err != nil {
		return imgdom.StagedImage{}, err
	}
	if !imgdom.IsValidAngle(angle) {
		angle = imgdom.AngleOther
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	img := imgdom.StagedImage{
		ID:      s.newID(),
		URL:     u,
		Angle:   angle,
		Primary: len(s.items) == 0,
	}
	s.items = append(s.items, img)
	return img, nil
}

// Remove drops the entry at index and releases its preview.
func (s *Stager) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return imgdom.ErrIndexOutOfRange
	}
	removed := s.items[index]
	s.releaseLocked(&removed)
	s.items = append(s.items[:index:index], s.items[index+1:]...)

	if removed.Primary && len(s.items) > 0 {
		for i := range s.items {
			s.items[i].Primary = false
		}
		s.items[0].Primary = true
	}
	return nil
}

// SetPrimary makes index the only primary entry.
func (s *Stager) SetPrimary(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return imgdom.ErrIndexOutOfRange
	}
	for i := range s.items {
		s.items[i].Primary = i == index
	}
	return nil
}

// Reorder moves the entry at from to position to. Metadata is untouched.
func (s *Stager) Reorder(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return imgdom.ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}
	moved := s.items[from]
	rest := append(s.items[:from:from], s.items[from+1:]...)
	out := make([]imgdom.StagedImage, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	s.items = out
	return nil
}

// SetAngle updates the angle tag of index.
func (s *Stager) SetAngle(index int, angle imgdom.Angle) error {
	if !imgdom.IsValidAngle(angle) {
		return imgdom.ErrInvalidAngle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return imgdom.ErrIndexOutOfRange
	}
	s.items[index].Angle = angle
	return nil
}

// ClearAll releases every preview and empties the set. Callers confirm first.
func (s *Stager) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		s.releaseLocked(&s.items[i])
	}
	s.items = nil
}

// Teardown is the end-of-session release path.
func (s *Stager) Teardown() {
	s.ClearAll()
}

// MarkUploaded turns a local entry into a persisted one at url and releases
// its preview.
func (s *Stager) MarkUploaded(id, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		s.releaseLocked(&s.items[i])
		s.items[i].URL = url
		s.items[i].Local = false
		s.items[i].Persisted = true
		return true
	}
	return false
}

// Binary returns the local binary of entry id, if still available.
func (s *Stager) Binary(id string) (imgdom.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.items {
		if it.ID == id && it.Local && it.PreviewHandle != "" {
			return s.previews.Get(it.PreviewHandle)
		}
	}
	return imgdom.File{}, false
}

// Images returns a copy of the staged set in order.
func (s *Stager) Images() []imgdom.StagedImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]imgdom.StagedImage, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Stager) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Metas returns the persistable metadata of the staged set.
func (s *Stager) Metas() []imgdom.PreviewMeta {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]imgdom.PreviewMeta, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.Meta())
	}
	return out
}

// Restore appends entries from persisted metadata (also used to seed an
// editing session). Entries pointing at a local preview are dropped since
// their binary did not survive.
func (s *Stager) Restore(metas []imgdom.PreviewMeta) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for _, m := range metas {
		u := strings.TrimSpace(m.URL)
		if _, local := PreviewHandleFromURL(u); local || u == "" {
			dropped++
			continue
		}
		if imgdom.ValidateRemoteURL(u) != nil {
			dropped++
			continue
		}
		angle := m.Angle
		if !imgdom.IsValidAngle(angle) {
			angle = imgdom.AngleOther
		}
		s.items = append(s.items, imgdom.StagedImage{
			ID:        s.newID(),
			URL:       u,
			Persisted: m.IsExisting,
			Angle:     angle,
			Primary:   m.IsPrimary,
		})
	}
	s.normalizePrimaryLocked()

	if dropped > 0 {
		stagerLog.WithField("dropped", dropped).Info("restore: dropped local previews")
	}
	return dropped
}

func (s *Stager) releaseLocked(img *imgdom.StagedImage) {
	if img.PreviewHandle == "" {
		return
	}
	if err := s.previews.Release(img.PreviewHandle); err != nil {
		stagerLog.WithError(err).WithField("image_id", img.ID).Warn("release preview")
	}
	img.PreviewHandle = ""
}

// normalizePrimaryLocked keeps the first primary and clears the rest; with no
// primary the first entry is promoted.
func (s *Stager) normalizePrimaryLocked() {
	seen := false
	for i := range s.items {
		if s.items[i].Primary && !seen {
			seen = true
			continue
		}
		s.items[i].Primary = false
	}
	if !seen && len(s.items) > 0 {
		s.items[0].Primary = true
	}
}
