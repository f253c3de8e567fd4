// backend/internal/application/editor/session.go
//
// Responsibility:
// - 1 アクター × 1 リソース種別の編集セッション。
// - Draft / Stager / Wizard / Submitter を所有し、変更のたびに Draft Store へ保存する。
// - 既存商品の編集中は保存しない。
package editor

import (
	"context"
	"sync"

	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

var sessionLog = logger.For("editor.session")

// Session is the editor state of one actor and kind.
type Session struct {
	mu sync.Mutex

	key   draftdom.Key
	actor Actor

	draft     draftdom.Draft
	stager    *Stager
	wizard    *Wizard
	saver     *DebouncedSaver // nil while editing an existing product
	submitter *Submitter

	closed     bool
	done       bool
	submitting bool // set under mu before the submitter runs
	tornDown   bool
	last       *Result
}

// Snapshot is what a reloaded page needs to render the editor.
type Snapshot struct {
	Editing    bool           `json:"editing"`
	Draft      draftdom.Draft `json:"draft"`
	Images     []ImageView    `json:"images"`
	Wizard     WizardState    `json:"wizard"`
	Progress   Progress       `json:"progress"`
	Submitting bool           `json:"submitting"`
	LastResult *Result        `json:"lastResult,omitempty"`
}

// ImageView is one staged image as shown to the client.
type ImageView struct {
	ID        string       `json:"id"`
	URL       string       `json:"url"`
	Local     bool         `json:"local"`
	Persisted bool         `json:"persisted"`
	Angle     imgdom.Angle `json:"angle"`
	Primary   bool         `json:"primary"`
	FileName  string       `json:"fileName,omitempty"`
	Size      int64        `json:"size,omitempty"`
}

// ViewOf converts a staged image for the client.
func ViewOf(it imgdom.StagedImage) ImageView {
	return ImageView{
		ID:        it.ID,
		URL:       it.URL,
		Local:     it.Local,
		Persisted: it.Persisted,
		Angle:     it.Angle,
		Primary:   it.Primary,
		FileName:  it.FileName,
		Size:      it.Size,
	}
}

func newSession(key draftdom.Key, actor Actor, draft draftdom.Draft, stager *Stager, saver *DebouncedSaver, submitter *Submitter) *Session {
	s := &Session{
		key:       key,
		actor:     actor,
		draft:     draft,
		stager:    stager,
		saver:     saver,
		submitter: submitter,
	}
	s.wizard = NewWizard(func(step StepID) []string {
		return MissingFields(step, s.draft, s.stager.Len())
	})
	return s
}

func (s *Session) Key() draftdom.Key { return s.key }

func (s *Session) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.IsEditing()
}

// guardLocked rejects mutations on a closed, submitted or submitting session.
func (s *Session) guardLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.submitting || s.submitter.InProgress() {
		return ErrSubmissionInProgress
	}
	if s.done {
		return ErrSessionSubmitted
	}
	return nil
}

// Submitting reports whether a submission of this session is running.
func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting || s.submitter.InProgress()
}

// persistLocked schedules a save of the current state (new mode only).
func (s *Session) persistLocked() {
	if s.saver == nil || s.draft.IsEditing() {
		return
	}
	s.saver.Schedule(s.draft, s.stager.Metas())
}

// Update applies a field patch.
func (s *Session) Update(p draftdom.Patch) (draftdom.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(); err != nil {
		return draftdom.Draft{}, err
	}
	next, err := s.draft.Apply(p)
	if err != nil {
		return s.draft.Clone(), err
	}
	s.draft = next
	s.persistLocked()
	return s.draft.Clone(), nil
}

func (s *Session) AddFiles(files []imgdom.File, angle imgdom.Angle) ([]imgdom.StagedImage, []FileRejection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(); err != nil {
		return nil, nil, err
	}
	added, rejected := s.stager.AddFiles(files, angle)
	if len(added) > 0 {
		s.persistLocked()
	}
	return added, rejected, nil
}

func (s *Session) AddFromURL(u string, angle imgdom.Angle) (imgdom.StagedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(); err != nil {
		return imgdom.StagedImage{}, err
	}
	img, err := s.stager.AddFromURL(u, angle)
	if err != nil {
		return imgdom.StagedImage{}, err
	}
	s.persistLocked()
	return img, nil
}

func (s *Session) RemoveImage(index int) error {
	return s.mutateImages(func(st *Stager) error { return st.Remove(index) })
}

func (s *Session) SetPrimary(index int) error {
	return s.mutateImages(func(st *Stager) error { return st.SetPrimary(index) })
}

func (s *Session) ReorderImages(from, to int) error {
	return s.mutateImages(func(st *Stager) error { return st.Reorder(from, to) })
}

func (s *Session) SetAngle(index int, angle imgdom.Angle) error {
	return s.mutateImages(func(st *Stager) error { return st.SetAngle(index, angle) })
}

// ClearImages empties the staged set. confirmed must be true.
func (s *Session) ClearImages(confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	return s.mutateImages(func(st *Stager) error {
		st.ClearAll()
		return nil
	})
}

func (s *Session) mutateImages(fn func(st *Stager) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(); err != nil {
		return err
	}
	if err := fn(s.stager); err != nil {
		return err
	}
	s.persistLocked()
	return nil
}

// Next validates the current step and advances.
func (s *Session) Next() (bool, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(); err != nil {
		return false, nil, err
	}
	ok, missing := s.wizard.Next()
	if !ok {
		sessionLog.WithFields(map[string]any{
			"owner_id": s.key.OwnerID,
			"step":     s.wizard.CurrentStep(),
			"missing":  missing,
		}).Debug("next blocked")
	}
	return ok, missing, nil
}

func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(); err != nil {
		return err
	}
	s.wizard.Previous()
	return nil
}

func (s *Session) GoTo(step int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(); err != nil {
		return false, err
	}
	return s.wizard.GoTo(step), nil
}

func (s *Session) Wizard() WizardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wizard.State()
}

// Submit runs the orchestrator. Only available at the last step.
// Every step is re-checked first: the seller may have cleared images or
// blanked fields after passing a step.
func (s *Session) Submit(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if err := s.guardLocked(); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	if !s.wizard.AtLast() {
		s.mu.Unlock()
		return Result{}, ErrNotAtLastStep
	}
	if fields := s.missingAllLocked(); len(fields) > 0 {
		res := Result{Message: MsgValidationFailed, FieldErrors: fields}
		s.last = &res
		s.mu.Unlock()
		sessionLog.WithFields(map[string]any{
			"owner_id": s.key.OwnerID,
			"missing":  fields,
		}).Debug("submit blocked")
		return res, nil
	}
	in := SubmitInput{
		Key:    s.key,
		Actor:  s.actor,
		Draft:  s.draft.Clone(),
		Stager: s.stager,
	}
	if s.saver != nil {
		in.Clearer = s.saver
	}
	s.submitting = true
	s.mu.Unlock()

	res := s.submitter.Submit(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if res.Busy {
		return res, ErrSubmissionInProgress
	}
	s.last = &res
	if res.OK {
		s.done = true
	} else if !s.closed {
		// re-persist so uploaded images survive as persisted entries
		s.persistLocked()
	}
	if s.closed {
		s.teardownLocked()
	}
	return res, nil
}

// missingAllLocked runs every step check and returns the missing fields.
func (s *Session) missingAllLocked() map[string][]string {
	out := map[string][]string{}
	for _, step := range Steps {
		for _, f := range MissingFields(step, s.draft, s.stager.Len()) {
			out[f] = append(out[f], missingReason(f))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func missingReason(field string) string {
	if field == "images" {
		return "at least one image is required"
	}
	return "is required"
}

// Done reports whether the session submitted successfully.
func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Discard drops the draft: pending saves are cancelled, both persisted
// entries are cleared, and every preview is released.
func (s *Session) Discard(ctx context.Context, store DraftStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting || s.submitter.InProgress() {
		return ErrSubmissionInProgress
	}
	var err error
	if s.saver != nil {
		err = s.saver.Clear(ctx)
	} else {
		err = ClearPersisted(ctx, store, s.key)
	}
	s.closeLocked()
	return err
}

// Close releases every preview without touching the store. Pending saves
// are flushed first.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.saver != nil && !s.done {
		s.saver.Flush(ctx)
	} else if s.saver != nil {
		s.saver.Cancel()
	}
	s.closeLocked()
}

// closeLocked marks the session closed. A running submission still reads
// the stager, so teardown then waits for Submit to return.
func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	if !s.submitting {
		s.teardownLocked()
	}
}

func (s *Session) teardownLocked() {
	if s.tornDown {
		return
	}
	s.stager.Teardown()
	s.tornDown = true
}

// Snapshot returns the current editor state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	imgs := s.stager.Images()
	views := make([]ImageView, 0, len(imgs))
	for _, it := range imgs {
		views = append(views, ViewOf(it))
	}
	return Snapshot{
		Editing:    s.draft.IsEditing(),
		Draft:      s.draft.Clone(),
		Images:     views,
		Wizard:     s.wizard.State(),
		Progress:   s.submitter.Progress(),
		Submitting: s.submitting || s.submitter.InProgress(),
		LastResult: s.last,
	}
}
