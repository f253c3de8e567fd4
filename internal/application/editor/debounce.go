// backend/internal/application/editor/debounce.go
//
// Responsibility:
// - Draft / プレビューメタの保存をデバウンスする。
// - Clear の前に保留中の保存を取り消し、実行中の保存の完了を待つ。
package editor

import (
	"context"
	"sync"
	"time"

	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

var saverLog = logger.For("editor.saver")

const saveTimeout = 10 * time.Second

type pendingSave struct {
	draft draftdom.Draft
	metas []imgdom.PreviewMeta
}

// DebouncedSaver coalesces bursts of saves for one key. The last scheduled
// state wins.
type DebouncedSaver struct {
	store DraftStore
	key   draftdom.Key
	delay time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	pending  *pendingSave
	inFlight sync.WaitGroup
}

func NewDebouncedSaver(store DraftStore, key draftdom.Key, delay time.Duration) *DebouncedSaver {
	if delay < 0 {
		delay = 0
	}
	return &DebouncedSaver{store: store, key: key, delay: delay}
}

// Schedule records the state to save. With a zero delay it saves before
// returning.
func (s *DebouncedSaver) Schedule(d draftdom.Draft, metas []imgdom.PreviewMeta) {
	p := &pendingSave{draft: d.Clone(), metas: append([]imgdom.PreviewMeta(nil), metas...)}

	if s.delay == 0 {
		s.mu.Lock()
		s.pending = nil
		s.inFlight.Add(1)
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		s.save(ctx, p)
		s.inFlight.Done()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = p
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.fire)
		return
	}
	s.timer.Reset(s.delay)
}

func (s *DebouncedSaver) fire() {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.timer = nil
	if p == nil {
		s.mu.Unlock()
		return
	}
	s.inFlight.Add(1)
	s.mu.Unlock()

	defer s.inFlight.Done()
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	s.save(ctx, p)
}

// Flush saves the pending state now, if any.
func (s *DebouncedSaver) Flush(ctx context.Context) {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if p != nil {
		s.inFlight.Add(1)
	}
	s.mu.Unlock()

	if p != nil {
		s.save(ctx, p)
		s.inFlight.Done()
	}
	s.inFlight.Wait()
}

// Cancel drops the pending state and waits for a save already running.
func (s *DebouncedSaver) Cancel() {
	s.mu.Lock()
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.inFlight.Wait()
}

// Clear cancels pending saves, then removes both persisted entries.
func (s *DebouncedSaver) Clear(ctx context.Context) error {
	s.Cancel()
	return ClearPersisted(ctx, s.store, s.key)
}

// Pending reports whether a save is scheduled.
func (s *DebouncedSaver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *DebouncedSaver) save(ctx context.Context, p *pendingSave) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveDraft(ctx, s.key, p.draft); err != nil {
		saverLog.WithError(err).WithField("owner_id", s.key.OwnerID).Warn("save draft")
	}
	if err := s.store.SavePreviews(ctx, s.key, p.metas); err != nil {
		saverLog.WithError(err).WithField("owner_id", s.key.OwnerID).Warn("save previews")
	}
}

// ClearPersisted removes the field draft and the preview metadata of key.
func ClearPersisted(ctx context.Context, store DraftStore, key draftdom.Key) error {
	if store == nil {
		return nil
	}
	if err := store.ClearDraft(ctx, key); err != nil {
		return err
	}
	return store.ClearPreviews(ctx, key)
}
