// backend/internal/application/editor/registry.go
//
// Responsibility:
// - アクターごとの編集セッションを開く / 取得する / 閉じる。
// - 新規: Draft Store から draft とプレビューメタを復元する（壊れていれば空から開始）。
// - 編集: ProductEndpoint から既存商品を取得して初期化する（保存はしない）。
package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	catdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/category"
	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

var registryLog = logger.For("editor.registry")

// Deps are the collaborators shared by every session.
type Deps struct {
	Store      DraftStore
	Uploader   AssetUploader
	Endpoint   ProductEndpoint
	Categories CategoryLookup
	Notifier   PublishNotifier
	Previews   *PreviewRegistry

	Policy            imgdom.Policy
	UploadConcurrency int
	SaveDebounce      time.Duration
}

// Registry owns the live sessions.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps) *Registry {
	if deps.Previews == nil {
		deps.Previews = NewPreviewRegistry()
	}
	if deps.Policy.MaxBytes <= 0 {
		deps.Policy.MaxBytes = imgdom.DefaultMaxImageSizeBytes
	}
	if len(deps.Policy.MIMEs) == 0 {
		deps.Policy.MIMEs = imgdom.SupportedImageMIMEs
	}
	return &Registry{
		deps:     deps,
		sessions: map[string]*Session{},
	}
}

func sessionKey(ownerID string, kind draftdom.Kind) string {
	return ownerID + "/" + string(kind)
}

// Previews exposes the preview registry (served by the console).
func (r *Registry) Previews() *PreviewRegistry { return r.deps.Previews }

// Open returns the actor's session for kind. An empty productID opens (or
// resumes) a new-product session; otherwise the product is loaded for editing
// and any previous session is closed.
func (r *Registry) Open(ctx context.Context, actor Actor, kind draftdom.Kind, productID string) (*Session, error) {
	actor.ID = strings.TrimSpace(actor.ID)
	if actor.ID == "" {
		return nil, ErrInvalidActor
	}
	key := draftdom.Key{OwnerID: actor.ID, Kind: kind}
	if !key.Valid() {
		return nil, draftdom.ErrInvalidKind
	}
	productID = strings.TrimSpace(productID)
	sk := sessionKey(actor.ID, kind)

	r.mu.Lock()
	existing := r.sessions[sk]
	r.mu.Unlock()

	if existing != nil {
		if productID == "" && !existing.Editing() && !existing.Done() {
			return existing, nil
		}
		if existing.Submitting() {
			return nil, ErrSubmissionInProgress
		}
	}

	var (
		s   *Session
		err error
	)
	if productID == "" {
		if existing != nil {
			// flush the old session first so the restore sees its last state
			existing.Close(ctx)
		}
		s = r.openNew(ctx, key, actor)
	} else {
		s, err = r.openEditing(ctx, key, actor, productID)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	prev := r.sessions[sk]
	r.sessions[sk] = s
	r.mu.Unlock()
	if prev != nil {
		prev.Close(ctx)
	}

	registryLog.WithFields(map[string]any{
		"owner_id": actor.ID,
		"kind":     kind,
		"editing":  productID != "",
	}).Info("session opened")
	return s, nil
}

func (r *Registry) newStager() *Stager {
	return NewStager(r.deps.Previews, r.deps.Policy)
}

func (r *Registry) newSubmitter() *Submitter {
	return NewSubmitter(r.deps.Uploader, r.deps.Endpoint, r.deps.Store, r.deps.Notifier, r.deps.UploadConcurrency)
}

func (r *Registry) openNew(ctx context.Context, key draftdom.Key, actor Actor) *Session {
	log := registryLog.WithField("owner_id", key.OwnerID)

	draft := draftdom.New()
	stager := r.newStager()

	if r.deps.Store != nil {
		d, err := r.deps.Store.LoadDraft(ctx, key)
		switch {
		case err != nil:
			log.WithError(err).Warn("load draft; starting empty")
		case d != nil:
			draft = *d
			draft.ProductID = ""
		}

		metas, err := r.deps.Store.LoadPreviews(ctx, key)
		if err != nil {
			log.WithError(err).Warn("load previews; starting empty")
		} else if len(metas) > 0 {
			stager.Restore(metas)
		}
	}

	saver := NewDebouncedSaver(r.deps.Store, key, r.deps.SaveDebounce)
	return newSession(key, actor, draft, stager, saver, r.newSubmitter())
}

func (r *Registry) openEditing(ctx context.Context, key draftdom.Key, actor Actor, productID string) (*Session, error) {
	if r.deps.Endpoint == nil {
		return nil, productdom.ErrNotFound
	}
	p, err := r.deps.Endpoint.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = productID
	}

	stager := r.newStager()
	metas := make([]imgdom.PreviewMeta, 0, len(p.Images))
	for _, im := range p.Images {
		metas = append(metas, imgdom.PreviewMeta{
			URL:        im.URL,
			Angle:      im.Angle,
			IsPrimary:  im.IsPrimary,
			IsExisting: true,
		})
	}
	stager.Restore(metas)

	return newSession(key, actor, DraftFromProduct(p), stager, nil, r.newSubmitter()), nil
}

// Get returns the live session of actorID and kind.
func (r *Registry) Get(actorID string, kind draftdom.Kind) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionKey(strings.TrimSpace(actorID), kind)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close tears the session down without touching persisted state.
func (r *Registry) Close(ctx context.Context, actorID string, kind draftdom.Kind) {
	r.mu.Lock()
	sk := sessionKey(strings.TrimSpace(actorID), kind)
	s := r.sessions[sk]
	delete(r.sessions, sk)
	r.mu.Unlock()

	if s != nil {
		s.Close(ctx)
	}
}

// Discard clears the persisted draft and closes the session. Without a live
// session the persisted entries are still cleared.
func (r *Registry) Discard(ctx context.Context, actorID string, kind draftdom.Kind) error {
	key := draftdom.Key{OwnerID: strings.TrimSpace(actorID), Kind: kind}
	if !key.Valid() {
		return ErrInvalidActor
	}

	r.mu.Lock()
	sk := sessionKey(key.OwnerID, kind)
	s := r.sessions[sk]
	r.mu.Unlock()

	if s == nil {
		return ClearPersisted(ctx, r.deps.Store, key)
	}
	if err := s.Discard(ctx, r.deps.Store); err != nil {
		if errors.Is(err, ErrSubmissionInProgress) {
			return err
		}
		registryLog.WithError(err).WithField("owner_id", key.OwnerID).Warn("discard")
		r.drop(sk, s)
		return err
	}
	r.drop(sk, s)
	return nil
}

// Submit runs the session's submission and drops the session on success.
func (r *Registry) Submit(ctx context.Context, actorID string, kind draftdom.Kind) (Result, error) {
	s, err := r.Get(actorID, kind)
	if err != nil {
		return Result{}, err
	}
	res, err := s.Submit(ctx)
	if err != nil {
		return res, err
	}
	if res.OK {
		s.Close(ctx)
		r.drop(sessionKey(s.key.OwnerID, kind), s)
	}
	return res, nil
}

func (r *Registry) drop(sk string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[sk] == s {
		delete(r.sessions, sk)
	}
}

// Categories returns the category tree for the basic-info step.
func (r *Registry) Categories(ctx context.Context) ([]*catdom.Node, error) {
	if r.deps.Categories == nil {
		return []*catdom.Node{}, nil
	}
	return r.deps.Categories.ListCategories(ctx)
}

// Shutdown closes every session and releases every remaining preview.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = map[string]*Session{}
	r.mu.Unlock()

	for _, s := range all {
		s.Close(ctx)
	}
	if n := r.deps.Previews.ReleaseAll(); n > 0 {
		registryLog.WithField("released", n).Warn("previews left after session teardown")
	}
}
