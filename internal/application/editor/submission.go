// backend/internal/application/editor/submission.go
//
// Responsibility:
// - 二段階コミット: ローカル画像のアップロード → 商品リソースの作成/更新。
// - 部分失敗を許容し、結果は常に値（Result）で返す。
//
// Features:
// - 同時送信の拒否（in-flight ガード）
// - 並列数制限付きアップロード（errgroup.SetLimit）と単調増加の進捗通知
// - 成功したアップロードは即座に persisted に付け替える（再送時に再アップロードしない）
package editor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

var submitLog = logger.For("editor.submit")

const (
	DefaultUploadConcurrency = 3
	tracerName               = "github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"

	reasonPreviewGone = "local preview is no longer available"
)

// DraftClearer clears the persisted entries of one session.
type DraftClearer interface {
	Clear(ctx context.Context) error
}

// SubmitInput is everything one submission reads.
type SubmitInput struct {
	Key    draftdom.Key
	Actor  Actor
	Draft  draftdom.Draft
	Stager *Stager

	// Clearer runs on success; nil clears Key through the store directly.
	Clearer DraftClearer
	// OnProgress is called with strictly increasing completed counts.
	OnProgress func(Progress)
}

// Submitter is the submission orchestrator of one session.
type Submitter struct {
	uploader    AssetUploader
	endpoint    ProductEndpoint
	store       DraftStore
	notifier    PublishNotifier
	concurrency int
	tracer      trace.Tracer

	inFlight atomic.Bool

	pmu      sync.Mutex
	progress Progress
}

func NewSubmitter(
	uploader AssetUploader,
	endpoint ProductEndpoint,
	store DraftStore,
	notifier PublishNotifier,
	concurrency int,
) *Submitter {
	if concurrency <= 0 {
		concurrency = DefaultUploadConcurrency
	}
	return &Submitter{
		uploader:    uploader,
		endpoint:    endpoint,
		store:       store,
		notifier:    notifier,
		concurrency: concurrency,
		tracer:      otel.Tracer(tracerName),
	}
}

// InProgress reports whether a submission is running.
func (s *Submitter) InProgress() bool { return s.inFlight.Load() }

// Progress returns the last published progress.
func (s *Submitter) Progress() Progress {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	return s.progress
}

// Submit runs the two-phase commit. A second call while one is running is
// rejected with ErrSubmissionInProgress in the result message.
func (s *Submitter) Submit(ctx context.Context, in SubmitInput) Result {
	if !s.inFlight.CompareAndSwap(false, true) {
		return Result{Busy: true, Message: ErrSubmissionInProgress.Error()}
	}
	defer s.inFlight.Store(false)

	ctx, span := s.tracer.Start(ctx, "editor.submit",
		trace.WithAttributes(
			attribute.String("owner_id", in.Key.OwnerID),
			attribute.String("kind", string(in.Key.Kind)),
			attribute.Bool("editing", in.Draft.IsEditing()),
		),
	)
	defer span.End()

	log := logger.FromContext(ctx, submitLog).WithField("owner_id", in.Key.OwnerID)

	if in.Stager == nil {
		in.Stager = NewStager(nil, imgdom.DefaultPolicy())
	}

	// 1) uploads
	failures, ok := s.uploadPending(ctx, in)
	if !ok {
		span.SetStatus(otelcodes.Error, MsgUploadFailed)
		log.WithField("failures", len(failures)).Warn("all uploads failed")
		return Result{Message: MsgUploadFailed, UploadFailures: failures}
	}

	// 2) finalized images in staged order
	final := finalImages(in.Stager.Images())

	// 3) payload
	payload, err := BuildPayload(in.Draft, final)
	if err != nil {
		span.SetStatus(otelcodes.Error, "payload")
		res := Result{
			Message:        MsgValidationFailed,
			UploadFailures: failures,
			FinalImages:    final,
		}
		if pe, ok := err.(*PayloadError); ok {
			res.FieldErrors = pe.Fields
		}
		return res
	}

	// 4) resource
	p, created, err := s.callEndpoint(ctx, in.Draft, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "resource")
		res := Result{UploadFailures: failures, FinalImages: final}
		if ve, ok := productdom.AsValidationError(err); ok {
			res.FieldErrors = ve.Fields
			res.Message = strings.TrimSpace(ve.Message)
			if res.Message == "" {
				res.Message = MsgValidationFailed
			}
		} else {
			res.Message = strings.TrimSpace(err.Error())
			if res.Message == "" {
				res.Message = MsgFallback
			}
		}
		log.WithError(err).Warn("resource endpoint failed")
		return res
	}

	// 5) clear persisted state
	if err := s.clear(ctx, in); err != nil {
		log.WithError(err).Warn("clear draft after submit")
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyPublished(ctx, in.Actor, p, created); err != nil {
			log.WithError(err).Warn("publish notification")
		}
	}

	log.WithFields(map[string]any{
		"product_id": p.ID,
		"created":    created,
		"images":     len(final),
	}).Info("submitted")

	return Result{
		OK:             true,
		Created:        created,
		Product:        &p,
		UploadFailures: failures,
		FinalImages:    final,
	}
}

// uploadPending uploads every local image. ok is false only when a non-empty
// pending set produced zero successes.
func (s *Submitter) uploadPending(ctx context.Context, in SubmitInput) ([]UploadFailure, bool) {
	pending := make([]imgdom.StagedImage, 0)
	for _, it := range in.Stager.Images() {
		if it.Local {
			pending = append(pending, it)
		}
	}

	total := len(pending)
	s.publish(in, Progress{Total: total})
	if total == 0 {
		s.publish(in, Progress{Percent: 100})
		return nil, true
	}

	var (
		mu        sync.Mutex
		failures  []UploadFailure
		succeeded int
	)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, img := range pending {
		img := img
		g.Go(func() error {
			url, err := s.uploadOne(ctx, in, img)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, UploadFailure{
					ImageID:  img.ID,
					FileName: img.FileName,
					Reason:   err.Error(),
				})
				return nil
			}
			in.Stager.MarkUploaded(img.ID, url)
			succeeded++
			s.publish(in, Progress{
				Completed: succeeded,
				Total:     total,
				Percent:   succeeded * 100 / total,
			})
			return nil
		})
	}
	_ = g.Wait()

	return failures, succeeded > 0
}

func (s *Submitter) uploadOne(ctx context.Context, in SubmitInput, img imgdom.StagedImage) (string, error) {
	ctx, span := s.tracer.Start(ctx, "editor.upload",
		trace.WithAttributes(
			attribute.String("image_id", img.ID),
			attribute.String("angle", string(img.Angle)),
		),
	)
	defer span.End()

	file, ok := in.Stager.Binary(img.ID)
	if !ok {
		err := submitErr(reasonPreviewGone)
		span.SetStatus(otelcodes.Error, reasonPreviewGone)
		return "", err
	}
	if s.uploader == nil {
		return "", submitErr("uploader is not configured")
	}

	url, err := s.uploader.Upload(ctx, in.Key.OwnerID, file, img.Angle)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "upload")
		return "", err
	}
	if strings.TrimSpace(url) == "" {
		return "", submitErr("upload returned an empty url")
	}
	return url, nil
}

type submitErr string

func (e submitErr) Error() string { return string(e) }

func (s *Submitter) callEndpoint(ctx context.Context, d draftdom.Draft, payload productdom.Payload) (productdom.Product, bool, error) {
	ctx, span := s.tracer.Start(ctx, "editor.resource",
		trace.WithAttributes(attribute.Bool("editing", d.IsEditing())),
	)
	defer span.End()

	if s.endpoint == nil {
		return productdom.Product{}, false, submitErr(MsgFallback)
	}
	if d.IsEditing() {
		p, err := s.endpoint.Update(ctx, strings.TrimSpace(d.ProductID), payload)
		return p, false, err
	}
	p, err := s.endpoint.Create(ctx, payload)
	return p, true, err
}

func (s *Submitter) clear(ctx context.Context, in SubmitInput) error {
	if in.Clearer != nil {
		return in.Clearer.Clear(ctx)
	}
	return ClearPersisted(ctx, s.store, in.Key)
}

// publish must be called with the upload mutex held (or before uploads start).
func (s *Submitter) publish(in SubmitInput, p Progress) {
	s.pmu.Lock()
	s.progress = p
	s.pmu.Unlock()
	if in.OnProgress != nil {
		in.OnProgress(p)
	}
}

// finalImages keeps every non-local entry in order and guarantees exactly
// one primary.
func finalImages(items []imgdom.StagedImage) []productdom.FinalImage {
	out := make([]productdom.FinalImage, 0, len(items))
	primary := false
	for _, it := range items {
		if it.Local {
			continue
		}
		fi := productdom.FinalImage{URL: it.URL, Angle: it.Angle, IsPrimary: it.Primary && !primary}
		if fi.IsPrimary {
			primary = true
		}
		out = append(out, fi)
	}
	if !primary && len(out) > 0 {
		out[0].IsPrimary = true
	}
	return out
}
