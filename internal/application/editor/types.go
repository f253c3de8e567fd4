// backend/internal/application/editor/types.go
//
// Responsibility:
// - 商品エディタの Port / DTO / エラーを集約する。
// - ビジネス処理は置かない。
package editor

import (
	"context"
	"errors"

	catdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/category"
	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
)

// ==============================
// Ports
// ==============================

// DraftStore persists the field draft and the preview metadata.
type DraftStore = draftdom.Store

// AssetUploader stores one binary and returns its durable URL.
type AssetUploader interface {
	Upload(ctx context.Context, ownerID string, file imgdom.File, angle imgdom.Angle) (string, error)
}

// ProductEndpoint is the remote resource API.
type ProductEndpoint = productdom.Endpoint

// CategoryLookup returns the selectable category tree.
type CategoryLookup = catdom.Lookup

// PublishNotifier is told about successful submissions (best-effort).
type PublishNotifier interface {
	NotifyPublished(ctx context.Context, actor Actor, p productdom.Product, created bool) error
}

// Actor is the authenticated user behind a session.
type Actor struct {
	ID    string
	Email string
	Roles []string
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ==============================
// Values returned to callers
// ==============================

// FileRejection is one file refused by AddFiles.
type FileRejection struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// UploadFailure is one local image that could not be uploaded.
type UploadFailure struct {
	ImageID  string `json:"imageId"`
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// Progress is the upload progress of an in-flight submission.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// Result is the outcome of Submit. It is always a value.
type Result struct {
	OK             bool                    `json:"ok"`
	Busy           bool                    `json:"busy,omitempty"`
	Created        bool                    `json:"created,omitempty"`
	Product        *productdom.Product     `json:"product,omitempty"`
	FieldErrors    map[string][]string     `json:"fieldErrors,omitempty"`
	Message        string                  `json:"message,omitempty"`
	UploadFailures []UploadFailure         `json:"uploadFailures,omitempty"`
	FinalImages    []productdom.FinalImage `json:"finalImages,omitempty"`
}

// ==============================
// Errors / messages
// ==============================

const (
	MsgUploadFailed = "failed to upload images"
	MsgFallback     = "something went wrong"

	MsgValidationFailed = "validation failed"
)

var (
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrNotAtLastStep        = errors.New("editor: submit is only available at the last step")
	ErrAlreadyReleased      = errors.New("editor: preview already released")
	ErrUnknownPreview       = errors.New("editor: unknown preview handle")
	ErrSessionNotFound      = errors.New("editor: session not found")
	ErrSessionClosed        = errors.New("editor: session closed")
	ErrSessionSubmitted     = errors.New("editor: session already submitted")
	ErrInvalidActor         = errors.New("editor: invalid actor")
	ErrConfirmationRequired = errors.New("editor: confirmation required")
)
