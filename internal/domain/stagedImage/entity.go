// backend/internal/domain/stagedImage/entity.go
package stagedImage

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Angle は画像の撮影角度タグ
type Angle string

const (
	AngleFront Angle = "front"
	AngleBack  Angle = "back"
	AngleSide  Angle = "side"
	AngleTop   Angle = "top"
	AngleOther Angle = "other"
)

func IsValidAngle(a Angle) bool {
	switch a {
	case AngleFront, AngleBack, AngleSide, AngleTop, AngleOther:
		return true
	default:
		return false
	}
}

// NormalizeAngle maps empty input to AngleOther and lower-cases the rest.
func NormalizeAngle(v string) (Angle, error) {
	a := Angle(strings.ToLower(strings.TrimSpace(v)))
	if a == "" {
		return AngleOther, nil
	}
	if !IsValidAngle(a) {
		return "", ErrInvalidAngle
	}
	return a, nil
}

// StagedImage is one candidate image of the product being edited.
//
// A local image holds an unsent binary behind PreviewHandle; URL is then the
// preview URL served by the console. A persisted image already lives at a
// durable URL.
type StagedImage struct {
	ID string

	URL           string
	PreviewHandle string
	Local         bool
	Persisted     bool

	FileName    string
	ContentType string
	Size        int64

	Angle   Angle
	Primary bool
}

// PreviewMeta is the persisted form of a staged image. It never carries the
// binary.
type PreviewMeta struct {
	URL        string `json:"url"`
	Angle      Angle  `json:"angle"`
	IsPrimary  bool   `json:"isPrimary"`
	IsExisting bool   `json:"isExisting"`
}

// Meta returns the persisted preview metadata for s.
func (s StagedImage) Meta() PreviewMeta {
	return PreviewMeta{
		URL:        s.URL,
		Angle:      s.Angle,
		IsPrimary:  s.Primary,
		IsExisting: s.Persisted,
	}
}

// File is one binary selected by the seller.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// エラーメッセージ（UI向け）
const (
	ReasonInvalidFileType = "unsupported file type"
	ReasonFileTooLarge    = "file is too large"
	ReasonEmptyFile       = "file is empty"
)

var (
	ErrInvalidFileType = errors.New(ReasonInvalidFileType)
	ErrFileTooLarge    = errors.New(ReasonFileTooLarge)
	ErrEmptyFile       = errors.New(ReasonEmptyFile)
	ErrInvalidAngle    = errors.New("stagedImage: invalid angle")
	ErrInvalidURL      = errors.New("stagedImage: invalid url")
	ErrIndexOutOfRange = errors.New("stagedImage: index out of range")
)

const DefaultMaxImageSizeBytes = 5 * 1024 * 1024 // 5MB

var SupportedImageMIMEs = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

var AllowedExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".webp": {}, ".gif": {},
}

// Policy is the accepted media type and size ceiling for local files.
type Policy struct {
	MaxBytes int64
	MIMEs    map[string]struct{}
}

func DefaultPolicy() Policy {
	return Policy{MaxBytes: DefaultMaxImageSizeBytes, MIMEs: SupportedImageMIMEs}
}

// ValidateFile checks media type and size. The media type is taken from
// ContentType, falling back to the file extension.
func (p Policy) ValidateFile(f File) error {
	if len(f.Data) == 0 {
		return ErrEmptyFile
	}
	mimes := p.MIMEs
	if len(mimes) == 0 {
		mimes = SupportedImageMIMEs
	}

	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(f.Name))
		if _, ok := AllowedExtensions[ext]; !ok {
			return ErrInvalidFileType
		}
	} else if _, ok := mimes[ct]; !ok {
		return ErrInvalidFileType
	}

	max := p.MaxBytes
	if max <= 0 {
		max = DefaultMaxImageSizeBytes
	}
	if f.Size() > max {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, f.Size(), max)
	}
	return nil
}

// ValidateRemoteURL accepts absolute http(s) URLs only.
func ValidateRemoteURL(u string) error {
	u = strings.TrimSpace(u)
	if u == "" {
		return ErrInvalidURL
	}
	pu, err := url.ParseRequestURI(u)
	if err != nil {
		return ErrInvalidURL
	}
	if pu.Scheme != "http" && pu.Scheme != "https" {
		return ErrInvalidURL
	}
	if pu.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
