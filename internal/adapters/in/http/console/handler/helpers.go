// backend/internal/adapters/in/http/console/handler/helpers.go
package consoleHandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"
	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
	draftdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/productDraft"
	imgdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/stagedImage"
	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

var handlerLog = logger.For("http.console")

type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string, fields map[string][]string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Fields: fields})
}

// writeErr maps editor/domain errors to status codes.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *productdom.ValidationError
	switch {
	case errors.Is(err, editor.ErrSessionNotFound),
		errors.Is(err, productdom.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, editor.ErrSubmissionInProgress),
		errors.Is(err, editor.ErrNotAtLastStep),
		errors.Is(err, editor.ErrSessionClosed),
		errors.Is(err, editor.ErrSessionSubmitted):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, editor.ErrInvalidActor):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, draftdom.ErrInvalidCondition):
		badRequest(w, err.Error(), map[string][]string{"condition": {"must be one of new, used, refurbished"}})
	case errors.Is(err, imgdom.ErrInvalidAngle):
		badRequest(w, err.Error(), map[string][]string{"angle": {"must be one of front, back, side, top, other"}})
	case errors.Is(err, imgdom.ErrInvalidURL):
		badRequest(w, err.Error(), map[string][]string{"url": {"must be an absolute http(s) URL"}})
	case errors.Is(err, imgdom.ErrIndexOutOfRange),
		errors.Is(err, editor.ErrConfirmationRequired),
		errors.Is(err, productdom.ErrInvalidID),
		errors.Is(err, draftdom.ErrInvalidKind):
		badRequest(w, err.Error(), nil)
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Error(), Fields: ve.Fields})
	default:
		logger.FromContext(r.Context(), handlerLog).WithError(err).WithField("path", r.URL.Path).Error("unhandled error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: editor.MsgFallback})
	}
}

// decodeBody decodes a JSON body; unknown fields are rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseIndex(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// missingFields renders the step predicate result the way validation errors look.
func missingFields(names []string) map[string][]string {
	out := make(map[string][]string, len(names))
	for _, n := range names {
		out[n] = []string{"required"}
	}
	return out
}
