// backend/internal/adapters/in/http/mall/handler/profile_photo_handler.go
package mallHandler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	usecase "sripavan/internal/application/usecase"
)

// PhotoReplacer is satisfied by *usecase.ProfilePhotoUsecase.
type PhotoReplacer interface {
	Replace(ctx context.Context, session usecase.ProfileSession, contentType string, size int64, body io.Reader) (string, error)
}

// multipart overhead allowed on top of the photo itself
const photoFormSlack = 1 << 20

type ProfilePhotoHandler struct {
	uc  PhotoReplacer
	log *zap.SugaredLogger
}

func NewProfilePhotoHandler(uc PhotoReplacer, logger *zap.SugaredLogger) *ProfilePhotoHandler {
	return &ProfilePhotoHandler{uc: uc, log: nopIfNil(logger).Named("profile_photo_handler")}
}

// POST /mall/me/profile/photo (multipart field "photo")
func (h *ProfilePhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	d := deviceOrFail(w, r)
	if d == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, usecase.MaxProfilePhotoBytes+photoFormSlack)
	file, fh, err := r.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, r, h.log, usecase.ErrPhotoTooLarge)
			return
		}
		badRequest(w, `multipart field "photo" is required`)
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	url, err := h.uc.Replace(r.Context(), d.Session, fh.Header.Get("Content-Type"), fh.Size, file)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"photoURL": url,
		"session":  d.Session.Snapshot(),
	})
}
