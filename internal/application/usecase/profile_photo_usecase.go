// backend/internal/application/usecase/profile_photo_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	authuc "sripavan/internal/application/usecase/auth"
	userdom "sripavan/internal/domain/user"
)

// MaxProfilePhotoBytes bounds an uploaded profile photo.
const MaxProfilePhotoBytes = 5 << 20

var (
	ErrPhotoStorageMissing  = errors.New("profile photo: storage is not configured")
	ErrUnsupportedPhotoType = errors.New("profile photo: unsupported content type")
	ErrPhotoTooLarge        = errors.New("profile photo: file too large")
)

// PhotoStorage stores profile photos and returns their public URL.
type PhotoStorage interface {
	Upload(ctx context.Context, uid, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, photoURL string) error
}

// ProfileSession is the part of the session manager a photo upload needs.
type ProfileSession interface {
	Current() *userdom.User
	UpdateProfile(ctx context.Context, patch userdom.ProfilePatch) error
}

// ProfilePhotoUsecase uploads a new profile photo and points the identity at it.
type ProfilePhotoUsecase struct {
	storage PhotoStorage
	logger  *zap.SugaredLogger
}

func NewProfilePhotoUsecase(storage PhotoStorage, logger *zap.SugaredLogger) *ProfilePhotoUsecase {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ProfilePhotoUsecase{storage: storage, logger: logger}
}

// Replace uploads the photo, updates the profile and deletes the previous photo.
// size is the declared byte length; the body is read at most MaxProfilePhotoBytes+1.
func (u *ProfilePhotoUsecase) Replace(ctx context.Context, session ProfileSession, contentType string, size int64, body io.Reader) (string, error) {
	if u.storage == nil {
		return "", ErrPhotoStorageMissing
	}
	cur := session.Current()
	if cur == nil {
		return "", authuc.ErrUnauthenticated
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedPhotoType
	}
	if size > MaxProfilePhotoBytes {
		return "", ErrPhotoTooLarge
	}

	lr := &limitedReader{r: io.LimitReader(body, MaxProfilePhotoBytes+1)}
	photoURL, err := u.storage.Upload(ctx, cur.UID, contentType, lr)
	if err != nil {
		return "", fmt.Errorf("profile photo: upload: %w", err)
	}
	if lr.n > MaxProfilePhotoBytes {
		u.discard(ctx, photoURL)
		return "", ErrPhotoTooLarge
	}

	if err := session.UpdateProfile(ctx, userdom.ProfilePatch{PhotoURL: &photoURL}); err != nil {
		u.discard(ctx, photoURL)
		return "", err
	}

	if cur.PhotoURL != nil && *cur.PhotoURL != photoURL {
		u.discard(ctx, *cur.PhotoURL)
	}
	return photoURL, nil
}

func (u *ProfilePhotoUsecase) discard(ctx context.Context, photoURL string) {
	if err := u.storage.Delete(ctx, photoURL); err != nil {
		u.logger.Warnw("delete profile photo failed", "url", photoURL, "err", err)
	}
}

// limitedReader counts the bytes handed to the storage.
type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	return n, err
}
