// backend/internal/adapters/out/gcs/profilePhoto_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"

	gcscommon "sripavan/internal/adapters/out/gcs/common"
	usecase "sripavan/internal/application/usecase"
)

// ProfilePhotoRepositoryGCS stores profile photos as
// <bucket>/profilePhotos/<uid>/<uuid>.<ext>, readable through the public URL.
type ProfilePhotoRepositoryGCS struct {
	Client *storage.Client
	Bucket string
}

func NewProfilePhotoRepositoryGCS(client *storage.Client, bucket string) *ProfilePhotoRepositoryGCS {
	return &ProfilePhotoRepositoryGCS{Client: client, Bucket: strings.TrimSpace(bucket)}
}

const profilePhotoPrefix = "profilePhotos/"

func (r *ProfilePhotoRepositoryGCS) bucketName() (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("ProfilePhotoRepositoryGCS: nil storage client")
	}
	if r.Bucket == "" {
		return "", errors.New("ProfilePhotoRepositoryGCS: bucket is empty")
	}
	return r.Bucket, nil
}

// Upload writes the photo and returns its public URL.
func (r *ProfilePhotoRepositoryGCS) Upload(ctx context.Context, uid, contentType string, body io.Reader) (string, error) {
	bucket, err := r.bucketName()
	if err != nil {
		return "", err
	}
	name, err := photoObjectName(uid, contentType, uuid.NewString())
	if err != nil {
		return "", err
	}

	w := r.Client.Bucket(bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("ProfilePhotoRepositoryGCS: write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ProfilePhotoRepositoryGCS: close %s: %w", name, err)
	}
	return gcscommon.GCSPublicURL(bucket, name), nil
}

// Delete removes a photo previously returned by Upload. URLs outside this
// bucket's profile photo prefix are ignored, as are already-deleted objects.
func (r *ProfilePhotoRepositoryGCS) Delete(ctx context.Context, photoURL string) error {
	bucket, err := r.bucketName()
	if err != nil {
		return err
	}
	b, obj, ok := gcscommon.ParseGCSURL(photoURL)
	if !ok || b != bucket || !strings.HasPrefix(obj, profilePhotoPrefix) {
		return nil
	}
	err = r.Client.Bucket(bucket).Object(obj).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func photoObjectName(uid, contentType, id string) (string, error) {
	seg := sanitizePathSegment(uid)
	if seg == "" {
		return "", errors.New("ProfilePhotoRepositoryGCS: uid is empty")
	}
	ext := extensionByMIME(contentType)
	if ext == "" {
		return "", usecase.ErrUnsupportedPhotoType
	}
	return profilePhotoPrefix + seg + "/" + id + ext, nil
}

var _ usecase.PhotoStorage = (*ProfilePhotoRepositoryGCS)(nil)
