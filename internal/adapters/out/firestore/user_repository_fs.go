// backend/internal/adapters/out/firestore/user_repository_fs.go
package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	udom "sripavan/internal/domain/user"
)

// =====================================================
// Firestore User Repository
// =====================================================
//
// IMPORTANT:
// - users collection DocID is the identity provider UID.
// - Create never auto-generates ids (no NewDoc/Add).
// =====================================================

type UserRepositoryFS struct {
	Client *firestore.Client
}

func NewUserRepositoryFS(client *firestore.Client) *UserRepositoryFS {
	return &UserRepositoryFS{Client: client}
}

func (r *UserRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("users")
}

// GetByUID returns udom.ErrNotFound when users/{uid} is missing.
func (r *UserRepositoryFS) GetByUID(ctx context.Context, uid string) (*udom.User, error) {
	if r == nil || r.Client == nil {
		return nil, errNilClient
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, udom.ErrInvalidUID
	}

	snap, err := r.col().Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, udom.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u := userFromData(snap.Ref.ID, snap.Data())
	return &u, nil
}

// Create fails with udom.ErrConflict when users/{uid} already exists.
func (r *UserRepositoryFS) Create(ctx context.Context, v udom.User) error {
	if r == nil || r.Client == nil {
		return errNilClient
	}

	uid := strings.TrimSpace(v.UID)
	if uid == "" {
		return udom.ErrInvalidUID
	}

	if _, err := r.col().Doc(uid).Create(ctx, userToData(v)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return udom.ErrConflict
		}
		return err
	}
	return nil
}

// SetAdmin overwrites the isAdmin flag.
func (r *UserRepositoryFS) SetAdmin(ctx context.Context, uid string, isAdmin bool) error {
	return r.update(ctx, uid, []firestore.Update{
		{Path: "isAdmin", Value: isAdmin},
	})
}

// UpdateProfile writes the non-nil patch fields; an empty value clears the
// field (null, the shape the storefront writes for "no photo").
func (r *UserRepositoryFS) UpdateProfile(ctx context.Context, uid string, patch udom.ProfilePatch) error {
	var updates []firestore.Update

	setStr := func(path string, p *string) {
		if p == nil {
			return
		}
		v := strings.TrimSpace(*p)
		if v == "" {
			updates = append(updates, firestore.Update{Path: path, Value: nil})
			return
		}
		updates = append(updates, firestore.Update{Path: path, Value: v})
	}
	setStr("displayName", patch.DisplayName)
	setStr("photoURL", patch.PhotoURL)

	if len(updates) == 0 {
		return nil
	}
	return r.update(ctx, uid, updates)
}

func (r *UserRepositoryFS) update(ctx context.Context, uid string, updates []firestore.Update) error {
	if r == nil || r.Client == nil {
		return errNilClient
	}

	uid = strings.TrimSpace(uid)
	if uid == "" {
		return udom.ErrInvalidUID
	}

	updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now().UTC()})

	if _, err := r.col().Doc(uid).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return udom.ErrNotFound
		}
		return err
	}
	return nil
}

// =====================================================
// Mapping
// =====================================================

func userToData(v udom.User) map[string]any {
	now := time.Now().UTC()
	createdAt := now
	if !v.CreatedAt.IsZero() {
		createdAt = v.CreatedAt.UTC()
	}
	updatedAt := createdAt
	if !v.UpdatedAt.IsZero() {
		updatedAt = v.UpdatedAt.UTC()
	}

	// absent profile fields are stored as null
	opt := func(p *string) any {
		if p == nil {
			return nil
		}
		if s := strings.TrimSpace(*p); s != "" {
			return s
		}
		return nil
	}

	return map[string]any{
		"uid":         strings.TrimSpace(v.UID),
		"email":       opt(v.Email),
		"displayName": opt(v.DisplayName),
		"photoURL":    opt(v.PhotoURL),
		"isAdmin":     v.IsAdmin,
		"createdAt":   createdAt,
		"updatedAt":   updatedAt,
	}
}

// userFromData tolerates documents written by the web client
// (missing fields, string timestamps).
func userFromData(docID string, data map[string]any) udom.User {
	u := udom.User{UID: strings.TrimSpace(docID)}
	if data == nil {
		return u
	}
	if u.UID == "" {
		u.UID = strings.TrimSpace(asString(data["uid"]))
	}
	u.Email = asOptString(data["email"])
	u.DisplayName = asOptString(data["displayName"])
	u.PhotoURL = asOptString(data["photoURL"])
	u.IsAdmin = asBool(data["isAdmin"])
	if t, ok := asTime(data["createdAt"]); ok {
		u.CreatedAt = t.UTC()
	}
	if t, ok := asTime(data["updatedAt"]); ok {
		u.UpdatedAt = t.UTC()
	} else {
		u.UpdatedAt = u.CreatedAt
	}
	return u
}

var _ udom.Repository = (*UserRepositoryFS)(nil)
