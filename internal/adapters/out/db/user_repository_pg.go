// backend/internal/adapters/out/db/user_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	udom "sripavan/internal/domain/user"
)

// UserRepositoryPG stores users/{uid} as JSONB documents.
type UserRepositoryPG struct {
	docs documents
}

func NewUserRepositoryPG(db *sql.DB) *UserRepositoryPG {
	return &UserRepositoryPG{docs: newDocuments(db)}
}

func (r *UserRepositoryPG) GetByUID(ctx context.Context, uid string) (*udom.User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, udom.ErrInvalidUID
	}

	raw, err := r.docs.get(ctx, colUsers, uid)
	if errors.Is(err, errNoDocument) {
		return nil, udom.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var u udom.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode users/%s: %w", uid, err)
	}
	u.UID = uid
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	return &u, nil
}

func (r *UserRepositoryPG) Create(ctx context.Context, v udom.User) error {
	uid := strings.TrimSpace(v.UID)
	if uid == "" {
		return udom.ErrInvalidUID
	}
	v.UID = uid
	now := r.docs.now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = v.CreatedAt
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := r.docs.insert(ctx, colUsers, uid, data); err != nil {
		if errors.Is(err, errDuplicate) {
			return udom.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepositoryPG) SetAdmin(ctx context.Context, uid string, isAdmin bool) error {
	return r.merge(ctx, uid, map[string]any{"isAdmin": isAdmin})
}

// UpdateProfile writes the non-nil patch fields; an empty value is stored as null.
func (r *UserRepositoryPG) UpdateProfile(ctx context.Context, uid string, patch udom.ProfilePatch) error {
	fields := map[string]any{}
	set := func(key string, p *string) {
		if p == nil {
			return
		}
		if v := strings.TrimSpace(*p); v != "" {
			fields[key] = v
			return
		}
		fields[key] = nil
	}
	set("displayName", patch.DisplayName)
	set("photoURL", patch.PhotoURL)

	if len(fields) == 0 {
		return nil
	}
	return r.merge(ctx, uid, fields)
}

func (r *UserRepositoryPG) merge(ctx context.Context, uid string, fields map[string]any) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return udom.ErrInvalidUID
	}
	fields["updatedAt"] = r.docs.now().Format(time.RFC3339Nano)

	patch, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := r.docs.merge(ctx, colUsers, uid, patch); err != nil {
		if errors.Is(err, errNoDocument) {
			return udom.ErrNotFound
		}
		return err
	}
	return nil
}

var _ udom.Repository = (*UserRepositoryPG)(nil)
