// backend/internal/adapters/out/firestore/admin_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	admindom "sripavan/internal/domain/admin"
)

// AdminIndexFS implements admin.Index on the admins collection.
//
// - docId: uid
// - fields: uid, email, emailLower, createdAt
type AdminIndexFS struct {
	Client *firestore.Client
}

func NewAdminIndexFS(client *firestore.Client) *AdminIndexFS {
	return &AdminIndexFS{Client: client}
}

func (r *AdminIndexFS) col() *firestore.CollectionRef {
	return r.Client.Collection("admins")
}

// ExistsByEmail is case-insensitive. Entries carry emailLower; entries
// written by older clients only have email, in any casing, and are matched
// by scanning the (small) collection.
func (r *AdminIndexFS) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if r == nil || r.Client == nil {
		return false, errNilClient
	}

	lower := strings.ToLower(strings.TrimSpace(email))
	if lower == "" {
		return false, nil
	}

	ok, err := r.first(ctx, r.col().Where("emailLower", "==", lower).Limit(1))
	if err != nil || ok {
		return ok, err
	}

	it := r.col().Select("email").Documents(ctx)
	defer it.Stop()
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if adminEmailMatches(doc.Data(), lower) {
			return true, nil
		}
	}
}

func (r *AdminIndexFS) first(ctx context.Context, q firestore.Query) (bool, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	_, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// adminEmailMatches compares the stored email case-insensitively.
func adminEmailMatches(data map[string]any, lower string) bool {
	stored := strings.TrimSpace(asString(data["email"]))
	return stored != "" && strings.EqualFold(stored, lower)
}

// Add upserts admins/{uid}.
func (r *AdminIndexFS) Add(ctx context.Context, e admindom.Entry) error {
	if r == nil || r.Client == nil {
		return errNilClient
	}

	e, err := admindom.NewEntry(e.UID, e.Email, e.CreatedAt)
	if err != nil {
		return err
	}

	_, err = r.col().Doc(e.UID).Set(ctx, map[string]any{
		"uid":       e.UID,
		"email":      e.Email,
		"emailLower": e.Email,
		"createdAt":  e.CreatedAt,
	})
	return err
}

var _ admindom.Index = (*AdminIndexFS)(nil)
