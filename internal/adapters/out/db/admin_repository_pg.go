// backend/internal/adapters/out/db/admin_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	admindom "sripavan/internal/domain/admin"
)

// AdminIndexPG implements admin.Index on documents(collection='admins').
type AdminIndexPG struct {
	docs documents
}

func NewAdminIndexPG(db *sql.DB) *AdminIndexPG {
	return &AdminIndexPG{docs: newDocuments(db)}
}

func (r *AdminIndexPG) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if r.docs.DB == nil {
		return false, errNilDB
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}

	const q = `
SELECT EXISTS (
  SELECT 1 FROM documents
  WHERE collection = $1 AND lower(data->>'email') = $2
)`
	var ok bool
	if err := r.docs.DB.QueryRowContext(ctx, q, colAdmins, email).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Add upserts admins/{uid}.
func (r *AdminIndexPG) Add(ctx context.Context, e admindom.Entry) error {
	e, err := admindom.NewEntry(e.UID, e.Email, e.CreatedAt)
	if err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.docs.upsert(ctx, colAdmins, e.UID, data)
}

var _ admindom.Index = (*AdminIndexPG)(nil)
