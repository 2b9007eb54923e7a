// backend/internal/adapters/out/db/documents_pg.go
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaDDL string

var (
	errNilDB = errors.New("db: *sql.DB is nil")
	// errNoDocument is returned by the helpers when no row matched.
	errNoDocument = errors.New("db: document not found")
	// errDuplicate is returned by insert on a (collection,id) collision.
	errDuplicate = errors.New("db: document already exists")
)

// Collections, named after their Firestore counterparts.
const (
	colUsers  = "users"
	colAdmins = "admins"
	colCarts  = "userCarts"
	colOrders = "orders"
)

// EnsureSchema creates the documents table when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errNilDB
	}
	_, err := db.ExecContext(ctx, schemaDDL)
	return err
}

// documents is the (collection, id) -> JSONB store every repository in
// this package is built on. JSON is bound as text; lib/pq would send []byte
// as bytea.
type documents struct {
	DB  *sql.DB
	now func() time.Time
}

func newDocuments(db *sql.DB) documents {
	return documents{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

func (d documents) get(ctx context.Context, collection, id string) ([]byte, error) {
	if d.DB == nil {
		return nil, errNilDB
	}
	const q = `
SELECT data
FROM documents
WHERE collection = $1 AND id = $2`
	var raw []byte
	err := d.DB.QueryRowContext(ctx, q, collection, strings.TrimSpace(id)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNoDocument
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// insert fails with errDuplicate when the document exists.
func (d documents) insert(ctx context.Context, collection, id string, data []byte) error {
	if d.DB == nil {
		return errNilDB
	}
	now := d.now()
	const q = `
INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)`
	if _, err := d.DB.ExecContext(ctx, q, collection, strings.TrimSpace(id), string(data), now); err != nil {
		if isUniqueViolation(err) {
			return errDuplicate
		}
		return err
	}
	return nil
}

// upsert overwrites the whole document.
func (d documents) upsert(ctx context.Context, collection, id string, data []byte) error {
	if d.DB == nil {
		return errNilDB
	}
	now := d.now()
	const q = `
INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (collection, id)
DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	_, err := d.DB.ExecContext(ctx, q, collection, strings.TrimSpace(id), string(data), now)
	return err
}

// merge shallow-merges patch into the stored document (jsonb ||).
func (d documents) merge(ctx context.Context, collection, id string, patch []byte) error {
	if d.DB == nil {
		return errNilDB
	}
	const q = `
UPDATE documents
SET data = data || $3::jsonb, updated_at = $4
WHERE collection = $1 AND id = $2`
	res, err := d.DB.ExecContext(ctx, q, collection, strings.TrimSpace(id), string(patch), d.now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoDocument
	}
	return nil
}

// remove is idempotent.
func (d documents) remove(ctx context.Context, collection, id string) error {
	if d.DB == nil {
		return errNilDB
	}
	const q = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	_, err := d.DB.ExecContext(ctx, q, collection, strings.TrimSpace(id))
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
