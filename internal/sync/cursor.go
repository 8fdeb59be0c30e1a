package syncx

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// CursorStore keeps how far a named consumer has read the event log, so a
// restart resumes instead of replaying history.
type CursorStore interface {
	Load(ctx context.Context, name string) (int64, error)
	Save(ctx context.Context, name string, offset int64) error
}

type CursorRepo struct {
	db *sql.DB
}

func NewCursorRepo(db *sql.DB) *CursorRepo { return &CursorRepo{db: db} }

// Load returns 0 for a consumer that never saved.
func (r *CursorRepo) Load(ctx context.Context, name string) (int64, error) {
	var off int64
	err := r.db.QueryRowContext(ctx,
		`SELECT "offset" FROM sync_cursors WHERE name = $1`, name).Scan(&off)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return off, err
}

func (r *CursorRepo) Save(ctx context.Context, name string, offset int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_cursors (name, "offset") VALUES ($1,$2)
		 ON CONFLICT (name) DO UPDATE SET "offset" = excluded."offset"`,
		name, offset)
	return err
}

type MemoryCursor struct {
	mu      sync.Mutex
	offsets map[string]int64
}

func NewMemoryCursor() *MemoryCursor { return &MemoryCursor{offsets: map[string]int64{}} }

func (m *MemoryCursor) Load(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offsets[name], nil
}

func (m *MemoryCursor) Save(_ context.Context, name string, offset int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets[name] = offset
	return nil
}
