package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteKV implements KeyValue on the kv table.
type SQLiteKV struct {
	db *sql.DB
}

func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// ---------------------------------------------------------
// SQLiteEventRepository
// ---------------------------------------------------------

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event LockerEvent) error {
	query := `
		INSERT INTO locker_events (id, timestamp, event_type, actor_id, grid_rows, grid_columns, locker_id, row_index, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Timestamp.UTC(), event.EventType, event.ActorID,
		event.Rows, event.Columns, event.LockerID, event.Row, event.State,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

const eventColumns = `id, timestamp, event_type, actor_id, grid_rows, grid_columns, locker_id, row_index, state`

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]LockerEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []LockerEvent
	for rows.Next() {
		var e LockerEvent
		err := rows.Scan(
			&e.ID, &e.Timestamp, &e.EventType, &e.ActorID,
			&e.Rows, &e.Columns, &e.LockerID, &e.Row, &e.State,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) List(ctx context.Context) ([]LockerEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM locker_events ORDER BY seq ASC`
	return r.getMany(ctx, query)
}

func (r *SQLiteEventRepository) Recent(ctx context.Context, limit int) ([]LockerEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM (
		SELECT seq, ` + eventColumns + ` FROM locker_events ORDER BY seq DESC LIMIT ?
	) ORDER BY seq ASC`
	return r.getMany(ctx, query, limit)
}

func (r *SQLiteEventRepository) ByLocker(ctx context.Context, lockerID int) ([]LockerEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM locker_events WHERE locker_id = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, lockerID)
}

// SQLiteStore bundles the snapshot store and history over one database.
type SQLiteStore struct {
	*SQLiteKV
	Events *SQLiteEventRepository
	db     *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := InitSQLite(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{
		SQLiteKV: NewSQLiteKV(db),
		Events:   NewSQLiteEventRepository(db),
		db:       db,
	}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
