package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"labtrack/internal/domain"
	"labtrack/internal/registry"
)

// PostgresRecycleStore implements RecycleStore: recycle_bin CRUD plus
// registry-dispatched access to the origin tables.
type PostgresRecycleStore struct {
	db  *sql.DB
	reg *registry.Registry
}

func NewPostgresRecycleStore(db *sql.DB, reg *registry.Registry) *PostgresRecycleStore {
	return &PostgresRecycleStore{db: db, reg: reg}
}

var _ RecycleStore = (*PostgresRecycleStore)(nil)

func (s *PostgresRecycleStore) descriptor(t domain.EntityType) (registry.Descriptor, error) {
	d, ok := s.reg.Lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: entity type %q is not registered", domain.ErrRestore, t)
	}
	return d, nil
}

func (s *PostgresRecycleStore) FetchEntity(ctx context.Context, t domain.EntityType, id string) (json.RawMessage, error) {
	d, err := s.descriptor(t)
	if err != nil {
		return nil, err
	}
	return d.Fetch(ctx, s.db, id)
}

func (s *PostgresRecycleStore) DeleteEntity(ctx context.Context, t domain.EntityType, id string) (bool, error) {
	d, err := s.descriptor(t)
	if err != nil {
		return false, err
	}
	return d.Delete(ctx, s.db, id)
}

func (s *PostgresRecycleStore) InsertEntry(ctx context.Context, e *domain.RecycleBinEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recycle_bin (id, entity_type, entity_id, snapshot, original_path, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, string(e.EntityType), e.EntityID, []byte(e.Snapshot), e.OriginalPath, e.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert recycle entry: %w", err)
	}
	return nil
}

func (s *PostgresRecycleStore) ListEntries(ctx context.Context) ([]*domain.RecycleBinEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id::text, entity_type, entity_id, snapshot, COALESCE(original_path, ''), deleted_at
		FROM recycle_bin
		ORDER BY deleted_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.RecycleBinEntry{}
	for rows.Next() {
		e, err := scanRecycleEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresRecycleStore) GetEntry(ctx context.Context, id string) (*domain.RecycleBinEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id::text, entity_type, entity_id, snapshot, COALESCE(original_path, ''), deleted_at
		FROM recycle_bin
		WHERE id = $1
	`, id)
	e, err := scanRecycleEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: recycle_bin id=%s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *PostgresRecycleStore) DeleteEntry(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recycle_bin WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete recycle entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RestoreEntry: insert-then-delete-snapshot in one transaction. An
// insert failure (typically a unique violation because the entity
// exists again) rolls back and leaves the entry for a retry.
func (s *PostgresRecycleStore) RestoreEntry(ctx context.Context, e *domain.RecycleBinEntry) error {
	d, err := s.descriptor(e.EntityType)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin restore transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := d.Insert(ctx, tx, e.Snapshot); err != nil {
		return fmt.Errorf("%w: reinsert into %s failed: %v", domain.ErrRestore, d.Table(), err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recycle_bin WHERE id = $1`, e.ID); err != nil {
		return fmt.Errorf("%w: failed to remove recycle entry %s: %v", domain.ErrRestore, e.ID, err)
	}

	return tx.Commit()
}

func scanRecycleEntry(scan func(dest ...any) error) (*domain.RecycleBinEntry, error) {
	var e domain.RecycleBinEntry
	var entityType string
	var snapshot []byte
	if err := scan(&e.ID, &entityType, &e.EntityID, &snapshot, &e.OriginalPath, &e.DeletedAt); err != nil {
		return nil, err
	}
	e.EntityType = domain.EntityType(entityType)
	e.Snapshot = json.RawMessage(snapshot)
	return &e, nil
}
