// Package registry is the closed entity-type registry backing the
// recycle bin. One typed Descriptor per table: the descriptor knows how
// to snapshot a row as JSON, how to reinsert a snapshot, and how to
// delete the row. Dates and decimals survive the round trip because
// snapshots are decoded into the typed domain structs, never into
// map[string]any.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"labtrack/internal/domain"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Descriptor is implemented once per entity. Fetch returns
// domain.ErrNotFound when the row does not exist. Insert decodes the
// snapshot into the entity's typed row and writes every column except
// the excluded ones (DB-defaulted created_at/updated_at); primary keys
// are preserved so references into the row survive a restore.
type Descriptor interface {
	EntityType() domain.EntityType
	Table() string
	IDColumn() string
	ExcludedOnInsert() []string
	Fetch(ctx context.Context, q Querier, id string) (json.RawMessage, error)
	Insert(ctx context.Context, x Execer, snapshot json.RawMessage) error
	Delete(ctx context.Context, x Execer, id string) (bool, error)
}

// Registry is the closed tag → descriptor mapping.
type Registry struct {
	descriptors map[domain.EntityType]Descriptor
	order       []domain.EntityType
}

// New builds a registry. Tags outside the closed set and duplicate
// registrations are rejected here, not discovered at call time.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{descriptors: make(map[domain.EntityType]Descriptor, len(descs))}
	for _, d := range descs {
		t := d.EntityType()
		if !domain.IsKnownEntityType(t) {
			return nil, fmt.Errorf("registry: unknown entity type %q", t)
		}
		if _, dup := r.descriptors[t]; dup {
			return nil, fmt.Errorf("registry: duplicate entity type %q", t)
		}
		r.descriptors[t] = d
		r.order = append(r.order, t)
	}
	return r, nil
}

// Default returns the registry over the full closed set.
func Default() (*Registry, error) {
	return New(
		&userDescriptor{},
		&leadDescriptor{},
		&sampleDescriptor{},
		&labProcessingDescriptor{},
		&financeDescriptor{},
		&geneticCounsellingDescriptor{},
		&reportDescriptor{},
	)
}

// Lookup resolves a tag. The second return is false for tags that were
// never registered.
func (r *Registry) Lookup(t domain.EntityType) (Descriptor, bool) {
	d, ok := r.descriptors[t]
	return d, ok
}

// Types returns the registered tags in registration order.
func (r *Registry) Types() []domain.EntityType {
	out := make([]domain.EntityType, len(r.order))
	copy(out, r.order)
	return out
}
