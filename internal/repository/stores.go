// Package repository holds the persistence boundary of the core. The
// services receive these interfaces, never a *sql.DB, so tests run
// against the in-memory implementations. Transactions live inside the
// repository methods.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"labtrack/internal/domain"
)

// ConversionRecords is the cluster of rows created by one conversion.
// Counselling is nil when the lead does not require it.
type ConversionRecords struct {
	Sample      *domain.Sample
	Finance     *domain.FinanceRecord
	Lab         *domain.LabProcessingRecord
	Counselling *domain.GeneticCounsellingRecord
}

// ConversionResult is the converted lead plus its record cluster, as
// re-read after the writes.
type ConversionResult struct {
	Lead *domain.Lead
	ConversionRecords
}

// BuildRecordsFunc produces the record cluster for the locked lead. It
// runs inside the conversion transaction; returning an error aborts and
// rolls back everything.
type BuildRecordsFunc func(lead *domain.Lead) (*ConversionRecords, error)

// ConversionStore is the lead/sample side of the core.
type ConversionStore interface {
	GetLead(ctx context.Context, id string) (*domain.Lead, error)

	// UpdateLeadStatus is the generic status write; transition rules
	// are enforced by the caller.
	UpdateLeadStatus(ctx context.Context, id, status string) (*domain.Lead, error)

	// ConvertLead runs the whole conversion atomically: lock the lead
	// row, require status == won, mark it converted at now, insert the
	// records produced by build, and return everything re-read. On any
	// failure nothing is written. Errors: domain.ErrNotFound,
	// domain.ErrPrecondition, domain.ErrConflict (a second conversion
	// raced and won), anything else is a transaction-body failure.
	ConvertLead(ctx context.Context, leadID string, now time.Time, build BuildRecordsFunc) (*ConversionResult, error)

	UpdateSampleStatus(ctx context.Context, id, status string) (*domain.Sample, error)

	// ListActiveUsersByRole backs the post-commit notification fan-out.
	ListActiveUsersByRole(ctx context.Context, role string) ([]*domain.User, error)
}

// RecycleStore is the soft-delete side of the core.
type RecycleStore interface {
	// FetchEntity snapshots a live row as JSON. domain.ErrNotFound if
	// the row does not exist.
	FetchEntity(ctx context.Context, t domain.EntityType, id string) (json.RawMessage, error)

	// DeleteEntity removes the live row. The bool reports whether a row
	// was actually deleted.
	DeleteEntity(ctx context.Context, t domain.EntityType, id string) (bool, error)

	InsertEntry(ctx context.Context, e *domain.RecycleBinEntry) error
	ListEntries(ctx context.Context) ([]*domain.RecycleBinEntry, error)
	GetEntry(ctx context.Context, id string) (*domain.RecycleBinEntry, error)
	DeleteEntry(ctx context.Context, id string) (bool, error)

	// RestoreEntry reinserts the snapshot into its origin table and
	// deletes the recycle entry, atomically. On failure the entry is
	// left intact so the restore can be retried.
	RestoreEntry(ctx context.Context, e *domain.RecycleBinEntry) error
}
