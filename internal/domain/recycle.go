package domain

import (
	"encoding/json"
	"time"
)

// EntityType tags the origin table of a recycle-bin snapshot. The set
// is closed; the registry rejects anything else at construction time.
type EntityType string

const (
	EntityUsers              EntityType = "users"
	EntityLeads              EntityType = "leads"
	EntitySamples            EntityType = "samples"
	EntityLabProcessing      EntityType = "lab_processing"
	EntityFinanceRecords     EntityType = "finance_records"
	EntityGeneticCounselling EntityType = "genetic_counselling"
	EntityReports            EntityType = "reports"
)

// KnownEntityTypes is the closed set, in registration order.
func KnownEntityTypes() []EntityType {
	return []EntityType{
		EntityUsers,
		EntityLeads,
		EntitySamples,
		EntityLabProcessing,
		EntityFinanceRecords,
		EntityGeneticCounselling,
		EntityReports,
	}
}

// IsKnownEntityType reports whether t belongs to the closed set.
func IsKnownEntityType(t EntityType) bool {
	for _, k := range KnownEntityTypes() {
		if k == t {
			return true
		}
	}
	return false
}

// RecycleBinEntry is a full-row snapshot captured before a delete
// (recycle_bin table). Snapshot is the row as JSON; no schema
// versioning is applied, so restoring a snapshot against a table whose
// schema has since changed is undefined.
type RecycleBinEntry struct {
	ID string `json:"id" db:"id"` // UUID, PRIMARY KEY

	EntityType EntityType      `json:"entityType" db:"entity_type"`
	EntityID   string          `json:"entityId" db:"entity_id"`
	Snapshot   json.RawMessage `json:"snapshot" db:"snapshot"`

	// OriginalPath is informational only, e.g. "/samples/<id>".
	OriginalPath string `json:"originalPath" db:"original_path"`

	DeletedAt time.Time `json:"deletedAt" db:"deleted_at"`
}
