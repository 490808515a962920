package domain

import "time"

// Report is the downstream deliverable of a completed Sample
// (reports table).
type Report struct {
	ID string `json:"id" db:"id"` // UUID, PRIMARY KEY

	SampleID   string `json:"sampleId" db:"sample_id"`
	ReportType string `json:"reportType" db:"report_type"`
	Status     string `json:"status" db:"status"` // draft | released
	Notes      string `json:"notes" db:"notes"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
