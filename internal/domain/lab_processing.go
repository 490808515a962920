package domain

import "time"

// QC lifecycle of a LabProcessingRecord.
const (
	QCStatusPending = "pending"
	QCStatusPassed  = "passed"
	QCStatusFailed  = "failed"
)

// LabProcessingRecord is the lab shadow of a Sample
// (lab_processing table), 1:1 with the sample by sample_code.
// Created as a placeholder at conversion time and filled in by lab
// staff.
type LabProcessingRecord struct {
	ID string `json:"id" db:"id"` // UUID, PRIMARY KEY

	SampleCode string `json:"sampleCode" db:"sample_code"` // UNIQUE

	Protocol    string `json:"protocol" db:"protocol"`
	QCStatus    string `json:"qcStatus" db:"qc_status"`
	QCNotes     string `json:"qcNotes" db:"qc_notes"`
	LibraryPrep string `json:"libraryPrep" db:"library_prep"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
