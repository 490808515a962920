package domain

import "time"

// GeneticCounsellingRecord tracks a counselling session attached to a
// Sample (genetic_counselling table). Only created at conversion time
// when the lead signals a counselling requirement, or the caller asks
// for one explicitly.
type GeneticCounsellingRecord struct {
	ID string `json:"id" db:"id"` // UUID, PRIMARY KEY

	SampleID string `json:"sampleId" db:"sample_id"`
	LeadID   string `json:"leadId" db:"lead_id"`

	PatientName    string `json:"patientName" db:"patient_name"`
	CounsellorName string `json:"counsellorName" db:"counsellor_name"`
	Status         string `json:"status" db:"status"` // pending | scheduled | completed
	Notes          string `json:"notes" db:"notes"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
