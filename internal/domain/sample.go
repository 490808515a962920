package domain

import "time"

// Lab destinations. third_party inserts the forwarding branch into the
// sample pipeline.
const (
	LabDestinationInHouse    = "in_house"
	LabDestinationThirdParty = "third_party"
)

// Sample is the physical specimen tracked through the lab
// (samples table). Created exactly once per Lead, by conversion.
type Sample struct {
	ID string `json:"id" db:"id"` // UUID, PRIMARY KEY

	// SampleCode is the human-readable generated id, e.g. PG240115093021.
	// UNIQUE.
	SampleCode string `json:"sampleId" db:"sample_code"`

	// LeadID carries a UNIQUE constraint: one sample per lead.
	LeadID string `json:"leadId" db:"lead_id"`

	Status         string `json:"status" db:"status"`
	LabDestination string `json:"labDestination" db:"lab_destination"`
	SampleType     string `json:"sampleType" db:"sample_type"`

	// Denormalized for reporting convenience.
	PatientName      string `json:"patientName" db:"patient_name"`
	OrganizationName string `json:"organizationName" db:"organization_name"`

	// Logistics
	PickupDate     *time.Time `json:"pickupDate,omitempty" db:"pickup_date"`
	CourierName    string     `json:"courierName" db:"courier_name"`
	TrackingNumber string     `json:"trackingNumber" db:"tracking_number"`

	// Monetary values are fixed-point strings backed by NUMERIC.
	Amount     string `json:"amount" db:"amount"`
	PaidAmount string `json:"paidAmount" db:"paid_amount"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
