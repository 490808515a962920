package domain

import "time"

// Payment lifecycle of a FinanceRecord.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPartial  = "partial"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// FinanceRecord is the billing shadow of a Sample (finance_records
// table). Seeded as a placeholder at conversion time, edited by finance
// staff afterwards.
type FinanceRecord struct {
	ID string `json:"id" db:"id"` // UUID, PRIMARY KEY

	SampleID   string `json:"sampleId" db:"sample_id"` // UUID ref to samples.id
	LeadID     string `json:"leadId" db:"lead_id"`     // lookup only, non-owning
	SampleCode string `json:"sampleCode" db:"sample_code"`

	// Denormalized from the conversion input for reporting.
	PatientName      string `json:"patientName" db:"patient_name"`
	OrganizationName string `json:"organizationName" db:"organization_name"`

	// Fixed-point strings backed by NUMERIC.
	Amount      string `json:"amount" db:"amount"`
	TaxAmount   string `json:"taxAmount" db:"tax_amount"`
	TotalAmount string `json:"totalAmount" db:"total_amount"`
	PaidAmount  string `json:"paidAmount" db:"paid_amount"`

	PaymentStatus string `json:"paymentStatus" db:"payment_status"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
