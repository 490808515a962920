package domain

import "time"

// Lead categories decide the sample code prefix at conversion time.
const (
	LeadCategoryClinical  = "clinical"
	LeadCategoryDiscovery = "discovery"
)

// Lead is a sales opportunity prior to becoming a tracked lab sample
// (leads table).
type Lead struct {
	ID string `json:"id" db:"id"` // UUID, PRIMARY KEY

	// Intake
	OrganizationName string `json:"organizationName" db:"organization_name"`
	ContactName      string `json:"contactName" db:"contact_name"`
	ContactEmail     string `json:"contactEmail" db:"contact_email"`
	ContactPhone     string `json:"contactPhone" db:"contact_phone"`

	// Commercial
	Category    string `json:"category" db:"category"` // clinical | discovery
	ServiceName string `json:"serviceName" db:"service_name"`
	FollowUp    string `json:"followUp" db:"follow_up"`

	// Counselling flag set by sales during intake.
	GeneticCounsellorRequired bool `json:"geneticCounsellorRequired" db:"genetic_counsellor_required"`

	// Lifecycle. ConvertedAt is set iff Status == converted.
	Status      string     `json:"status" db:"status"`
	ConvertedAt *time.Time `json:"convertedAt,omitempty" db:"converted_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
