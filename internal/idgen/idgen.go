// Package idgen produces the human-readable identifiers stamped on
// samples and staff accounts. IDs are pure functions of the wall clock;
// the clock is injectable so tests are deterministic.
package idgen

import (
	"strings"
	"time"

	"labtrack/internal/domain"
)

const (
	sampleCodePrefixClinical  = "PG"
	sampleCodePrefixDiscovery = "DG"

	// second resolution: two samples of the same category generated in
	// the same second collide. The sample_code unique index surfaces
	// the collision instead of silently overwriting.
	sampleCodeTimeLayout = "060102150405" // YYMMDDHHMMSS
	roleIDTimeLayout     = "0601021504"   // YYMMDDHHMM
)

// roleCodes is the closed role → 2-letter code mapping. Unknown roles
// fall back to the first two letters of the role name, upper-cased.
var roleCodes = map[string]string{
	domain.RoleAdmin:      "AD",
	domain.RoleSales:      "SL",
	domain.RoleOperations: "OP",
	domain.RoleFinance:    "FI",
	domain.RoleLab:        "LB",
	domain.RoleDoctor:     "DR",
	domain.RoleSupport:    "SU",
}

// Generator builds identifiers from an injectable clock.
type Generator struct {
	now func() time.Time
}

// New returns a Generator on the system clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock returns a Generator on the given clock.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// SampleID returns the human-readable sample code for the category:
// "PG" (clinical) or "DG" (discovery) + YYMMDDHHMMSS. Unknown
// categories get the clinical prefix. Always 14 characters.
func (g *Generator) SampleID(category string) string {
	prefix := sampleCodePrefixClinical
	if category == domain.LeadCategoryDiscovery {
		prefix = sampleCodePrefixDiscovery
	}
	return prefix + g.now().Format(sampleCodeTimeLayout)
}

// RoleID returns the role-prefixed account id stamped on staff
// accounts at provisioning time: 2-letter role code + YYMMDDHHMM.
// User creation lives outside this service; the format is kept here so
// both sides of the users table agree on it.
func (g *Generator) RoleID(role string) string {
	code, ok := roleCodes[role]
	if !ok {
		r := strings.ToUpper(role)
		if len(r) >= 2 {
			code = r[:2]
		} else {
			code = r
		}
	}
	return code + g.now().Format(roleIDTimeLayout)
}
