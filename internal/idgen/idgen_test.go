package idgen

import (
	"testing"
	"time"

	"labtrack/internal/domain"

	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSampleID_Prefixes(t *testing.T) {
	at := time.Date(2024, 1, 15, 9, 30, 21, 0, time.UTC)
	g := NewWithClock(fixedClock(at))

	require.Equal(t, "PG240115093021", g.SampleID(domain.LeadCategoryClinical))
	require.Equal(t, "DG240115093021", g.SampleID(domain.LeadCategoryDiscovery))
}

func TestSampleID_Is14Chars(t *testing.T) {
	g := New()
	require.Len(t, g.SampleID(domain.LeadCategoryClinical), 14)
	require.Len(t, g.SampleID(domain.LeadCategoryDiscovery), 14)
}

func TestSampleID_UnknownCategoryFallsBackToClinical(t *testing.T) {
	at := time.Date(2024, 1, 15, 9, 30, 21, 0, time.UTC)
	g := NewWithClock(fixedClock(at))
	require.Equal(t, "PG240115093021", g.SampleID("something_else"))
}

func TestSampleID_SameSecondCollides(t *testing.T) {
	// second-level resolution: two calls in the same second produce the
	// same code. The DB unique index is the only defense.
	at := time.Date(2024, 1, 15, 9, 30, 21, 500_000_000, time.UTC)
	g := NewWithClock(fixedClock(at))
	require.Equal(t, g.SampleID(domain.LeadCategoryDiscovery), g.SampleID(domain.LeadCategoryDiscovery))
}

func TestRoleID_KnownRoles(t *testing.T) {
	at := time.Date(2024, 3, 2, 17, 4, 0, 0, time.UTC)
	g := NewWithClock(fixedClock(at))

	require.Equal(t, "OP2403021704", g.RoleID(domain.RoleOperations))
	require.Equal(t, "FI2403021704", g.RoleID(domain.RoleFinance))
	require.Equal(t, "AD2403021704", g.RoleID(domain.RoleAdmin))
	require.Equal(t, "DR2403021704", g.RoleID(domain.RoleDoctor))
}

func TestRoleID_UnknownRoleUsesFirstTwoLetters(t *testing.T) {
	at := time.Date(2024, 3, 2, 17, 4, 0, 0, time.UTC)
	g := NewWithClock(fixedClock(at))

	require.Equal(t, "CO2403021704", g.RoleID("courier"))
	require.Equal(t, "X2403021704", g.RoleID("x"))
}
