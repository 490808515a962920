package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeadTransitions(t *testing.T) {
	require.True(t, CanTransitionLead(LeadStatusQuoted, LeadStatusCold))
	require.True(t, CanTransitionLead(LeadStatusQuoted, LeadStatusHot))
	require.True(t, CanTransitionLead(LeadStatusCold, LeadStatusWon))
	require.True(t, CanTransitionLead(LeadStatusHot, LeadStatusWon))

	// closed is reachable from every non-terminal state
	for _, from := range []string{LeadStatusQuoted, LeadStatusCold, LeadStatusHot, LeadStatusWon} {
		require.True(t, CanTransitionLead(from, LeadStatusClosed), "from %s", from)
	}

	// no skipping quoted straight to won
	require.False(t, CanTransitionLead(LeadStatusQuoted, LeadStatusWon))
}

func TestLeadConvertedOnlyViaConversion(t *testing.T) {
	// converted never appears as a generic transition target
	for _, from := range []string{LeadStatusQuoted, LeadStatusCold, LeadStatusHot, LeadStatusWon, LeadStatusClosed} {
		require.False(t, CanTransitionLead(from, LeadStatusConverted), "from %s", from)
	}
}

func TestLeadTerminalStates(t *testing.T) {
	require.Empty(t, LeadNextStatuses(LeadStatusConverted))
	require.Empty(t, LeadNextStatuses(LeadStatusClosed))
}

func TestIsLeadStatus(t *testing.T) {
	require.True(t, IsLeadStatus(LeadStatusWon))
	require.False(t, IsLeadStatus("lukewarm"))
}

func TestSamplePipeline_InHouse(t *testing.T) {
	p := SamplePipeline(LabDestinationInHouse)
	require.Equal(t, []string{
		SampleStatusPickupScheduled,
		SampleStatusInTransit,
		SampleStatusReceived,
		SampleStatusLabProcessing,
		SampleStatusBioinformatics,
		SampleStatusReporting,
		SampleStatusCompleted,
	}, p)
}

func TestSamplePipeline_ThirdPartyAddsForwardingHop(t *testing.T) {
	p := SamplePipeline(LabDestinationThirdParty)
	require.Len(t, p, 9)
	require.Equal(t, SampleStatusReceived, p[2])
	require.Equal(t, SampleStatusThirdPartySent, p[3])
	require.Equal(t, SampleStatusThirdPartyReceived, p[4])
	require.Equal(t, SampleStatusLabProcessing, p[5])
}

func TestIsSampleStatus(t *testing.T) {
	require.True(t, IsSampleStatus(SampleStatusThirdPartySent))
	require.True(t, IsSampleStatus(SampleStatusCompleted))
	require.False(t, IsSampleStatus("lost"))
}

func TestKnownEntityTypes(t *testing.T) {
	require.True(t, IsKnownEntityType(EntitySamples))
	require.False(t, IsKnownEntityType(EntityType("invoices")))
	require.Len(t, KnownEntityTypes(), 7)
}
