package domain

// Lead lifecycle states.
const (
	LeadStatusQuoted    = "quoted"
	LeadStatusCold      = "cold"
	LeadStatusHot       = "hot"
	LeadStatusWon       = "won"
	LeadStatusConverted = "converted"
	LeadStatusClosed    = "closed"
)

// Sample pipeline states.
const (
	SampleStatusPickupScheduled    = "pickup_scheduled"
	SampleStatusInTransit          = "in_transit"
	SampleStatusReceived           = "received"
	SampleStatusThirdPartySent     = "third_party_sent"
	SampleStatusThirdPartyReceived = "third_party_received"
	SampleStatusLabProcessing      = "lab_processing"
	SampleStatusBioinformatics     = "bioinformatics"
	SampleStatusReporting          = "reporting"
	SampleStatusCompleted          = "completed"
)

// leadTransitions encodes quoted → {cold, hot} → won → converted, with
// closed reachable from any non-terminal state. converted is excluded
// here on purpose: it is only reachable through conversion, never
// through the generic status endpoint.
var leadTransitions = map[string][]string{
	LeadStatusQuoted: {LeadStatusCold, LeadStatusHot, LeadStatusClosed},
	LeadStatusCold:   {LeadStatusWon, LeadStatusClosed},
	LeadStatusHot:    {LeadStatusWon, LeadStatusClosed},
	LeadStatusWon:    {LeadStatusClosed},
	// converted and closed are terminal
	LeadStatusConverted: {},
	LeadStatusClosed:    {},
}

// IsLeadStatus reports whether s is a known lead status.
func IsLeadStatus(s string) bool {
	_, ok := leadTransitions[s]
	return ok
}

// CanTransitionLead reports whether the generic status endpoint may
// move a lead from one status to another.
func CanTransitionLead(from, to string) bool {
	for _, next := range leadTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LeadNextStatuses returns the statuses reachable from the given one
// via the generic endpoint.
func LeadNextStatuses(from string) []string {
	next := leadTransitions[from]
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// SamplePipeline returns the pipeline order for the given lab
// destination. third_party adds the forwarding hop between received
// and lab_processing.
func SamplePipeline(labDestination string) []string {
	if labDestination == LabDestinationThirdParty {
		return []string{
			SampleStatusPickupScheduled,
			SampleStatusInTransit,
			SampleStatusReceived,
			SampleStatusThirdPartySent,
			SampleStatusThirdPartyReceived,
			SampleStatusLabProcessing,
			SampleStatusBioinformatics,
			SampleStatusReporting,
			SampleStatusCompleted,
		}
	}
	return []string{
		SampleStatusPickupScheduled,
		SampleStatusInTransit,
		SampleStatusReceived,
		SampleStatusLabProcessing,
		SampleStatusBioinformatics,
		SampleStatusReporting,
		SampleStatusCompleted,
	}
}

// IsSampleStatus reports whether s is a known sample status on either
// branch. The generic sample endpoint accepts any known status in any
// order; the pipeline is advisory for clients.
func IsSampleStatus(s string) bool {
	for _, st := range SamplePipeline(LabDestinationThirdParty) {
		if st == s {
			return true
		}
	}
	return false
}
