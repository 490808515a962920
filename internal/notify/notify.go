// Package notify emits post-commit domain events. Emission is
// best-effort by contract: the services log failures and never let them
// fail the primary operation.
package notify

import (
	"context"
	"time"
)

// Event kinds emitted by the core.
const (
	EventLeadConverted  = "lead.converted"
	EventSampleReceived = "sample.received"
	EventSampleNew      = "sample.new"
)

// Event is one domain notification.
type Event struct {
	Kind       string    `json:"kind"`
	LeadID     string    `json:"leadId,omitempty"`
	SampleID   string    `json:"sampleId,omitempty"`
	SampleCode string    `json:"sampleCode,omitempty"`
	// RecipientID is set for per-user fan-out events.
	RecipientID string    `json:"recipientId,omitempty"`
	Message     string    `json:"message,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Emitter delivers one event to the notification channel.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
}

// Nop discards all events (NOTIFY_MODE=off and tests).
type Nop struct{}

func (Nop) Emit(ctx context.Context, ev Event) error { return nil }
