// Package audit defines the notification events the engine emits and the
// sinks that carry them. Events are transport-agnostic so stores, workers,
// and the Kafka publisher can fan out without touching domain code.
package audit

import (
	"context"
	"time"

	id "restgate/pkg/domain"
)

// Action names what happened.
type Action string

const (
	ActionPolicyUpdated    Action = "policy_updated"
	ActionDecisionRecorded Action = "decision_recorded"
	ActionAdminTransferred Action = "administration_transferred"
)

// Event is emitted from domain logic to capture key actions. It carries only
// public material: thresholds and mode are plaintext configuration, and the
// decision handle reveals nothing about the underlying biometrics.
type Event struct {
	Action    Action
	Timestamp time.Time
	Subject   id.Identity
	Actor     id.Identity
	RequestID string

	// policy_updated
	BPMThreshold    uint16
	StressThreshold uint16
	Mode            string

	// decision_recorded
	DecisionHandle string
	IsPublic       bool

	// administration_transferred
	NewAdmin id.Identity
}

// Emitter is the append-only notification sink injected into services.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists events for later inspection.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject id.Identity) ([]Event, error)
}

// NopEmitter discards events. Used where no sink is configured.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) error { return nil }
