// Package policy holds the break-decision policy: two plaintext thresholds
// and the boolean rule that combines the encrypted comparisons.
package policy

import (
	dErrors "restgate/pkg/domain-errors"
)

// Mode selects how the two threshold comparisons combine.
type Mode uint8

const (
	// ModeOR flags a mandatory break when either reading crosses its
	// threshold.
	ModeOR Mode = iota
	// ModeAND requires both readings to cross.
	ModeAND
)

// Valid reports whether the mode is one of the two defined combinators.
func (m Mode) Valid() bool {
	return m == ModeOR || m == ModeAND
}

func (m Mode) String() string {
	switch m {
	case ModeOR:
		return "OR"
	case ModeAND:
		return "AND"
	default:
		return "UNKNOWN"
	}
}

// ParseMode parses the wire form of a mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "OR":
		return ModeOR, nil
	case "AND":
		return ModeAND, nil
	default:
		return ModeOR, dErrors.New(dErrors.CodeInvalidMode, "mode must be OR or AND")
	}
}

// Policy is the singleton decision policy. The zero value is the unset
// policy: evaluation is rejected until an administrator configures one.
type Policy struct {
	BPMThreshold    uint16
	StressThreshold uint16
	Mode            Mode
}

// Default is the built-in policy installed by SetDefaultPolicy:
// break is mandatory when BPM >= 100 or stress-minutes >= 15.
func Default() Policy {
	return Policy{BPMThreshold: 100, StressThreshold: 15, Mode: ModeOR}
}

// IsConfigured reports whether the policy has been set. A policy with both
// thresholds zero is indistinguishable from unset and is rejected on write.
func (p Policy) IsConfigured() bool {
	return p.BPMThreshold != 0 || p.StressThreshold != 0
}

// Validate enforces the write invariants: a known mode and at least one
// non-zero threshold.
func (p Policy) Validate() error {
	if !p.Mode.Valid() {
		return dErrors.New(dErrors.CodeInvalidMode, "mode must be OR or AND")
	}
	if !p.IsConfigured() {
		return dErrors.New(dErrors.CodeEmptyPolicy, "at least one threshold must be non-zero")
	}
	return nil
}
