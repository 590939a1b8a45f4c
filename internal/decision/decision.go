// Package decision implements the evaluation pipeline: import two encrypted
// readings, compare each against the policy thresholds, combine under the
// policy mode, assign access to the encrypted outcome, and persist the
// subject's latest decision handle.
package decision

import (
	"time"

	"restgate/internal/encval"
	id "restgate/pkg/domain"
	dErrors "restgate/pkg/domain-errors"
)

// Visibility controls who may reveal the decision flag.
type Visibility string

const (
	// VisibilityPrivate grants decryption only to the subject and the
	// engine identity.
	VisibilityPrivate Visibility = "private"
	// VisibilityPublic additionally marks the flag publicly readable. The
	// raw biometrics stay hidden either way.
	VisibilityPublic Visibility = "public"
)

// ParseVisibility parses the wire form, defaulting empty to private.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case VisibilityPrivate, "":
		return VisibilityPrivate, nil
	case VisibilityPublic:
		return VisibilityPublic, nil
	default:
		return VisibilityPrivate, dErrors.New(dErrors.CodeInvalidInput, "visibility must be private or public")
	}
}

// EvaluateRequest carries one submission of encrypted readings.
type EvaluateRequest struct {
	Subject    id.Identity
	BPM        encval.External
	Stress     encval.External
	Proof      []byte
	Visibility Visibility
}

// EvaluateResult is what the pipeline returns: the opaque handle of the
// encrypted mandatory-break flag, never the flag itself.
type EvaluateResult struct {
	Handle      encval.Handle
	Public      bool
	EvaluatedAt time.Time
}

// Record is a subject's latest decision. At most one per subject; each
// evaluation overwrites the previous one. History, if required, belongs to
// the audit pipeline.
type Record struct {
	Subject   id.Identity
	Handle    encval.Handle
	Public    bool
	UpdatedAt time.Time
}
