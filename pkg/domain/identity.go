// Package domain holds the typed identifiers shared across modules. Wrapping
// uuid.UUID in distinct types keeps subject and handle identifiers from being
// mixed up at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "restgate/pkg/domain-errors"
)

// Identity names a caller of the system: a subject submitting readings, or
// the administrator. The nil UUID is never a valid identity.
type Identity uuid.UUID

// NilIdentity is the zero identity, used as the "no identity" sentinel.
var NilIdentity = Identity(uuid.Nil)

// NewIdentity returns a fresh random identity.
func NewIdentity() Identity {
	return Identity(uuid.New())
}

// ParseIdentity validates and parses an identity from its string form.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return NilIdentity, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return NilIdentity, dErrors.New(dErrors.CodeInvalidInput, "identity must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return NilIdentity, dErrors.New(dErrors.CodeInvalidInput, "identity must not be the nil UUID")
	}
	return Identity(parsed), nil
}

// IsNil reports whether the identity is unset.
func (i Identity) IsNil() bool {
	return uuid.UUID(i) == uuid.Nil
}

func (i Identity) String() string {
	return uuid.UUID(i).String()
}
