package policy

import (
	"context"

	id "restgate/pkg/domain"
)

// Store is the singleton state container for the policy and its
// administrator. Implementations must make each write atomic; readers during
// an evaluation observe the snapshot taken at call start.
type Store interface {
	// Policy returns the current policy. The zero Policy means unset.
	Policy(ctx context.Context) (Policy, error)

	// SetPolicy replaces the policy wholesale.
	SetPolicy(ctx context.Context, p Policy) error

	// Administrator returns the current administrator identity.
	Administrator(ctx context.Context) (id.Identity, error)

	// SetAdministrator replaces the administrator.
	SetAdministrator(ctx context.Context, admin id.Identity) error
}
