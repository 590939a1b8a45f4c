package decision

import (
	"context"

	id "restgate/pkg/domain"
)

// Store persists the latest decision record per subject. Save must be an
// atomic overwrite; Latest returns sentinel.ErrNotFound when the subject has
// never been evaluated.
type Store interface {
	Save(ctx context.Context, record Record) error
	Latest(ctx context.Context, subject id.Identity) (Record, error)
}
