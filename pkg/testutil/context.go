package testutil

import (
	"context"
	"time"

	id "restgate/pkg/domain"
	"restgate/pkg/requestcontext"
)

// ContextWithCaller returns a background context carrying the caller
// identity, as the auth middleware would set it.
func ContextWithCaller(caller id.Identity) context.Context {
	return requestcontext.WithCallerID(context.Background(), caller)
}

// ContextWithCallerAt additionally pins the request time so emitted events
// are deterministic.
func ContextWithCallerAt(caller id.Identity, at time.Time) context.Context {
	return requestcontext.WithTime(ContextWithCaller(caller), at)
}
