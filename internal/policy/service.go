package policy

import (
	"context"
	"log/slog"

	"restgate/internal/policy/metrics"
	id "restgate/pkg/domain"
	dErrors "restgate/pkg/domain-errors"
	audit "restgate/pkg/platform/audit"
	"restgate/pkg/requestcontext"
)

// Service owns policy administration. Every mutation passes the explicit
// caller == administrator guard; there is no role hierarchy.
type Service struct {
	store   Store
	emitter audit.Emitter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures optional service dependencies.
type Option func(*Service)

func WithEmitter(emitter audit.Emitter) Option {
	return func(s *Service) { s.emitter = emitter }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		emitter: audit.NopEmitter{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDefaultPolicy installs the built-in policy (BPM >= 100 OR stress >= 15).
func (s *Service) SetDefaultPolicy(ctx context.Context) (Policy, error) {
	return s.replacePolicy(ctx, Default())
}

// SetPolicy validates and atomically replaces the policy.
func (s *Service) SetPolicy(ctx context.Context, bpmThreshold, stressThreshold uint16, mode Mode) (Policy, error) {
	return s.replacePolicy(ctx, Policy{
		BPMThreshold:    bpmThreshold,
		StressThreshold: stressThreshold,
		Mode:            mode,
	})
}

func (s *Service) replacePolicy(ctx context.Context, p Policy) (Policy, error) {
	if err := s.requireAdmin(ctx); err != nil {
		s.metrics.IncrementRejectedWrite(string(dErrors.CodeOf(err)))
		return Policy{}, err
	}
	if err := p.Validate(); err != nil {
		s.metrics.IncrementRejectedWrite(string(dErrors.CodeOf(err)))
		return Policy{}, err
	}
	if err := s.store.SetPolicy(ctx, p); err != nil {
		return Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store policy")
	}

	s.emit(ctx, audit.Event{
		Action:          audit.ActionPolicyUpdated,
		Timestamp:       requestcontext.Now(ctx),
		Actor:           requestcontext.CallerID(ctx),
		RequestID:       requestcontext.RequestID(ctx),
		BPMThreshold:    p.BPMThreshold,
		StressThreshold: p.StressThreshold,
		Mode:            p.Mode.String(),
	})
	s.metrics.IncrementPolicyUpdate(p.Mode.String())
	s.logger.InfoContext(ctx, "policy updated",
		"bpm_threshold", p.BPMThreshold,
		"stress_threshold", p.StressThreshold,
		"mode", p.Mode.String(),
	)
	return p, nil
}

// TransferAdministration hands the administrator role to newAdmin.
func (s *Service) TransferAdministration(ctx context.Context, newAdmin id.Identity) error {
	if newAdmin.IsNil() {
		return dErrors.New(dErrors.CodeInvalidAddress, "new administrator must not be the nil identity")
	}
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.store.SetAdministrator(ctx, newAdmin); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store administrator")
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionAdminTransferred,
		Timestamp: requestcontext.Now(ctx),
		Actor:     requestcontext.CallerID(ctx),
		RequestID: requestcontext.RequestID(ctx),
		NewAdmin:  newAdmin,
	})
	s.metrics.IncrementAdminTransfer()
	s.logger.InfoContext(ctx, "administration transferred", "new_admin", newAdmin)
	return nil
}

// CurrentPolicy returns the policy in effect. Pure read.
func (s *Service) CurrentPolicy(ctx context.Context) (Policy, error) {
	p, err := s.store.Policy(ctx)
	if err != nil {
		return Policy{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read policy")
	}
	return p, nil
}

// Administrator returns the current administrator identity. Pure read.
func (s *Service) Administrator(ctx context.Context) (id.Identity, error) {
	admin, err := s.store.Administrator(ctx)
	if err != nil {
		return id.NilIdentity, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read administrator")
	}
	return admin, nil
}

func (s *Service) requireAdmin(ctx context.Context) error {
	admin, err := s.store.Administrator(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read administrator")
	}
	if caller := requestcontext.CallerID(ctx); caller != admin {
		return dErrors.New(dErrors.CodeUnauthorized, "caller is not the administrator")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if err := s.emitter.Emit(ctx, event); err != nil {
		// Notification sinks are best-effort; the state change already
		// committed.
		s.logger.WarnContext(ctx, "event emission failed", "action", event.Action, "error", err)
	}
}
