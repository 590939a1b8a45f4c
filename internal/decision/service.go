package decision

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"restgate/internal/decision/metrics"
	"restgate/internal/encval"
	"restgate/internal/policy"
	id "restgate/pkg/domain"
	dErrors "restgate/pkg/domain-errors"
	audit "restgate/pkg/platform/audit"
	"restgate/pkg/platform/sentinel"
	"restgate/pkg/requestcontext"
)

// Service runs the evaluation pipeline. It never inspects plaintext: the
// readings and every intermediate value stay opaque encval handles, and the
// only plaintext branch is on the policy mode, which is public configuration.
type Service struct {
	policies policy.Store
	records  Store
	enc      encval.Service
	engineID id.Identity
	emitter  audit.Emitter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
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

// NewService wires the pipeline. engineID is the identity the engine grants
// itself on every decision so operators can later re-share a flag without
// re-running the evaluation.
func NewService(policies policy.Store, records Store, enc encval.Service, engineID id.Identity, opts ...Option) *Service {
	s := &Service{
		policies: policies,
		records:  records,
		enc:      enc,
		engineID: engineID,
		emitter:  audit.NopEmitter{},
		logger:   slog.Default(),
		tracer:   otel.Tracer("restgate/decision"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate runs one submission through the pipeline. All-or-nothing: any
// failure before the final store write leaves policy and decision state
// untouched, and the store write is the last step.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "decision.evaluate",
		trace.WithAttributes(attribute.String("visibility", string(req.Visibility))))
	defer span.End()

	result, err := s.evaluate(ctx, req)
	if err != nil {
		span.RecordError(err)
		s.metrics.IncrementRejection(string(dErrors.CodeOf(err)))
		return nil, err
	}

	s.metrics.IncrementEvaluation(string(req.Visibility))
	s.metrics.ObserveEvaluateLatency(time.Since(start))
	return result, nil
}

func (s *Service) evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResult, error) {
	if req.Subject.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "subject identity required")
	}
	if len(req.Proof) == 0 {
		return nil, dErrors.New(dErrors.CodeMissingProof, "attestation proof is required")
	}

	// Snapshot the policy at call start; later administrator updates do not
	// affect this evaluation.
	pol, err := s.policies.Policy(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read policy")
	}
	if !pol.IsConfigured() {
		return nil, dErrors.New(dErrors.CodePolicyNotConfigured, "no policy has been configured")
	}

	bpm, stress, err := s.importReadings(ctx, req)
	if err != nil {
		return nil, err
	}

	mandatory, err := s.combine(ctx, pol, bpm, stress)
	if err != nil {
		return nil, err
	}

	// Grants are idempotent on the service side, so a retried call after a
	// late failure cannot corrupt access state.
	if err := s.enc.GrantAccess(ctx, mandatory, req.Subject); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant subject access")
	}
	if err := s.enc.GrantAccess(ctx, mandatory, s.engineID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant engine access")
	}
	public := req.Visibility == VisibilityPublic
	if public {
		if err := s.enc.MakePubliclyReadable(ctx, mandatory); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish decision flag")
		}
	}

	now := requestcontext.Now(ctx)
	record := Record{
		Subject:   req.Subject,
		Handle:    mandatory.Handle(),
		Public:    public,
		UpdatedAt: now,
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist decision")
	}

	s.emit(ctx, audit.Event{
		Action:         audit.ActionDecisionRecorded,
		Timestamp:      now,
		Subject:        req.Subject,
		RequestID:      requestcontext.RequestID(ctx),
		DecisionHandle: record.Handle.String(),
		IsPublic:       public,
	})
	s.logger.InfoContext(ctx, "decision recorded",
		"subject", req.Subject,
		"handle", record.Handle,
		"public", public,
	)

	return &EvaluateResult{Handle: record.Handle, Public: public, EvaluatedAt: now}, nil
}

// importReadings admits both ciphertexts concurrently. The readings are
// independent, so the imports commute; the proof authenticates both.
func (s *Service) importReadings(ctx context.Context, req EvaluateRequest) (encval.EncUint16, encval.EncUint16, error) {
	var bpm, stress encval.EncUint16
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		imported, err := s.enc.ImportUint16(gctx, req.BPM, req.Proof)
		s.metrics.ObserveImportLatency(time.Since(start))
		if err != nil {
			return err
		}
		bpm = imported
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		imported, err := s.enc.ImportUint16(gctx, req.Stress, req.Proof)
		s.metrics.ObserveImportLatency(time.Since(start))
		if err != nil {
			return err
		}
		stress = imported
		return nil
	})
	if err := g.Wait(); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidAttestation) {
			return encval.EncUint16{}, encval.EncUint16{}, err
		}
		return encval.EncUint16{}, encval.EncUint16{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to import readings")
	}
	return bpm, stress, nil
}

// combine evaluates both threshold comparisons and joins them under the
// policy mode. The mode branch reads plaintext configuration only; the
// comparison results remain encrypted throughout.
func (s *Service) combine(ctx context.Context, pol policy.Policy, bpm, stress encval.EncUint16) (encval.EncBool, error) {
	bpmThreshold, err := s.enc.EncodePlain(ctx, pol.BPMThreshold)
	if err != nil {
		return encval.EncBool{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode bpm threshold")
	}
	stressThreshold, err := s.enc.EncodePlain(ctx, pol.StressThreshold)
	if err != nil {
		return encval.EncBool{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode stress threshold")
	}

	bpmHigh, err := s.enc.CompareGreaterEqual(ctx, bpm, bpmThreshold)
	if err != nil {
		return encval.EncBool{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compare bpm")
	}
	stressHigh, err := s.enc.CompareGreaterEqual(ctx, stress, stressThreshold)
	if err != nil {
		return encval.EncBool{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compare stress")
	}

	var mandatory encval.EncBool
	if pol.Mode == policy.ModeAND {
		mandatory, err = s.enc.BooleanAnd(ctx, bpmHigh, stressHigh)
	} else {
		mandatory, err = s.enc.BooleanOr(ctx, bpmHigh, stressHigh)
	}
	if err != nil {
		return encval.EncBool{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to combine comparisons")
	}
	return mandatory, nil
}

// LastDecision returns the stored handle for the subject, or the zero handle
// and false when no decision exists. Pure read; no encrypted computation.
func (s *Service) LastDecision(ctx context.Context, subject id.Identity) (encval.Handle, bool, error) {
	record, err := s.records.Latest(ctx, subject)
	if err != nil {
		if isNotFound(err) {
			return encval.ZeroHandle, false, nil
		}
		return encval.ZeroHandle, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read decision")
	}
	return record.Handle, true, nil
}

// HasDecision reports whether the subject has ever been evaluated. Pure read.
func (s *Service) HasDecision(ctx context.Context, subject id.Identity) (bool, error) {
	_, exists, err := s.LastDecision(ctx, subject)
	return exists, err
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if err := s.emitter.Emit(ctx, event); err != nil {
		// Notification sinks are best-effort; the decision is already
		// persisted.
		s.logger.WarnContext(ctx, "event emission failed", "action", event.Action, "error", err)
	}
}
