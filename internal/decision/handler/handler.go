package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"restgate/internal/decision"
	"restgate/internal/encval"
	id "restgate/pkg/domain"
	dErrors "restgate/pkg/domain-errors"
	"restgate/pkg/platform/httputil"
	"restgate/pkg/requestcontext"
)

// Service defines the decision operations the handler needs.
type Service interface {
	Evaluate(ctx context.Context, req decision.EvaluateRequest) (*decision.EvaluateResult, error)
	LastDecision(ctx context.Context, subject id.Identity) (encval.Handle, bool, error)
	HasDecision(ctx context.Context, subject id.Identity) (bool, error)
}

// Handler wires decision endpoints to the decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a decision handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts decision endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/decision/evaluate", h.HandleEvaluate)
	r.Get("/decision/{subject}", h.HandleLatest)
	r.Get("/decision/{subject}/exists", h.HandleExists)
}

// HandleEvaluate handles POST /decision/evaluate.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	caller := requestcontext.CallerID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.Decode[EvaluateRequest](w, r, h.logger)
	if !ok {
		return
	}
	domainReq, err := req.Parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	domainReq.Subject = caller

	result, err := h.service.Evaluate(ctx, domainReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "evaluation failed",
			"request_id", requestcontext.RequestID(ctx),
			"subject", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "evaluation complete",
		"request_id", requestcontext.RequestID(ctx),
		"subject", caller,
		"public", result.Public,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleLatest handles GET /decision/{subject}.
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	subject, err := id.ParseIdentity(chi.URLParam(r, "subject"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	handle, exists, err := h.service.LastDecision(r.Context(), subject)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := LatestResponse{Exists: exists}
	if exists {
		resp.DecisionHandle = handle.String()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleExists handles GET /decision/{subject}/exists.
func (h *Handler) HandleExists(w http.ResponseWriter, r *http.Request) {
	subject, err := id.ParseIdentity(chi.URLParam(r, "subject"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	exists, err := h.service.HasDecision(r.Context(), subject)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}
