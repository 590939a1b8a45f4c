package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"restgate/internal/policy"
	id "restgate/pkg/domain"
	dErrors "restgate/pkg/domain-errors"
	"restgate/pkg/platform/httputil"
	"restgate/pkg/requestcontext"
)

// Service defines the policy operations the handler needs.
type Service interface {
	SetDefaultPolicy(ctx context.Context) (policy.Policy, error)
	SetPolicy(ctx context.Context, bpmThreshold, stressThreshold uint16, mode policy.Mode) (policy.Policy, error)
	TransferAdministration(ctx context.Context, newAdmin id.Identity) error
	CurrentPolicy(ctx context.Context) (policy.Policy, error)
	Administrator(ctx context.Context) (id.Identity, error)
}

// Handler wires policy administration and query endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts policy endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/policy", h.HandleSetPolicy)
	r.Post("/policy/default", h.HandleSetDefault)
	r.Post("/policy/transfer", h.HandleTransfer)
	r.Get("/policy", h.HandleGetPolicy)
	r.Get("/policy/administrator", h.HandleGetAdministrator)
}

// HandleSetPolicy handles PUT /policy.
func (h *Handler) HandleSetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[SetPolicyRequest](w, r, h.logger)
	if !ok {
		return
	}
	mode, err := policy.ParseMode(req.Mode)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	updated, err := h.service.SetPolicy(ctx, req.BPMThreshold, req.StressThreshold, mode)
	if err != nil {
		h.logger.WarnContext(ctx, "policy update rejected",
			"request_id", requestcontext.RequestID(ctx),
			"caller", requestcontext.CallerID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(updated))
}

// HandleSetDefault handles POST /policy/default.
func (h *Handler) HandleSetDefault(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.SetDefaultPolicy(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(updated))
}

// HandleTransfer handles POST /policy/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[TransferRequest](w, r, h.logger)
	if !ok {
		return
	}
	// The nil identity flows through to the service so the transfer fails
	// with invalid_address rather than a generic parse error.
	newAdmin := id.NilIdentity
	if req.NewAdmin != "" {
		parsed, err := uuid.Parse(req.NewAdmin)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "new_admin must be a UUID"))
			return
		}
		newAdmin = id.Identity(parsed)
	}
	if err := h.service.TransferAdministration(ctx, newAdmin); err != nil {
		h.logger.WarnContext(ctx, "administration transfer rejected",
			"request_id", requestcontext.RequestID(ctx),
			"caller", requestcontext.CallerID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AdministratorResponse{Administrator: newAdmin.String()})
}

// HandleGetPolicy handles GET /policy.
func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.CurrentPolicy(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(current))
}

// HandleGetAdministrator handles GET /policy/administrator.
func (h *Handler) HandleGetAdministrator(w http.ResponseWriter, r *http.Request) {
	admin, err := h.service.Administrator(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AdministratorResponse{Administrator: admin.String()})
}
