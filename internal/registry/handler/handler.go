package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drivelog/internal/platform/metrics"
	"drivelog/internal/platform/middleware"
	"drivelog/internal/registry"
	"drivelog/internal/transport/http/shared"
	id "drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
)

// Service defines the interface for registry operations.
type Service interface {
	Register(ctx context.Context, caller, reader id.Identity, role registry.Role) error
	Revoke(ctx context.Context, caller, reader id.Identity) error
	RoleOf(ctx context.Context, reader id.Identity) (registry.Role, error)
	SetAttribute(ctx context.Context, caller, subject id.Identity, value string) error
	AttributeOf(ctx context.Context, subject id.Identity) (string, error)
}

// Handler handles role directory and subject attribute endpoints.
type Handler struct {
	logger   *slog.Logger
	registry Service
	metrics  *metrics.Metrics
}

// New creates a new registry Handler.
func New(registry Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
		metrics:  metrics,
	}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registry/readers", h.handleRegisterReader)
	r.Delete("/registry/readers/{reader}", h.handleRevokeReader)
	r.Get("/registry/readers/{reader}", h.handleGetReader)
	r.Put("/registry/subjects/{subject}/attribute", h.handleSetAttribute)
	r.Get("/registry/subjects/{subject}/attribute", h.handleGetAttribute)
}

type registerReaderRequest struct {
	Reader string `json:"reader"`
	Role   string `json:"role"`
}

func (h *Handler) handleRegisterReader(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	var req registerReaderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid register reader request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	reader, err := id.ParseIdentity(req.Reader)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.registry.Register(ctx, caller, reader, registry.Role(req.Role)); err != nil {
		h.writeServiceError(ctx, w, "failed to register reader", err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncrementReadersRegistered()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevokeReader(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	reader, err := id.ParseIdentity(chi.URLParam(r, "reader"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.registry.Revoke(ctx, caller, reader); err != nil {
		h.writeServiceError(ctx, w, "failed to revoke reader", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type readerResponse struct {
	Reader     string `json:"reader"`
	Role       string `json:"role,omitempty"`
	Registered bool   `json:"registered"`
}

func (h *Handler) handleGetReader(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reader, err := id.ParseIdentity(chi.URLParam(r, "reader"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	role, err := h.registry.RoleOf(ctx, reader)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to look up reader role", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, readerResponse{
		Reader:     reader.String(),
		Role:       string(role),
		Registered: role != registry.RoleNone,
	})
}

type setAttributeRequest struct {
	Value string `json:"value"`
}

func (h *Handler) handleSetAttribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	subject, err := id.ParseIdentity(chi.URLParam(r, "subject"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req setAttributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid set attribute request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.SetAttribute(ctx, caller, subject, req.Value); err != nil {
		h.writeServiceError(ctx, w, "failed to set subject attribute", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type attributeResponse struct {
	Subject string `json:"subject"`
	Value   string `json:"value"`
}

func (h *Handler) handleGetAttribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := id.ParseIdentity(chi.URLParam(r, "subject"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	value, err := h.registry.AttributeOf(ctx, subject)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to look up subject attribute", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, attributeResponse{
		Subject: subject.String(),
		Value:   value,
	})
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	shared.WriteError(w, err)
}
