package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drivelog/internal/platform/metrics"
	"drivelog/internal/platform/middleware"
	"drivelog/internal/transport/http/shared"
	id "drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
)

// Service defines the interface for consent operations. The subject is always
// the authenticated caller; a driver can only move their own edges.
type Service interface {
	Grant(ctx context.Context, subject, reader id.Identity) error
	RevokeGrant(ctx context.Context, subject, reader id.Identity) error
	Deny(ctx context.Context, subject, reader id.Identity) error
	Undeny(ctx context.Context, subject, reader id.Identity) error
	IsGranted(ctx context.Context, subject, reader id.Identity) (bool, error)
	IsDenied(ctx context.Context, subject, reader id.Identity) (bool, error)
}

// Handler handles consent grant and denial endpoints.
type Handler struct {
	logger  *slog.Logger
	consent Service
	metrics *metrics.Metrics
}

// New creates a new consent Handler.
func New(consent Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		consent: consent,
		metrics: metrics,
	}
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/consent/grants", h.handleGrant)
	r.Delete("/consent/grants/{reader}", h.handleRevokeGrant)
	r.Get("/consent/grants/{reader}", h.handleGrantStatus)
	r.Post("/consent/denials", h.handleDeny)
	r.Delete("/consent/denials/{reader}", h.handleUndeny)
	r.Get("/consent/denials/{reader}", h.handleDenialStatus)
}

type edgeRequest struct {
	Reader string `json:"reader"`
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	h.mutateEdge(w, r, "grant", h.consent.Grant)
}

func (h *Handler) handleDeny(w http.ResponseWriter, r *http.Request) {
	h.mutateEdge(w, r, "deny", h.consent.Deny)
}

func (h *Handler) mutateEdge(w http.ResponseWriter, r *http.Request, kind string,
	op func(ctx context.Context, subject, reader id.Identity) error) {
	ctx := r.Context()
	subject := middleware.GetCaller(ctx)

	var req edgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid consent request",
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

	if err := op(ctx, subject, reader); err != nil {
		h.writeServiceError(ctx, w, "failed to update consent edge", err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncrementConsentChange(kind)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevokeGrant(w http.ResponseWriter, r *http.Request) {
	h.clearEdge(w, r, "revoke_grant", h.consent.RevokeGrant)
}

func (h *Handler) handleUndeny(w http.ResponseWriter, r *http.Request) {
	h.clearEdge(w, r, "undeny", h.consent.Undeny)
}

func (h *Handler) clearEdge(w http.ResponseWriter, r *http.Request, kind string,
	op func(ctx context.Context, subject, reader id.Identity) error) {
	ctx := r.Context()
	subject := middleware.GetCaller(ctx)

	reader, err := id.ParseIdentity(chi.URLParam(r, "reader"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := op(ctx, subject, reader); err != nil {
		h.writeServiceError(ctx, w, "failed to clear consent edge", err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncrementConsentChange(kind)
	}
	w.WriteHeader(http.StatusNoContent)
}

type edgeStatusResponse struct {
	Reader string `json:"reader"`
	Active bool   `json:"active"`
}

func (h *Handler) handleGrantStatus(w http.ResponseWriter, r *http.Request) {
	h.edgeStatus(w, r, h.consent.IsGranted)
}

func (h *Handler) handleDenialStatus(w http.ResponseWriter, r *http.Request) {
	h.edgeStatus(w, r, h.consent.IsDenied)
}

func (h *Handler) edgeStatus(w http.ResponseWriter, r *http.Request,
	check func(ctx context.Context, subject, reader id.Identity) (bool, error)) {
	ctx := r.Context()
	subject := middleware.GetCaller(ctx)

	reader, err := id.ParseIdentity(chi.URLParam(r, "reader"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	active, err := check(ctx, subject, reader)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to read consent edge", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, edgeStatusResponse{
		Reader: reader.String(),
		Active: active,
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
