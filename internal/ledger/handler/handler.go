package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"drivelog/internal/ledger"
	"drivelog/internal/platform/metrics"
	"drivelog/internal/platform/middleware"
	"drivelog/internal/transport/http/shared"
	id "drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
)

// Service defines the interface for ledger operations exposed over HTTP.
// Paginated reads are not here: those flow through the access gateway only.
type Service interface {
	Append(ctx context.Context, subject id.Identity, class ledger.EventClass) (uint64, error)
	Count(ctx context.Context, subject id.Identity) (uint64, error)
	SetGateway(ctx context.Context, caller, gateway id.Identity) error
}

// Handler handles event append and ledger administration endpoints.
type Handler struct {
	logger  *slog.Logger
	ledger  Service
	metrics *metrics.Metrics
}

// New creates a new ledger Handler.
func New(ledger Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		ledger:  ledger,
		metrics: metrics,
	}
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events", h.handleAppend)
	r.Get("/subjects/{subject}/events/count", h.handleCount)
	r.Put("/ledger/gateway", h.handleSetGateway)
}

type appendRequest struct {
	Class string `json:"class"`
}

type appendResponse struct {
	Subject    string `json:"subject"`
	SequenceID uint64 `json:"sequence_id"`
}

// handleAppend records a driving event for the authenticated subject.
func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := middleware.GetCaller(ctx)

	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid append request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	seq, err := h.ledger.Append(ctx, subject, ledger.EventClass(req.Class))
	if err != nil {
		h.writeServiceError(ctx, w, "failed to append event", err)
		return
	}

	if h.metrics != nil {
		h.metrics.IncrementEventsAppended()
	}
	shared.WriteJSON(w, http.StatusCreated, appendResponse{
		Subject:    subject.String(),
		SequenceID: seq,
	})
}

type countResponse struct {
	Subject string `json:"subject"`
	Count   uint64 `json:"count"`
}

// handleCount exposes the per-subject record count. Counts are not gated:
// only record contents are access controlled.
func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subject, err := id.ParseIdentity(chi.URLParam(r, "subject"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	count, err := h.ledger.Count(ctx, subject)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to count events", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, countResponse{
		Subject: subject.String(),
		Count:   count,
	})
}

type setGatewayRequest struct {
	Gateway string `json:"gateway"`
}

// handleSetGateway repoints the identity the ledger accepts paginated reads
// from. Administrative capability required.
func (h *Handler) handleSetGateway(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	var req setGatewayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid set gateway request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	gateway, err := id.ParseIdentity(req.Gateway)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.ledger.SetGateway(ctx, caller, gateway); err != nil {
		h.writeServiceError(ctx, w, "failed to repoint ledger gateway", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
