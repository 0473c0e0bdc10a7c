package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"drivelog/internal/ledger"
	"drivelog/internal/platform/metrics"
	"drivelog/internal/platform/middleware"
	"drivelog/internal/transport/http/shared"
	id "drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
)

// Service defines the interface for gateway fetch operations.
type Service interface {
	Fetch(ctx context.Context, requester, subject id.Identity, offset, limit uint64) ([]ledger.EventRecord, uint64, error)
}

// Handler handles conditional read access to subject event histories.
type Handler struct {
	logger  *slog.Logger
	gateway Service
	metrics *metrics.Metrics
}

// New creates a new gateway Handler.
func New(gateway Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		gateway: gateway,
		metrics: metrics,
	}
}

// Register registers the gateway routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/subjects/{subject}/events", h.handleFetch)
}

const defaultPageLimit = 50

type fetchResponse struct {
	Subject    string               `json:"subject"`
	Records    []ledger.EventRecord `json:"records"`
	TotalCount uint64               `json:"total_count"`
	Device     string               `json:"device,omitempty"`
}

// handleFetch runs the full access evaluation for the authenticated requester
// and returns a page of the subject's event history on success.
func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requester := middleware.GetCaller(ctx)

	subject, err := id.ParseIdentity(chi.URLParam(r, "subject"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	offset, limit, err := parsePage(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	records, total, err := h.gateway.Fetch(ctx, requester, subject, offset, limit)
	if err != nil {
		h.observeOutcome(err)
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "failed to fetch events",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveFetch("allowed")
	}
	if records == nil {
		records = []ledger.EventRecord{}
	}
	shared.WriteJSON(w, http.StatusOK, fetchResponse{
		Subject:    subject.String(),
		Records:    records,
		TotalCount: total,
		Device:     middleware.GetDevice(ctx),
	})
}

func parsePage(r *http.Request) (offset, limit uint64, err error) {
	limit = defaultPageLimit
	q := r.URL.Query()

	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "offset must be a non-negative integer")
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, 0, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer")
		}
	}
	return offset, limit, nil
}

func (h *Handler) observeOutcome(err error) {
	if h.metrics == nil {
		return
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeDenied:
		h.metrics.ObserveFetch("denied")
	case dErrors.CodeNotRegistered:
		h.metrics.ObserveFetch("not_registered")
	case dErrors.CodeAccessBlocked:
		h.metrics.ObserveFetch("access_blocked")
	case dErrors.CodeLedgerNotConfigured:
		h.metrics.ObserveFetch("ledger_not_configured")
	default:
		h.metrics.ObserveFetch("error")
	}
}
