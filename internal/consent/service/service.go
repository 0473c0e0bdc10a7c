package service

import (
	"context"
	"fmt"
	"log/slog"

	"drivelog/internal/consent"
	"drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
	"drivelog/pkg/platform/audit"
)

// RoleChecker is the registry-side precondition for grants. Only consulted at
// grant time; a later role revocation does not clear an existing grant.
type RoleChecker interface {
	IsRegistered(ctx context.Context, reader domain.Identity) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the subject-self-service surface for grant and deny edges. The
// subject argument is always the authenticated caller; handlers resolve it
// from the request context, never from the payload.
type Service struct {
	store  consent.Store
	roles  RoleChecker
	audits AuditPublisher
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audits = publisher
	}
}

func New(store consent.Store, roles RoleChecker, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("consent store is required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role checker is required")
	}
	svc := &Service{
		store:  store,
		roles:  roles,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Grant permits a reader to fetch the subject's records. The reader must hold
// a role right now; the check is not re-evaluated afterwards.
func (s *Service) Grant(ctx context.Context, subject, reader domain.Identity) error {
	if reader.IsZero() {
		return dErrors.New(dErrors.CodeZeroIdentity, "reader identity must not be zero")
	}
	registered, err := s.roles.IsRegistered(ctx, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check reader registration")
	}
	if !registered {
		return dErrors.New(dErrors.CodeUnknownEntity, "reader is not registered")
	}
	if err := s.store.Set(ctx, consent.EdgeGrant, subject, reader); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record grant")
	}
	s.emit(ctx, subject, reader, audit.EventAccessGranted)
	return nil
}

// RevokeGrant clears a grant edge. Always safe: no registration precondition,
// idempotent on absent edges.
func (s *Service) RevokeGrant(ctx context.Context, subject, reader domain.Identity) error {
	if reader.IsZero() {
		return dErrors.New(dErrors.CodeZeroIdentity, "reader identity must not be zero")
	}
	if err := s.store.Clear(ctx, consent.EdgeGrant, subject, reader); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke grant")
	}
	s.emit(ctx, subject, reader, audit.EventAccessRevoked)
	return nil
}

// Deny blocks a reader outright. Deliberately no registration precondition: a
// subject may preemptively block an identity that was never registered or
// granted. The denial is sticky until an explicit Undeny.
func (s *Service) Deny(ctx context.Context, subject, reader domain.Identity) error {
	if reader.IsZero() {
		return dErrors.New(dErrors.CodeZeroIdentity, "reader identity must not be zero")
	}
	if err := s.store.Set(ctx, consent.EdgeDeny, subject, reader); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record denial")
	}
	s.emit(ctx, subject, reader, audit.EventReaderDenied)
	return nil
}

// Undeny clears a deny edge. Idempotent.
func (s *Service) Undeny(ctx context.Context, subject, reader domain.Identity) error {
	if reader.IsZero() {
		return dErrors.New(dErrors.CodeZeroIdentity, "reader identity must not be zero")
	}
	if err := s.store.Clear(ctx, consent.EdgeDeny, subject, reader); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear denial")
	}
	s.emit(ctx, subject, reader, audit.EventReaderUndenied)
	return nil
}

// IsGranted is a pure read of the grant edge.
func (s *Service) IsGranted(ctx context.Context, subject, reader domain.Identity) (bool, error) {
	ok, err := s.store.Has(ctx, consent.EdgeGrant, subject, reader)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check grant")
	}
	return ok, nil
}

// IsDenied is a pure read of the deny edge.
func (s *Service) IsDenied(ctx context.Context, subject, reader domain.Identity) (bool, error) {
	ok, err := s.store.Has(ctx, consent.EdgeDeny, subject, reader)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check denial")
	}
	return ok, nil
}

func (s *Service) emit(ctx context.Context, subject, reader domain.Identity, action audit.AuditEvent) {
	if s.audits == nil {
		return
	}
	event := audit.Event{
		Subject: subject,
		Actor:   subject,
		Action:  string(action),
		Reason:  reader.String(),
	}
	if err := s.audits.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
