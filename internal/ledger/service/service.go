package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"drivelog/internal/ledger"
	"drivelog/pkg/capability"
	"drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
	"drivelog/pkg/platform/audit"
)

// AttributeSource resolves the subject attribute snapshotted into each
// appended record. Backed by the registry service.
type AttributeSource interface {
	AttributeOf(ctx context.Context, subject domain.Identity) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns appends and reads of the event ledger. Appends belong to
// whichever identity acts as the subject; the paginated read is restricted to
// the configured gateway identity so the gateway's authorization checks
// cannot be bypassed by calling the ledger directly.
type Service struct {
	store  ledger.Store
	attrs  AttributeSource
	admin  *capability.Admin
	audits AuditPublisher
	logger *slog.Logger
	clock  func() time.Time

	mu      sync.RWMutex
	gateway domain.Identity
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

// WithClock overrides the timestamp source. Tests use a fixed clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func New(store ledger.Store, attrs AttributeSource, admin *capability.Admin, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if attrs == nil {
		return nil, fmt.Errorf("attribute source is required")
	}
	if admin == nil {
		return nil, fmt.Errorf("admin capability is required")
	}
	svc := &Service{
		store:  store,
		attrs:  attrs,
		admin:  admin,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Append records an event for the subject and returns the new sequence id.
// The subject attribute is resolved once, here; the record never re-resolves
// it, so history is stable under later attribute changes.
func (s *Service) Append(ctx context.Context, subject domain.Identity, class ledger.EventClass) (uint64, error) {
	if subject.IsZero() {
		return 0, dErrors.New(dErrors.CodeZeroIdentity, "subject identity must not be zero")
	}
	if !class.Valid() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "unknown event class")
	}
	attribute, err := s.attrs.AttributeOf(ctx, subject)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve subject attribute")
	}
	if attribute == "" {
		attribute = ledger.DefaultAttribute
	}
	record, err := s.store.Append(ctx, subject, attribute, class, s.clock().UTC())
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append event")
	}
	s.emit(ctx, audit.Event{
		Subject:  subject,
		Actor:    subject,
		Action:   string(audit.EventRecordAppended),
		Decision: string(class),
	})
	return record.SequenceID, nil
}

// Count is a pure read of the subject's total record count.
func (s *Service) Count(ctx context.Context, subject domain.Identity) (uint64, error) {
	count, err := s.store.Count(ctx, subject)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count events")
	}
	return count, nil
}

// Records is the gateway-restricted paginated read. It performs no
// subject-level authorization itself — that is the gateway's single
// responsibility — but refuses any caller other than the configured gateway.
func (s *Service) Records(ctx context.Context, caller, subject domain.Identity, offset, limit uint64) ([]ledger.EventRecord, error) {
	s.mu.RLock()
	gateway := s.gateway
	s.mu.RUnlock()
	if gateway.IsZero() || caller != gateway {
		return nil, dErrors.New(dErrors.CodeUnauthorizedGateway, "caller is not the configured gateway")
	}
	records, err := s.store.Page(ctx, subject, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to page events")
	}
	return records, nil
}

// SetGateway repoints the identity allowed to read through the ledger.
// Routing change only; no data moves.
func (s *Service) SetGateway(ctx context.Context, caller, gateway domain.Identity) error {
	if err := s.admin.Check(caller); err != nil {
		return err
	}
	if gateway.IsZero() {
		return dErrors.New(dErrors.CodeZeroIdentity, "gateway identity must not be zero")
	}
	s.mu.Lock()
	s.gateway = gateway
	s.mu.Unlock()
	s.emit(ctx, audit.Event{
		Subject: gateway,
		Actor:   caller,
		Action:  string(audit.EventGatewayRepointed),
	})
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
