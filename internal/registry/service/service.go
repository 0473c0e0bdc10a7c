package service

import (
	"context"
	"fmt"
	"log/slog"

	"drivelog/internal/registry"
	"drivelog/pkg/capability"
	"drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
	"drivelog/pkg/platform/audit"
)

// AuditPublisher receives notification events for external audit consumers.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the administrator-owned role directory and subject attribute
// store. Only the administrative capability may mutate either mapping; reads
// are open and never fail.
type Service struct {
	store  registry.Store
	admin  *capability.Admin
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

func New(store registry.Store, admin *capability.Admin, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("registry store is required")
	}
	if admin == nil {
		return nil, fmt.Errorf("admin capability is required")
	}
	svc := &Service{
		store:  store,
		admin:  admin,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register assigns a role to a reader. Re-registration overwrites and repeated
// identical calls are idempotent.
func (s *Service) Register(ctx context.Context, caller, reader domain.Identity, role registry.Role) error {
	if err := s.admin.Check(caller); err != nil {
		return err
	}
	if reader.IsZero() {
		return dErrors.New(dErrors.CodeZeroIdentity, "reader identity must not be zero")
	}
	if !role.Assignable() {
		return dErrors.New(dErrors.CodeInvalidRole, "role is not assignable")
	}
	if err := s.store.SetRole(ctx, reader, role); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register reader")
	}
	s.emit(ctx, audit.Event{
		Actor:    caller,
		Subject:  reader,
		Action:   string(audit.EventReaderRegistered),
		Decision: string(role),
	})
	return nil
}

// Revoke resets a reader's role to RoleNone. The assignment is a value reset,
// never a physical removal.
func (s *Service) Revoke(ctx context.Context, caller, reader domain.Identity) error {
	if err := s.admin.Check(caller); err != nil {
		return err
	}
	if reader.IsZero() {
		return dErrors.New(dErrors.CodeZeroIdentity, "reader identity must not be zero")
	}
	current, err := s.store.RoleOf(ctx, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up reader role")
	}
	if current == registry.RoleNone {
		return dErrors.New(dErrors.CodeNotRegistered, "reader is not registered")
	}
	if err := s.store.SetRole(ctx, reader, registry.RoleNone); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke reader")
	}
	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: reader,
		Action:  string(audit.EventReaderRevoked),
		Reason:  string(current),
	})
	return nil
}

// RoleOf is a pure read. Unknown readers map to RoleNone.
func (s *Service) RoleOf(ctx context.Context, reader domain.Identity) (registry.Role, error) {
	role, err := s.store.RoleOf(ctx, reader)
	if err != nil {
		return registry.RoleNone, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up reader role")
	}
	return role, nil
}

// IsRegistered reports whether the reader currently holds any role.
func (s *Service) IsRegistered(ctx context.Context, reader domain.Identity) (bool, error) {
	role, err := s.RoleOf(ctx, reader)
	if err != nil {
		return false, err
	}
	return role != registry.RoleNone, nil
}

// SetAttribute records per-subject metadata (the vehicle identifier). The
// value may be overwritten at any time and is never deleted; ledger appends
// snapshot whatever is current.
func (s *Service) SetAttribute(ctx context.Context, caller, subject domain.Identity, value string) error {
	if err := s.admin.Check(caller); err != nil {
		return err
	}
	if subject.IsZero() {
		return dErrors.New(dErrors.CodeZeroIdentity, "subject identity must not be zero")
	}
	if err := s.store.SetAttribute(ctx, subject, value); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set subject attribute")
	}
	s.emit(ctx, audit.Event{
		Actor:   caller,
		Subject: subject,
		Action:  string(audit.EventAttributeSet),
	})
	return nil
}

// AttributeOf is a pure read. Unset attributes map to the empty string; the
// ledger applies its own sentinel at append time.
func (s *Service) AttributeOf(ctx context.Context, subject domain.Identity) (string, error) {
	value, err := s.store.AttributeOf(ctx, subject)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up subject attribute")
	}
	return value, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
