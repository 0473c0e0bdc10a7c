package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"drivelog/internal/gateway/ports"
	"drivelog/internal/ledger"
	"drivelog/pkg/capability"
	"drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
	"drivelog/pkg/platform/audit"
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the single entry point readers use to fetch a subject's records.
// It composes the role directory, grant table, and denylist in a fixed
// evaluation order and proxies into the ledger only on success.
//
// The service is memoryless: every Fetch re-reads current mapping state, so a
// mutation racing an in-flight call resolves as whichever write lands first.
type Service struct {
	roles    ports.RoleChecker
	consents ports.ConsentChecker
	admin    *capability.Admin
	audits   AuditPublisher
	logger   *slog.Logger

	// identity is the gateway's own identity, presented to the ledger's
	// capability check on every delegated read.
	identity domain.Identity

	mu  sync.RWMutex
	led ports.LedgerReader
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

func New(identity domain.Identity, roles ports.RoleChecker, consents ports.ConsentChecker, admin *capability.Admin, opts ...Option) (*Service, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("gateway identity must not be zero")
	}
	if roles == nil {
		return nil, fmt.Errorf("role checker is required")
	}
	if consents == nil {
		return nil, fmt.Errorf("consent checker is required")
	}
	if admin == nil {
		return nil, fmt.Errorf("admin capability is required")
	}
	svc := &Service{
		identity: identity,
		roles:    roles,
		consents: consents,
		admin:    admin,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Identity returns the gateway's own identity, used to configure the ledger's
// caller restriction.
func (s *Service) Identity() domain.Identity {
	return s.identity
}

// Fetch evaluates authorization and, on success, returns a page of the
// subject's records plus the subject's full record count (so callers can
// compute pagination metadata without a second round trip).
//
// The evaluation order is fixed and must not be reordered:
//  1. requester == subject bypasses every check,
//  2. denylist (before registration, so a subject can block an unregistered
//     identity with a single predictable error),
//  3. registration,
//  4. grant.
func (s *Service) Fetch(ctx context.Context, requester, subject domain.Identity, offset, limit uint64) ([]ledger.EventRecord, uint64, error) {
	if subject.IsZero() {
		return nil, 0, dErrors.New(dErrors.CodeZeroIdentity, "subject identity must not be zero")
	}

	if requester != subject {
		// The three mapping reads are independent, so they are gathered in
		// parallel; precedence is applied afterwards in the fixed order.
		var denied, registered, granted bool
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			denied, err = s.consents.IsDenied(gctx, subject, requester)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check denylist")
			}
			return nil
		})
		g.Go(func() error {
			var err error
			registered, err = s.roles.IsRegistered(gctx, requester)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check registration")
			}
			return nil
		})
		g.Go(func() error {
			var err error
			granted, err = s.consents.IsGranted(gctx, subject, requester)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check grant")
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, 0, err
		}

		if denied {
			s.emitDecision(ctx, requester, subject, "denied", string(dErrors.CodeDenied))
			return nil, 0, dErrors.New(dErrors.CodeDenied, "reader is denied by the subject")
		}
		if !registered {
			s.emitDecision(ctx, requester, subject, "denied", string(dErrors.CodeNotRegistered))
			return nil, 0, dErrors.New(dErrors.CodeNotRegistered, "reader holds no role")
		}
		if !granted {
			s.emitDecision(ctx, requester, subject, "denied", string(dErrors.CodeAccessBlocked))
			return nil, 0, dErrors.New(dErrors.CodeAccessBlocked, "subject has not granted this reader")
		}
	}

	s.mu.RLock()
	led := s.led
	s.mu.RUnlock()
	if led == nil {
		return nil, 0, dErrors.New(dErrors.CodeLedgerNotConfigured, "no ledger is configured")
	}

	records, err := led.Records(ctx, s.identity, subject, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := led.Count(ctx, subject)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count records")
	}
	s.emitDecision(ctx, requester, subject, "allowed", "")
	return records, total, nil
}

// SetLedger repoints the active ledger. Routing change only: nothing is
// migrated or copied, and the new ledger starts with its own state unless
// seeded externally.
func (s *Service) SetLedger(ctx context.Context, caller domain.Identity, led ports.LedgerReader) error {
	if err := s.admin.Check(caller); err != nil {
		return err
	}
	if led == nil {
		return dErrors.New(dErrors.CodeBadRequest, "ledger must not be nil")
	}
	s.mu.Lock()
	s.led = led
	s.mu.Unlock()
	s.emit(ctx, audit.Event{
		Actor:  caller,
		Action: string(audit.EventLedgerRepointed),
	})
	return nil
}

func (s *Service) emitDecision(ctx context.Context, requester, subject domain.Identity, decision, reason string) {
	action := audit.EventFetchAllowed
	if decision != "allowed" {
		action = audit.EventFetchRejected
	}
	s.emit(ctx, audit.Event{
		Subject:  subject,
		Actor:    requester,
		Action:   string(action),
		Decision: decision,
		Reason:   reason,
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audits == nil {
		return
	}
	if err := s.audits.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
