package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"drivelog/internal/registry"
	"drivelog/pkg/capability"
	"drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
	"drivelog/pkg/platform/audit"
	auditmemory "drivelog/pkg/platform/audit/store/memory"
	"drivelog/pkg/platform/audit/publisher"
)

type RegistrySuite struct {
	suite.Suite
	ctx        context.Context
	adminID    domain.Identity
	svc        *Service
	auditStore *auditmemory.InMemoryStore
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctx = context.Background()
	s.adminID = domain.NewIdentity()
	admin, err := capability.NewAdmin(s.adminID)
	s.Require().NoError(err)

	s.auditStore = auditmemory.NewInMemoryStore()
	pub := publisher.NewPublisher(s.auditStore)

	s.svc, err = New(registry.NewInMemoryStore(), admin, WithAuditPublisher(pub))
	s.Require().NoError(err)
}

func (s *RegistrySuite) TestRegister() {
	reader := domain.NewIdentity()

	s.Run("non-admin cannot register", func() {
		err := s.svc.Register(s.ctx, domain.NewIdentity(), reader, registry.RoleInsurer)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects zero reader", func() {
		err := s.svc.Register(s.ctx, s.adminID, domain.ZeroIdentity, registry.RoleInsurer)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeZeroIdentity))
	})

	s.Run("rejects RoleNone and unknown roles", func() {
		err := s.svc.Register(s.ctx, s.adminID, reader, registry.RoleNone)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRole))

		err = s.svc.Register(s.ctx, s.adminID, reader, registry.Role("janitor"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRole))
	})

	s.Run("registers and reads back", func() {
		s.Require().NoError(s.svc.Register(s.ctx, s.adminID, reader, registry.RoleRegulator))

		role, err := s.svc.RoleOf(s.ctx, reader)
		s.Require().NoError(err)
		s.Equal(registry.RoleRegulator, role)

		registered, err := s.svc.IsRegistered(s.ctx, reader)
		s.Require().NoError(err)
		s.True(registered)
	})

	s.Run("repeat registration is idempotent and overwrites", func() {
		s.Require().NoError(s.svc.Register(s.ctx, s.adminID, reader, registry.RoleRegulator))
		s.Require().NoError(s.svc.Register(s.ctx, s.adminID, reader, registry.RoleRegulator))
		s.Require().NoError(s.svc.Register(s.ctx, s.adminID, reader, registry.RoleInsurer))

		role, err := s.svc.RoleOf(s.ctx, reader)
		s.Require().NoError(err)
		s.Equal(registry.RoleInsurer, role)
	})
}

func (s *RegistrySuite) TestRevoke() {
	reader := domain.NewIdentity()

	s.Run("revoking an unregistered reader fails", func() {
		err := s.svc.Revoke(s.ctx, s.adminID, reader)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotRegistered))
	})

	s.Run("revocation resets to RoleNone", func() {
		s.Require().NoError(s.svc.Register(s.ctx, s.adminID, reader, registry.RoleFleetOperator))
		s.Require().NoError(s.svc.Revoke(s.ctx, s.adminID, reader))

		registered, err := s.svc.IsRegistered(s.ctx, reader)
		s.Require().NoError(err)
		s.False(registered)
	})

	s.Run("double revocation fails NotRegistered", func() {
		err := s.svc.Revoke(s.ctx, s.adminID, reader)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotRegistered))
	})

	s.Run("re-registration after revocation works", func() {
		s.Require().NoError(s.svc.Register(s.ctx, s.adminID, reader, registry.RoleLawEnforcement))
		role, err := s.svc.RoleOf(s.ctx, reader)
		s.Require().NoError(err)
		s.Equal(registry.RoleLawEnforcement, role)
	})
}

func (s *RegistrySuite) TestAttributes() {
	subject := domain.NewIdentity()

	s.Run("unset attribute reads empty", func() {
		value, err := s.svc.AttributeOf(s.ctx, subject)
		s.Require().NoError(err)
		s.Empty(value)
	})

	s.Run("admin sets and overwrites", func() {
		s.Require().NoError(s.svc.SetAttribute(s.ctx, s.adminID, subject, "ABC123"))
		s.Require().NoError(s.svc.SetAttribute(s.ctx, s.adminID, subject, "XYZ789"))

		value, err := s.svc.AttributeOf(s.ctx, subject)
		s.Require().NoError(err)
		s.Equal("XYZ789", value)
	})

	s.Run("non-admin cannot set", func() {
		err := s.svc.SetAttribute(s.ctx, domain.NewIdentity(), subject, "HACKED")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects zero subject", func() {
		err := s.svc.SetAttribute(s.ctx, s.adminID, domain.ZeroIdentity, "ABC123")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeZeroIdentity))
	})
}

func (s *RegistrySuite) TestAuditTrail() {
	reader := domain.NewIdentity()
	s.Require().NoError(s.svc.Register(s.ctx, s.adminID, reader, registry.RoleRegulator))
	s.Require().NoError(s.svc.Revoke(s.ctx, s.adminID, reader))

	events, err := s.auditStore.ListBySubject(s.ctx, reader)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventReaderRegistered), events[0].Action)
	s.Equal(string(audit.EventReaderRevoked), events[1].Action)
}
