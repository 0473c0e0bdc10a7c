// Package capability models the single administrative identity that owns the
// role directory, the subject attribute store, and the routing pointers.
// Passing the capability to constructors keeps administrator state explicit
// instead of ambient.
package capability

import (
	"sync"

	"drivelog/pkg/domain"
	dErrors "drivelog/pkg/domain-errors"
)

// Admin is a rotatable single-owner capability. All administrator-only
// operations call Check before mutating anything.
type Admin struct {
	mu sync.RWMutex
	id domain.Identity
}

func NewAdmin(id domain.Identity) (*Admin, error) {
	if id.IsZero() {
		return nil, dErrors.New(dErrors.CodeZeroIdentity, "administrator identity must not be zero")
	}
	return &Admin{id: id}, nil
}

// Check rejects any caller that does not currently hold the capability.
func (a *Admin) Check(caller domain.Identity) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if caller != a.id {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the administrator")
	}
	return nil
}

// Rotate hands the capability to a new identity. Only the current holder may
// rotate, and the new holder must be a real identity.
func (a *Admin) Rotate(caller, next domain.Identity) error {
	if next.IsZero() {
		return dErrors.New(dErrors.CodeZeroIdentity, "new administrator identity must not be zero")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if caller != a.id {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the administrator")
	}
	a.id = next
	return nil
}

// Holder returns the current capability holder. Used by wiring and tests.
func (a *Admin) Holder() domain.Identity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.id
}
