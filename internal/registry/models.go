package registry

import (
	"time"

	"drivelog/pkg/domain"
)

// Role is the closed set of organizational reader roles. RoleNone is the zero
// value and denotes "not registered"; it is never assignable.
type Role string

const (
	RoleNone           Role = ""
	RoleRegulator      Role = "regulator"
	RoleInsurer        Role = "insurer"
	RoleFleetOperator  Role = "fleet_operator"
	RoleLawEnforcement Role = "law_enforcement"
)

// Assignable reports whether the role may be registered. RoleNone and values
// outside the catalogue are rejected at the boundary.
func (r Role) Assignable() bool {
	switch r {
	case RoleRegulator, RoleInsurer, RoleFleetOperator, RoleLawEnforcement:
		return true
	default:
		return false
	}
}

// Assignment captures a reader's current role. Revocation resets Role to
// RoleNone rather than deleting the row, so re-registration overwrites.
type Assignment struct {
	Reader    domain.Identity
	Role      Role
	UpdatedAt time.Time
}
