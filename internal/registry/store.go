package registry

import (
	"context"

	"drivelog/pkg/domain"
)

// Store persists role assignments and per-subject attributes. Reads are total:
// an unknown reader maps to RoleNone and an unknown subject to the empty
// attribute, so lookups never fail on absence.
type Store interface {
	SetRole(ctx context.Context, reader domain.Identity, role Role) error
	RoleOf(ctx context.Context, reader domain.Identity) (Role, error)

	SetAttribute(ctx context.Context, subject domain.Identity, value string) error
	AttributeOf(ctx context.Context, subject domain.Identity) (string, error)
}
