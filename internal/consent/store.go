package consent

import (
	"context"

	"drivelog/pkg/domain"
)

// Store persists grant and deny edges. Set and Clear are unconditional and
// idempotent; Has never fails on absence.
type Store interface {
	Set(ctx context.Context, kind EdgeKind, subject, reader domain.Identity) error
	Clear(ctx context.Context, kind EdgeKind, subject, reader domain.Identity) error
	Has(ctx context.Context, kind EdgeKind, subject, reader domain.Identity) (bool, error)
}
