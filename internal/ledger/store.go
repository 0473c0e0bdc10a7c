package ledger

import (
	"context"
	"time"

	"drivelog/pkg/domain"
)

// Store persists event records. Append assigns the next per-subject sequence
// id atomically: 0-based, dense, incremented by exactly one per append,
// independent across subjects.
type Store interface {
	Append(ctx context.Context, subject domain.Identity, attribute string, class EventClass, ts time.Time) (EventRecord, error)
	Count(ctx context.Context, subject domain.Identity) (uint64, error)
	// Page returns records at sequence positions [offset, offset+limit) in
	// ascending sequence order. Empty when offset >= count or limit == 0.
	Page(ctx context.Context, subject domain.Identity, offset, limit uint64) ([]EventRecord, error)
}
