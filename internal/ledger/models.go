// Package ledger is the per-subject, append-only event store. Records are
// immutable, densely 0-indexed per subject, and never updated or deleted.
package ledger

import (
	"time"

	"drivelog/pkg/domain"
)

// EventClass is the closed catalogue of observation categories. The decision
// of which class to append is made upstream; the ledger only records it.
type EventClass string

const (
	ClassHarshBraking      EventClass = "harsh_braking"
	ClassHarshAcceleration EventClass = "harsh_acceleration"
	ClassSpeeding          EventClass = "speeding"
	ClassSharpTurn         EventClass = "sharp_turn"
	ClassCollision         EventClass = "collision"
	ClassExcessiveIdle     EventClass = "excessive_idle"
)

// Valid reports whether the class is in the catalogue.
func (c EventClass) Valid() bool {
	switch c {
	case ClassHarshBraking, ClassHarshAcceleration, ClassSpeeding,
		ClassSharpTurn, ClassCollision, ClassExcessiveIdle:
		return true
	default:
		return false
	}
}

// DefaultAttribute is the snapshot sentinel recorded when a subject has no
// attribute configured at append time.
const DefaultAttribute = "unassigned"

// EventRecord is an immutable ledger entry. AttributeSnapshot is the subject
// attribute at append time and is never re-resolved, so historical records
// stay stable when the attribute later changes.
type EventRecord struct {
	Subject           domain.Identity `json:"subject"`
	AttributeSnapshot string          `json:"attribute_snapshot"`
	Class             EventClass      `json:"event_class"`
	Timestamp         time.Time       `json:"timestamp"`
	SequenceID        uint64          `json:"sequence_id"`
}
