// Package ports defines the collaborator interfaces the access gateway
// composes. The gateway is the single authorization authority; these ports
// expose only the reads it needs, never the mutations.
package ports

import (
	"context"

	"drivelog/internal/ledger"
	"drivelog/pkg/domain"
)

// RoleChecker answers whether a reader currently holds any role.
type RoleChecker interface {
	IsRegistered(ctx context.Context, reader domain.Identity) (bool, error)
}

// ConsentChecker answers the subject-owned grant and deny relations.
type ConsentChecker interface {
	IsGranted(ctx context.Context, subject, reader domain.Identity) (bool, error)
	IsDenied(ctx context.Context, subject, reader domain.Identity) (bool, error)
}

// LedgerReader is the capability-restricted read surface of the event ledger.
// The caller identity is the gateway's own; the ledger refuses anyone else.
type LedgerReader interface {
	Records(ctx context.Context, caller, subject domain.Identity, offset, limit uint64) ([]ledger.EventRecord, error)
	Count(ctx context.Context, subject domain.Identity) (uint64, error)
}
