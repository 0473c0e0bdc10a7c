package audit

import (
	"time"

	"drivelog/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// consent changes, denials, role registration. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// rejected fetches, capability rotation, routing changes.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging:
	// appends, successful fetches. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Subject is the driver whose namespace the action touched.
	Subject domain.Identity
	// Actor is who performed the action when different from Subject
	// (administrator operations, reader fetches).
	Actor    domain.Identity
	Action   string
	Decision string
	Reason   string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// Device is a coarse user-agent description of the caller, when the
	// action arrived over HTTP.
	Device string
}

type AuditEvent string

const (
	// Role directory events
	EventReaderRegistered AuditEvent = "reader_registered"
	EventReaderRevoked    AuditEvent = "reader_revoked"
	EventAttributeSet     AuditEvent = "attribute_set"

	// Consent events
	EventAccessGranted  AuditEvent = "access_granted"
	EventAccessRevoked  AuditEvent = "access_revoked"
	EventReaderDenied   AuditEvent = "reader_denied"
	EventReaderUndenied AuditEvent = "reader_undenied"

	// Ledger events
	EventRecordAppended AuditEvent = "record_appended"

	// Gateway events
	EventFetchAllowed  AuditEvent = "fetch_allowed"
	EventFetchRejected AuditEvent = "fetch_rejected"

	// Routing events
	EventLedgerRepointed  AuditEvent = "ledger_repointed"
	EventGatewayRepointed AuditEvent = "gateway_repointed"
	EventAdminRotated     AuditEvent = "admin_rotated"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventReaderRegistered: CategoryCompliance,
	EventReaderRevoked:    CategoryCompliance,
	EventAccessGranted:    CategoryCompliance,
	EventAccessRevoked:    CategoryCompliance,
	EventReaderDenied:     CategoryCompliance,
	EventReaderUndenied:   CategoryCompliance,

	EventFetchRejected:    CategorySecurity,
	EventLedgerRepointed:  CategorySecurity,
	EventGatewayRepointed: CategorySecurity,
	EventAdminRotated:     CategorySecurity,

	EventAttributeSet:   CategoryOperations,
	EventRecordAppended: CategoryOperations,
	EventFetchAllowed:   CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
