// Package consent holds the subject-owned grant table and denylist. Both are
// independent relations keyed (subject, reader): grants are never derived from
// role state, and the denylist is the single authority consulted by the
// gateway — denial overrides any grant.
package consent

// EdgeKind distinguishes the two subject-owned relations sharing one store.
// Both relations are sticky: a grant survives the reader's role revocation,
// and a denial survives grant churn until explicitly cleared.
type EdgeKind string

const (
	EdgeGrant EdgeKind = "grant"
	EdgeDeny  EdgeKind = "deny"
)
