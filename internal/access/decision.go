package access

// Visibility controls whether an entity is publicly readable.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityDraft   Visibility = "DRAFT"
)

// Known reports whether the value is one of the recognised visibilities.
// Anything else is a data-integrity signal, never a normal denial.
func (v Visibility) Known() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityDraft:
		return true
	}
	return false
}

// Subject is the read-only view of an entity that access resolution needs.
// Entity modules extract it from their own domain types.
type Subject struct {
	Type       string
	ID         string
	OwnerID    string
	Visibility Visibility
}

// Reason is the machine-readable explanation attached to a decision.
type Reason string

const (
	ReasonPublicVisible      Reason = "PUBLIC_VISIBLE"
	ReasonOwnerAccess        Reason = "OWNER_ACCESS"
	ReasonAdminOverride      Reason = "ADMIN_OVERRIDE"
	ReasonPermissionRequired Reason = "PERMISSION_CHECK_REQUIRED"
	ReasonPermissionGranted  Reason = "PERMISSION_GRANTED"
	ReasonPermissionDenied   Reason = "PERMISSION_DENIED"
	ReasonPublicActorDenied  Reason = "PUBLIC_ACTOR_DENIED"
	ReasonUnknownVisibility  Reason = "UNKNOWN_VISIBILITY"
	ReasonActorDisabled      Reason = "ACTOR_DISABLED"
)

// Decision is the outcome of a single access check. It is computed per call,
// consumed immediately and never persisted.
type Decision struct {
	CanView           bool
	CanAct            bool
	Reason            Reason
	CheckedPermission string
}
