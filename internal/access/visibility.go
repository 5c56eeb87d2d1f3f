package access

// CanView classifies whether the actor may see the subject. It is a pure
// function: audit logging is the guard's responsibility, not the classifier's.
//
// Rules are evaluated in strict order, first match wins:
//
//  1. disabled actor             -> deny  ACTOR_DISABLED
//  2. PUBLIC visibility          -> allow PUBLIC_VISIBLE
//  3. unrecognised visibility    -> deny  UNKNOWN_VISIBILITY
//  4. public actor               -> deny  PUBLIC_ACTOR_DENIED
//  5. actor owns the subject     -> allow OWNER_ACCESS
//  6. administrative role        -> allow ADMIN_OVERRIDE
//  7. otherwise                  -> defer PERMISSION_CHECK_REQUIRED
//
// The unknown-visibility check deliberately precedes ownership and admin
// checks: a corrupted visibility value must surface for every actor rather
// than be masked by an owner or admin grant. Only the disabled-actor rule
// outranks it, since a disabled account learns nothing either way.
func CanView(actor Actor, sub Subject) Decision {
	if actor.Disabled() {
		return Decision{Reason: ReasonActorDisabled}
	}
	if sub.Visibility == VisibilityPublic {
		return Decision{CanView: true, Reason: ReasonPublicVisible}
	}
	if !sub.Visibility.Known() {
		return Decision{Reason: ReasonUnknownVisibility}
	}
	if actor.IsPublic() {
		return Decision{Reason: ReasonPublicActorDenied}
	}
	if sub.OwnerID != "" && actor.ID == sub.OwnerID {
		return Decision{CanView: true, Reason: ReasonOwnerAccess}
	}
	if actor.IsAdmin() {
		return Decision{CanView: true, Reason: ReasonAdminOverride}
	}
	return Decision{Reason: ReasonPermissionRequired}
}
