// Package access centralises actor-scoped entity access resolution:
// who the requester is, whether they may see an entity, whether they may
// mutate it, and the audit trail of every non-public decision.
package access

// ActorKind discriminates authenticated users from the anonymous public actor.
type ActorKind string

const (
	// KindUser marks an authenticated user actor.
	KindUser ActorKind = "USER"
	// KindPublic marks the anonymous public pseudo-actor.
	KindPublic ActorKind = "PUBLIC"
)

// Role represents the high-level role attached to an actor.
type Role string

const (
	RoleGuest      Role = "GUEST"
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// PublicActorID is the sentinel identity recorded for anonymous access.
const PublicActorID = "public"

// Actor is the identity on whose behalf an operation is attempted.
// It is built once at request entry and immutable for the request's duration.
type Actor struct {
	Kind        ActorKind
	ID          string
	Role        Role
	Permissions []string
	Active      bool
}

// PublicActor returns the canonical anonymous actor. It carries no
// permissions and is implicitly a guest.
func PublicActor() Actor {
	return Actor{Kind: KindPublic, Role: RoleGuest, Active: true}
}

// ResolveActor normalises arbitrary caller input into a well-formed actor.
// It never fails: nil or malformed input degrades to the public actor, so
// downstream checks start from least privilege rather than most.
func ResolveActor(in *Actor) Actor {
	if in == nil {
		return PublicActor()
	}
	switch in.Kind {
	case KindUser:
		if in.ID == "" {
			return PublicActor()
		}
		out := *in
		if out.Role == "" {
			out.Role = RoleUser
		}
		return out
	case KindPublic:
		// A public actor never carries an identity or elevated permissions,
		// whatever the caller handed us.
		return PublicActor()
	default:
		return PublicActor()
	}
}

// IsPublic reports whether the actor is the anonymous public actor.
func (a Actor) IsPublic() bool {
	return a.Kind != KindUser
}

// Disabled reports whether the actor is an authenticated user whose account
// is not active. Disabled actors are denied everywhere regardless of role.
func (a Actor) Disabled() bool {
	return a.Kind == KindUser && !a.Active
}

// IsAdmin reports whether the actor holds an administrative role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

// HasPermission reports exact membership of a permission token. There is no
// hierarchy, wildcarding or inheritance between tokens.
func (a Actor) HasPermission(perm string) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// AuditID returns the identity recorded in the audit trail.
func (a Actor) AuditID() string {
	if a.IsPublic() || a.ID == "" {
		return PublicActorID
	}
	return a.ID
}
