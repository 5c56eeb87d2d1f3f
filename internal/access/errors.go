package access

import "errors"

var (
	// ErrNotFound is returned on read paths for absent entities and for
	// entities the actor may not see. The two cases are deliberately
	// indistinguishable so denials never leak existence.
	ErrNotFound = errors.New("access: not found")

	// ErrForbidden is returned on write paths when the actor lacks the
	// required permission. Write denials are distinguishable because the
	// caller already knows the entity exists.
	ErrForbidden = errors.New("access: forbidden")

	// ErrPublicActorWrite is returned when the anonymous actor attempts a
	// privileged action. Kept distinct from ErrForbidden for the audit trail.
	ErrPublicActorWrite = errors.New("access: public actor cannot perform this action")

	// ErrActorDisabled is returned when a disabled account attempts any
	// privileged action.
	ErrActorDisabled = errors.New("access: actor account is disabled")

	// ErrUnknownVisibility indicates an entity with an unrecognised
	// visibility value. This is corrupted or unmigrated data and must
	// surface loudly, never be treated as allow or deny.
	ErrUnknownVisibility = errors.New("access: unknown entity visibility")
)
