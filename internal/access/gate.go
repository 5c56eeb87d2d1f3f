package access

import "fmt"

// RequirePermission authorises a specific action independent of visibility.
// Denials are raised rather than returned as sentinels so orchestrators can
// deny and log in one place. The error message always carries the permission
// name for the audit trail.
func RequirePermission(actor Actor, perm string) error {
	if actor.Disabled() {
		return fmt.Errorf("%w: permission %s", ErrActorDisabled, perm)
	}
	if actor.IsPublic() {
		return fmt.Errorf("%w: permission %s", ErrPublicActorWrite, perm)
	}
	if !actor.HasPermission(perm) {
		return fmt.Errorf("%w: missing permission %s", ErrForbidden, perm)
	}
	return nil
}
