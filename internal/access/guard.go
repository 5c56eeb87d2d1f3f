package access

import (
	"context"
	"fmt"
	"log/slog"
)

// EntityPermissions names the permission tokens a guard checks for one
// entity type. Own-scoped tokens apply when the actor owns the subject,
// any-scoped tokens otherwise. Empty tokens disable the corresponding path.
type EntityPermissions struct {
	ViewAny   string
	Create    string
	UpdateOwn string
	UpdateAny string
	DeleteOwn string
	DeleteAny string
}

// DecisionMetrics receives one observation per resolved decision.
type DecisionMetrics interface {
	AccessDecision(entityType string, granted bool, reason Reason)
}

// Guard composes the visibility classifier, the permission gate and the
// decision recorder into the shared authorisation flow every entity module
// uses. One guard is built per entity type; the guard itself is stateless
// across requests.
type Guard struct {
	entity   string
	perms    EntityPermissions
	recorder Recorder
	logger   *slog.Logger

	// Metrics is optional; when set, every grant/deny is counted.
	Metrics DecisionMetrics
}

// NewGuard constructs a guard for one entity type.
func NewGuard(entity string, perms EntityPermissions, recorder Recorder, logger *slog.Logger) *Guard {
	return &Guard{entity: entity, perms: perms, recorder: recorder, logger: logger}
}

// AuthorizeView decides whether the actor may read the subject.
//
// Denials come back as ErrNotFound so read paths never reveal that a
// private entity exists. The one exception is an unrecognised visibility
// value, which is raised as ErrUnknownVisibility because it indicates
// corrupted data, not a normal denial.
func (g *Guard) AuthorizeView(ctx context.Context, actor Actor, sub Subject) error {
	d := CanView(actor, sub)

	switch d.Reason {
	case ReasonUnknownVisibility:
		g.record(ctx, actor, sub, d.Reason, "", false, nil)
		return fmt.Errorf("%w: %s %s has visibility %q", ErrUnknownVisibility, g.entity, sub.ID, sub.Visibility)
	case ReasonPermissionRequired:
		if err := RequirePermission(actor, g.perms.ViewAny); err != nil {
			g.record(ctx, actor, sub, ReasonPermissionDenied, g.perms.ViewAny, false, nil)
			return ErrNotFound
		}
		g.record(ctx, actor, sub, ReasonPermissionGranted, g.perms.ViewAny, true, nil)
		return nil
	}

	if !d.CanView {
		g.record(ctx, actor, sub, d.Reason, "", false, nil)
		return ErrNotFound
	}

	// Successful public reads are deliberately not recorded: the trail
	// exists to catch disclosure and escalation attempts, and public reads
	// would drown that signal.
	if d.Reason != ReasonPublicVisible {
		g.record(ctx, actor, sub, d.Reason, "", true, nil)
	}
	return nil
}

// ScopeList constrains a caller-supplied visibility filter to what the
// actor may list. The public actor is always pinned to PUBLIC; an attempt
// to request anything else is recorded as an override event.
func (g *Guard) ScopeList(ctx context.Context, actor Actor, requested Visibility) (Visibility, error) {
	if actor.Disabled() {
		g.record(ctx, actor, Subject{Type: g.entity}, ReasonActorDisabled, "", false, nil)
		return "", fmt.Errorf("%w: list %s", ErrActorDisabled, g.entity)
	}
	if !actor.IsPublic() {
		return requested, nil
	}
	if requested != "" && requested != VisibilityPublic {
		g.record(ctx, actor, Subject{Type: g.entity}, ReasonPublicActorDenied, "", false, map[string]any{
			"requested_visibility": string(requested),
		})
	}
	return VisibilityPublic, nil
}

// AuthorizeCreate gates entity creation. The public actor is denied with a
// distinct error before any permission check so the audit trail separates
// anonymous probing from permission gaps.
func (g *Guard) AuthorizeCreate(ctx context.Context, actor Actor) error {
	if actor.Disabled() {
		g.record(ctx, actor, Subject{Type: g.entity}, ReasonActorDisabled, g.perms.Create, false, nil)
		return fmt.Errorf("%w: create %s", ErrActorDisabled, g.entity)
	}
	if actor.IsPublic() {
		g.record(ctx, actor, Subject{Type: g.entity}, ReasonPublicActorDenied, g.perms.Create, false, nil)
		return fmt.Errorf("%w: create %s", ErrPublicActorWrite, g.entity)
	}
	if err := RequirePermission(actor, g.perms.Create); err != nil {
		g.record(ctx, actor, Subject{Type: g.entity}, ReasonPermissionDenied, g.perms.Create, false, nil)
		return err
	}
	return nil
}

// AuthorizeUpdate gates mutation of an existing subject. The actor needs
// the own-scoped or any-scoped update token depending on ownership, and
// must additionally be able to view the subject: a generic update grant on
// an entity the actor cannot see is still a denial.
func (g *Guard) AuthorizeUpdate(ctx context.Context, actor Actor, sub Subject) error {
	return g.authorizeWrite(ctx, actor, sub, g.perms.UpdateOwn, g.perms.UpdateAny)
}

// AuthorizeDelete gates soft or hard deletion using the delete tokens.
func (g *Guard) AuthorizeDelete(ctx context.Context, actor Actor, sub Subject) error {
	return g.authorizeWrite(ctx, actor, sub, g.perms.DeleteOwn, g.perms.DeleteAny)
}

// RecordMutation appends a granted write to the trail. Services call it
// after persisting so the entry reflects the stored state; mutations of
// public entities are recorded too since writes are low volume.
func (g *Guard) RecordMutation(ctx context.Context, actor Actor, sub Subject, action string) {
	g.record(ctx, actor, sub, ReasonPermissionGranted, "", true, map[string]any{"action": action})
}

func (g *Guard) authorizeWrite(ctx context.Context, actor Actor, sub Subject, ownPerm, anyPerm string) error {
	if actor.Disabled() {
		g.record(ctx, actor, sub, ReasonActorDisabled, "", false, nil)
		return fmt.Errorf("%w: write %s %s", ErrActorDisabled, g.entity, sub.ID)
	}
	if actor.IsPublic() {
		g.record(ctx, actor, sub, ReasonPublicActorDenied, "", false, nil)
		return fmt.Errorf("%w: write %s %s", ErrPublicActorWrite, g.entity, sub.ID)
	}

	perm := anyPerm
	if sub.OwnerID != "" && actor.ID == sub.OwnerID && ownPerm != "" {
		perm = ownPerm
	}
	if err := RequirePermission(actor, perm); err != nil {
		g.record(ctx, actor, sub, ReasonPermissionDenied, perm, false, nil)
		return err
	}

	d := CanView(actor, sub)
	switch d.Reason {
	case ReasonUnknownVisibility:
		g.record(ctx, actor, sub, d.Reason, perm, false, nil)
		return fmt.Errorf("%w: %s %s has visibility %q", ErrUnknownVisibility, g.entity, sub.ID, sub.Visibility)
	case ReasonPermissionRequired:
		if err := RequirePermission(actor, g.perms.ViewAny); err != nil {
			g.record(ctx, actor, sub, ReasonPermissionDenied, g.perms.ViewAny, false, nil)
			return fmt.Errorf("%w: cannot view %s %s", ErrForbidden, g.entity, sub.ID)
		}
	default:
		if !d.CanView {
			g.record(ctx, actor, sub, d.Reason, perm, false, nil)
			return fmt.Errorf("%w: cannot view %s %s", ErrForbidden, g.entity, sub.ID)
		}
	}

	g.record(ctx, actor, sub, ReasonPermissionGranted, perm, true, nil)
	return nil
}

func (g *Guard) record(ctx context.Context, actor Actor, sub Subject, reason Reason, perm string, granted bool, meta map[string]any) {
	if g.Metrics != nil {
		g.Metrics.AccessDecision(g.entity, granted, reason)
	}
	if g.recorder == nil {
		return
	}
	entry := Entry{
		ActorID:    actor.AuditID(),
		ActorRole:  actor.Role,
		EntityType: g.entity,
		EntityID:   sub.ID,
		Permission: perm,
		Granted:    granted,
		Reason:     reason,
		Meta:       meta,
	}
	if err := g.recorder.Record(ctx, entry); err != nil && g.logger != nil {
		g.logger.Error("access trail write failed",
			slog.String("entity", g.entity),
			slog.String("actor", entry.ActorID),
			slog.Any("error", err))
	}
}
