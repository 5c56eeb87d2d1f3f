package shared

import (
	"context"

	"github.com/wanderstay/wanderstay/internal/access"
)

type sessionContextKey struct{}

type actorContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithActor stores the resolved actor in context.
func ContextWithActor(ctx context.Context, actor access.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the request actor. A request that never went
// through actor resolution yields the public actor, not a nil guard case.
func ActorFromContext(ctx context.Context) access.Actor {
	actor, ok := ctx.Value(actorContextKey{}).(access.Actor)
	if !ok {
		return access.PublicActor()
	}
	return actor
}
