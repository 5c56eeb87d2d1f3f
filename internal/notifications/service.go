package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wanderstay/wanderstay/internal/access"
	"github.com/wanderstay/wanderstay/internal/shared"
)

// RepositoryPort describes persistence operations used by Service.
type RepositoryPort interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, onlyUnread bool, page, perPage int) ([]Notification, int, error)
	CreateBatch(ctx context.Context, items []Notification) error
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// Dispatcher hands the fan-out off to the background worker.
type Dispatcher interface {
	EnqueueDispatch(ctx context.Context, input SendInput) error
}

const unreadCountTTL = 5 * time.Minute

// Service manages per-user inboxes. Inboxes never cross actors, so access
// is enforced structurally here rather than through the visibility
// classifier: every operation resolves the inbox from the actor itself.
// The unread counter is cached in Redis with a short TTL and dropped on
// every write, so a stale value survives at most one TTL window even if an
// invalidation is lost.
type Service struct {
	repo       RepositoryPort
	dispatcher Dispatcher
	cache      *redis.Client
	logger     *slog.Logger
}

// NewService constructs notification service. The dispatcher may be nil,
// in which case Send delivers synchronously.
func NewService(repo RepositoryPort, dispatcher Dispatcher, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, dispatcher: dispatcher, cache: cache, logger: logger}
}

// ListOwn returns the actor's inbox.
func (s *Service) ListOwn(ctx context.Context, actor access.Actor, onlyUnread bool, page, perPage int) ([]Notification, shared.Pagination, error) {
	userID, err := ownInbox(actor)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	items, total, err := s.repo.ListByUser(ctx, userID, onlyUnread, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(page, perPage, total), nil
}

// UnreadCount returns the actor's unread total, served from Redis when the
// cached value is fresh.
func (s *Service) UnreadCount(ctx context.Context, actor access.Actor) (int, error) {
	userID, err := ownInbox(actor)
	if err != nil {
		return 0, err
	}
	key := shared.UnreadCountKey(userID.String())

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.Atoi(raw); err == nil {
				return count, nil
			}
		}
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, strconv.Itoa(count), unreadCountTTL).Err(); err != nil && s.logger != nil {
			s.logger.Warn("cache unread count", slog.Any("error", err))
		}
	}
	return count, nil
}

// MarkRead marks one entry opened. Entries in other inboxes read as absent.
func (s *Service) MarkRead(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	userID, err := ownInbox(actor)
	if err != nil {
		return err
	}
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return access.ErrNotFound
		}
		return err
	}
	if n.UserID != userID {
		return access.ErrNotFound
	}
	if !n.Unread() {
		return nil
	}
	if err := s.repo.MarkRead(ctx, id, time.Now().UTC()); err != nil {
		return err
	}
	s.dropUnreadCount(ctx, userID)
	return nil
}

// MarkAllRead marks the whole inbox opened.
func (s *Service) MarkAllRead(ctx context.Context, actor access.Actor) error {
	userID, err := ownInbox(actor)
	if err != nil {
		return err
	}
	if err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC()); err != nil {
		return err
	}
	s.dropUnreadCount(ctx, userID)
	return nil
}

// Send fans a message out to the listed recipients. With a dispatcher the
// delivery happens on the worker; without one it happens inline.
func (s *Service) Send(ctx context.Context, actor access.Actor, input SendInput) error {
	if err := access.RequirePermission(actor, shared.PermNotificationSend); err != nil {
		return err
	}
	if len(input.UserIDs) == 0 {
		return errors.New("notifications: at least one recipient required")
	}
	if !input.Kind.Known() {
		return fmt.Errorf("notifications: unsupported kind %q", input.Kind)
	}
	if strings.TrimSpace(input.Title) == "" {
		return errors.New("notifications: title required")
	}

	if s.dispatcher != nil {
		return s.dispatcher.EnqueueDispatch(ctx, input)
	}
	return s.Deliver(ctx, input)
}

// Deliver writes the inbox rows. Called by the worker's dispatch handler,
// or directly when no dispatcher is configured.
func (s *Service) Deliver(ctx context.Context, input SendInput) error {
	now := time.Now().UTC()
	items := make([]Notification, 0, len(input.UserIDs))
	for _, userID := range input.UserIDs {
		items = append(items, Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Kind:      input.Kind,
			Title:     strings.TrimSpace(input.Title),
			Body:      strings.TrimSpace(input.Body),
			CreatedAt: now,
		})
	}
	if err := s.repo.CreateBatch(ctx, items); err != nil {
		return err
	}
	for _, userID := range input.UserIDs {
		s.dropUnreadCount(ctx, userID)
	}
	return nil
}

func (s *Service) dropUnreadCount(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, shared.UnreadCountKey(userID.String())).Err(); err != nil && s.logger != nil {
		s.logger.Warn("drop unread count", slog.String("user", userID.String()), slog.Any("error", err))
	}
}

func ownInbox(actor access.Actor) (uuid.UUID, error) {
	if actor.IsPublic() {
		return uuid.Nil, fmt.Errorf("%w: inbox access", access.ErrPublicActorWrite)
	}
	if actor.Disabled() {
		return uuid.Nil, fmt.Errorf("%w: inbox access", access.ErrActorDisabled)
	}
	userID, err := uuid.Parse(actor.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("notifications: actor id: %w", err)
	}
	return userID, nil
}
