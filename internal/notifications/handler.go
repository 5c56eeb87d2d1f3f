package notifications

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wanderstay/wanderstay/internal/platform/httpx"
	"github.com/wanderstay/wanderstay/internal/shared"
)

// Handler manages notification endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listOwn)
	r.Get("/unread-count", h.unreadCount)
	r.Post("/{id}/read", h.markRead)
	r.Post("/read-all", h.markAllRead)
	r.Post("/send", h.send)
}

type notificationResponse struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func toResponse(n *Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID.String(),
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	onlyUnread := q.Get("unread") == "true"

	actor := shared.ActorFromContext(r.Context())
	items, paging, err := h.service.ListOwn(r.Context(), actor, onlyUnread, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]notificationResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	httpx.List(w, out, paging)
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	count, err := h.service.UnreadCount(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if err := h.service.MarkRead(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if err := h.service.MarkAllRead(r.Context(), actor); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type sendNotificationRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,uuid4"`
	Kind    string   `json:"kind" validate:"required,oneof=SYSTEM BOOKING REVIEW"`
	Title   string   `json:"title" validate:"required,max=200"`
	Body    string   `json:"body" validate:"max=4000"`
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	userIDs := make([]uuid.UUID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid user id %s", httpx.ErrValidation, raw))
			return
		}
		userIDs = append(userIDs, id)
	}

	actor := shared.ActorFromContext(r.Context())
	err := h.service.Send(r.Context(), actor, SendInput{
		UserIDs: userIDs,
		Kind:    Kind(req.Kind),
		Title:   req.Title,
		Body:    req.Body,
	})
	if err != nil {
		h.logger.Error("send notification", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
