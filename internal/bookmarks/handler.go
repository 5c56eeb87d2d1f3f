package bookmarks

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

// Handler manages bookmark endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers bookmark routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listOwn)
	r.Get("/user/{userID}", h.listForUser)
	r.Post("/", h.add)
	r.Delete("/{id}", h.remove)
}

type bookmarkResponse struct {
	ID              string    `json:"id"`
	AccommodationID string    `json:"accommodation_id"`
	Note            string    `json:"note,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toResponse(b *Bookmark) bookmarkResponse {
	return bookmarkResponse{
		ID:              b.ID.String(),
		AccommodationID: b.AccommodationID.String(),
		Note:            b.Note,
		CreatedAt:       b.CreatedAt,
	}
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	actor := shared.ActorFromContext(r.Context())
	items, paging, err := h.service.ListOwn(r.Context(), actor, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondList(w, items, paging)
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid user id", httpx.ErrValidation))
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	actor := shared.ActorFromContext(r.Context())
	items, paging, err := h.service.ListForUser(r.Context(), actor, userID, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.respondList(w, items, paging)
}

func (h *Handler) respondList(w http.ResponseWriter, items []Bookmark, paging shared.Pagination) {
	out := make([]bookmarkResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	httpx.List(w, out, paging)
}

type addBookmarkRequest struct {
	AccommodationID string `json:"accommodation_id" validate:"required,uuid4"`
	Note            string `json:"note" validate:"max=500"`
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var req addBookmarkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	accommodationID, err := uuid.Parse(req.AccommodationID)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid accommodation_id", httpx.ErrValidation))
		return
	}

	actor := shared.ActorFromContext(r.Context())
	b, err := h.service.Add(r.Context(), actor, accommodationID, req.Note)
	if err != nil {
		h.logger.Error("add bookmark", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(b))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if err := h.service.Remove(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
