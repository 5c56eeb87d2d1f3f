package reviews

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

// Handler manages review endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers review routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/mine", h.listOwn)
	r.Get("/{id}", h.getByID)
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/moderate", h.moderate)
	r.Delete("/{id}", h.remove)
}

// MountAccommodationRoutes registers the nested per-listing routes.
func (h *Handler) MountAccommodationRoutes(r chi.Router) {
	r.Get("/{id}/reviews", h.listByAccommodation)
}

type reviewResponse struct {
	ID              string    `json:"id"`
	AccommodationID string    `json:"accommodation_id"`
	AuthorID        string    `json:"author_id"`
	Rating          int       `json:"rating"`
	Title           string    `json:"title,omitempty"`
	Body            string    `json:"body,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toResponse(r *Review) reviewResponse {
	return reviewResponse{
		ID:              r.ID.String(),
		AccommodationID: r.AccommodationID.String(),
		AuthorID:        r.AuthorID.String(),
		Rating:          r.Rating,
		Title:           r.Title,
		Body:            r.Body,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (h *Handler) listByAccommodation(w http.ResponseWriter, r *http.Request) {
	accommodationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	actor := shared.ActorFromContext(r.Context())
	items, paging, err := h.service.ListByAccommodation(r.Context(), actor, accommodationID, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]reviewResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	httpx.List(w, out, paging)
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
	out := make([]reviewResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	httpx.List(w, out, paging)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	actor := shared.ActorFromContext(r.Context())
	rv, err := h.service.GetByID(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rv))
}

type createReviewRequest struct {
	AccommodationID string `json:"accommodation_id" validate:"required,uuid4"`
	Rating          int    `json:"rating" validate:"required,min=1,max=5"`
	Title           string `json:"title" validate:"max=160"`
	Body            string `json:"body" validate:"max=8000"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
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
	rv, err := h.service.Create(r.Context(), actor, CreateInput{
		AccommodationID: accommodationID,
		Rating:          req.Rating,
		Title:           req.Title,
		Body:            req.Body,
		IdempotencyKey:  r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		h.logger.Error("create review", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(rv))
}

type updateReviewRequest struct {
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Title  *string `json:"title" validate:"omitempty,max=160"`
	Body   *string `json:"body" validate:"omitempty,max=8000"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	var req updateReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	actor := shared.ActorFromContext(r.Context())
	rv, err := h.service.Update(r.Context(), actor, id, UpdateInput{Rating: req.Rating, Title: req.Title, Body: req.Body})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rv))
}

type moderateReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=PUBLISHED REJECTED"`
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	var req moderateReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	actor := shared.ActorFromContext(r.Context())
	rv, err := h.service.Moderate(r.Context(), actor, id, Status(req.Status))
	if err != nil {
		h.logger.Error("moderate review", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rv))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
