package destinations

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wanderstay/wanderstay/internal/access"
	"github.com/wanderstay/wanderstay/internal/platform/httpx"
	"github.com/wanderstay/wanderstay/internal/shared"
)

// Handler manages destination endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers destination routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.search)
	r.Get("/{slug}", h.getBySlug)
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

type destinationResponse struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	Summary    string    `json:"summary,omitempty"`
	Country    string    `json:"country,omitempty"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toResponse(d *Destination) destinationResponse {
	return destinationResponse{
		ID:         d.ID.String(),
		Slug:       d.Slug,
		Name:       d.Name,
		Summary:    d.Summary,
		Country:    d.Country,
		Visibility: string(d.Visibility),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	filters := SearchFilters{
		Query:      q.Get("q"),
		Country:    q.Get("country"),
		Visibility: access.Visibility(q.Get("visibility")),
		Page:       page,
		PerPage:    perPage,
	}

	actor := shared.ActorFromContext(r.Context())
	items, paging, err := h.service.Search(r.Context(), actor, filters)
	if err != nil {
		h.logger.Error("search destinations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]destinationResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	httpx.List(w, out, paging)
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	d, err := h.service.GetBySlug(r.Context(), actor, chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(d))
}

type createDestinationRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=120"`
	Summary    string `json:"summary" validate:"max=2000"`
	Country    string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE DRAFT"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createDestinationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	actor := shared.ActorFromContext(r.Context())
	d, err := h.service.Create(r.Context(), actor, CreateInput{
		Name:       req.Name,
		Summary:    req.Summary,
		Country:    req.Country,
		Visibility: access.Visibility(req.Visibility),
	})
	if err != nil {
		h.logger.Error("create destination", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(d))
}

type updateDestinationRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=120"`
	Summary    *string `json:"summary" validate:"omitempty,max=2000"`
	Country    *string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Visibility *string `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE DRAFT"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	var req updateDestinationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	patch := UpdateInput{Name: req.Name, Summary: req.Summary, Country: req.Country}
	if req.Visibility != nil {
		vis := access.Visibility(*req.Visibility)
		patch.Visibility = &vis
	}

	actor := shared.ActorFromContext(r.Context())
	d, err := h.service.Update(r.Context(), actor, id, patch)
	if err != nil {
		h.logger.Error("update destination", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(d))
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
