package accommodations

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

// Handler manages accommodation endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers accommodation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.search)
	r.Get("/mine", h.listOwn)
	r.Get("/{slug}", h.getBySlug)
	r.Post("/", h.create)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Delete("/{id}/hard", h.hardRemove)
	r.Put("/{id}/tags", h.setTags)
	r.Get("/{id}/tags", h.listTags)
}

type accommodationResponse struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Summary       string    `json:"summary,omitempty"`
	Type          string    `json:"type"`
	DestinationID string    `json:"destination_id"`
	OwnerID       string    `json:"owner_id"`
	Visibility    string    `json:"visibility"`
	PricePerNight float64   `json:"price_per_night"`
	Currency      string    `json:"currency,omitempty"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"review_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toResponse(a *Accommodation) accommodationResponse {
	return accommodationResponse{
		ID:            a.ID.String(),
		Slug:          a.Slug,
		Name:          a.Name,
		Summary:       a.Summary,
		Type:          string(a.Type),
		DestinationID: a.DestinationID.String(),
		OwnerID:       a.OwnerID.String(),
		Visibility:    string(a.Visibility),
		PricePerNight: a.PricePerNight,
		Currency:      a.Currency,
		Rating:        a.Rating,
		ReviewCount:   a.ReviewCount,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	minPrice, _ := strconv.ParseFloat(q.Get("min_price"), 64)
	maxPrice, _ := strconv.ParseFloat(q.Get("max_price"), 64)
	filters := SearchFilters{
		Query:      q.Get("q"),
		Type:       Type(q.Get("type")),
		Visibility: access.Visibility(q.Get("visibility")),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Page:       page,
		PerPage:    perPage,
	}
	if raw := q.Get("destination_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid destination_id", httpx.ErrValidation))
			return
		}
		filters.DestinationID = id
	}

	actor := shared.ActorFromContext(r.Context())
	items, paging, err := h.service.Search(r.Context(), actor, filters)
	if err != nil {
		h.logger.Error("search accommodations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]accommodationResponse, 0, len(items))
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
	out := make([]accommodationResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	httpx.List(w, out, paging)
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	a, err := h.service.GetBySlug(r.Context(), actor, chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

type createAccommodationRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=160"`
	Summary       string  `json:"summary" validate:"max=4000"`
	Type          string  `json:"type" validate:"required,oneof=HOTEL CABIN HOSTEL APARTMENT CAMPING"`
	DestinationID string  `json:"destination_id" validate:"required,uuid4"`
	Visibility    string  `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE DRAFT"`
	PricePerNight float64 `json:"price_per_night" validate:"gte=0"`
	Currency      string  `json:"currency" validate:"omitempty,iso4217"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAccommodationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	destinationID, err := uuid.Parse(req.DestinationID)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid destination_id", httpx.ErrValidation))
		return
	}

	actor := shared.ActorFromContext(r.Context())
	a, err := h.service.Create(r.Context(), actor, CreateInput{
		Name:          req.Name,
		Summary:       req.Summary,
		Type:          Type(req.Type),
		DestinationID: destinationID,
		Visibility:    access.Visibility(req.Visibility),
		PricePerNight: req.PricePerNight,
		Currency:      req.Currency,
	})
	if err != nil {
		h.logger.Error("create accommodation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(a))
}

type updateAccommodationRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=2,max=160"`
	Summary       *string  `json:"summary" validate:"omitempty,max=4000"`
	Type          *string  `json:"type" validate:"omitempty,oneof=HOTEL CABIN HOSTEL APARTMENT CAMPING"`
	DestinationID *string  `json:"destination_id" validate:"omitempty,uuid4"`
	Visibility    *string  `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE DRAFT"`
	PricePerNight *float64 `json:"price_per_night" validate:"omitempty,gte=0"`
	Currency      *string  `json:"currency" validate:"omitempty,iso4217"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	var req updateAccommodationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	patch := UpdateInput{Name: req.Name, Summary: req.Summary, PricePerNight: req.PricePerNight, Currency: req.Currency}
	if req.Type != nil {
		typ := Type(*req.Type)
		patch.Type = &typ
	}
	if req.Visibility != nil {
		vis := access.Visibility(*req.Visibility)
		patch.Visibility = &vis
	}
	if req.DestinationID != nil {
		destinationID, err := uuid.Parse(*req.DestinationID)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid destination_id", httpx.ErrValidation))
			return
		}
		patch.DestinationID = &destinationID
	}

	actor := shared.ActorFromContext(r.Context())
	a, err := h.service.Update(r.Context(), actor, id, patch)
	if err != nil {
		h.logger.Error("update accommodation", slog.String("id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, false)
}

func (h *Handler) hardRemove(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, true)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, hard bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	actor := shared.ActorFromContext(r.Context())
	if hard {
		err = h.service.HardDelete(r.Context(), actor, id)
	} else {
		err = h.service.Delete(r.Context(), actor, id)
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type setTagsRequest struct {
	TagIDs []string `json:"tag_ids" validate:"required,dive,uuid4"`
}

func (h *Handler) setTags(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	var req setTagsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}
	tagIDs := make([]uuid.UUID, 0, len(req.TagIDs))
	for _, raw := range req.TagIDs {
		tagID, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid tag id %s", httpx.ErrValidation, raw))
			return
		}
		tagIDs = append(tagIDs, tagID)
	}

	actor := shared.ActorFromContext(r.Context())
	if err := h.service.SetTags(r.Context(), actor, id, tagIDs); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return
	}
	actor := shared.ActorFromContext(r.Context())
	tagIDs, err := h.service.Tags(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]string, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		out = append(out, tagID.String())
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tag_ids": out})
}
