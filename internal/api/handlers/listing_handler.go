package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/propertymarket/backend/internal/application/services"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// ListingService is the listing behaviour the HTTP layer needs
type ListingService interface {
	Search(ctx context.Context, raw map[string]string) (*entities.ListingPage, error)
	TextSearch(ctx context.Context, raw map[string]string) (*entities.ListingPage, error)
	Get(ctx context.Context, actor *services.Actor, id string) (*entities.ListingWithAgent, error)
	ListByAgent(ctx context.Context, actor *services.Actor, agentID string, raw map[string]string) (*entities.ListingPage, error)
	Create(ctx context.Context, actor *services.Actor, in services.CreateListingInput) (*entities.Listing, error)
	SetStatus(ctx context.Context, actor *services.Actor, id string, active bool) (*entities.Listing, error)
	Delete(ctx context.Context, actor *services.Actor, id string) error
	Moderate(ctx context.Context, actor *services.Actor, id string, status entities.ApprovalStatus, reason string) (*entities.Listing, error)
}

// ListingHandler handles listing-related HTTP requests
type ListingHandler struct {
	service ListingService
}

// NewListingHandler creates a new listing handler
func NewListingHandler(service ListingService) *ListingHandler {
	return &ListingHandler{service: service}
}

// queryParams flattens the query string, rejecting repeated parameters
func queryParams(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	raw, err := listingsearch.FlattenQuery(r.URL.Query())
	if err != nil {
		respondWithAppError(w, r, err)
		return nil, false
	}
	return raw, true
}

// SearchListings handles GET /api/listings
func (h *ListingHandler) SearchListings(w http.ResponseWriter, r *http.Request) {
	raw, ok := queryParams(w, r)
	if !ok {
		return
	}

	page, err := h.service.Search(r.Context(), raw)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// TextSearch handles GET /api/listings/search?q=
func (h *ListingHandler) TextSearch(w http.ResponseWriter, r *http.Request) {
	raw, ok := queryParams(w, r)
	if !ok {
		return
	}

	page, err := h.service.TextSearch(r.Context(), raw)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// GetListing handles GET /api/listings/{id}
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Get(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listing)
}

// ListAgentListings handles GET /api/agents/{agentId}/listings
func (h *ListingHandler) ListAgentListings(w http.ResponseWriter, r *http.Request) {
	raw, ok := queryParams(w, r)
	if !ok {
		return
	}

	page, err := h.service.ListByAgent(r.Context(), actorFrom(r), r.PathValue("agentId"), raw)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// CreateListing handles POST /api/listings
func (h *ListingHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var in services.CreateListingInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listing, err := h.service.Create(r.Context(), actorFrom(r), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, listing)
}

type statusRequest struct {
	IsActive *bool `json:"isActive"`
}

// SetListingStatus handles PATCH /api/listings/{id}/status
func (h *ListingHandler) SetListingStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.IsActive == nil {
		respondWithAppError(w, r, apperrors.NewValidationError("isActive is required"))
		return
	}

	listing, err := h.service.SetStatus(r.Context(), actorFrom(r), r.PathValue("id"), *req.IsActive)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listing)
}

// DeleteListing handles DELETE /api/listings/{id}
func (h *ListingHandler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), actorFrom(r), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type moderationRequest struct {
	Status entities.ApprovalStatus `json:"status"`
	Reason string                  `json:"reason"`
}

// ModerateListing handles PATCH /api/admin/listings/{id}/moderation
func (h *ListingHandler) ModerateListing(w http.ResponseWriter, r *http.Request) {
	var req moderationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	listing, err := h.service.Moderate(r.Context(), actorFrom(r), r.PathValue("id"), req.Status, req.Reason)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listing)
}
