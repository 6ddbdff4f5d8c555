package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"

	"github.com/zatekoja/propertymarket/backend/internal/application/services"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// RatingService is the rating behaviour the HTTP layer needs
type RatingService interface {
	Submit(ctx context.Context, in services.RatingInput) (*services.RatingResult, error)
	Delete(ctx context.Context, subject entities.SubjectRef, raterID string) (*entities.RatingAggregate, error)
	Mine(ctx context.Context, subject entities.SubjectRef, raterID string) (*entities.Rating, error)
	List(ctx context.Context, subject entities.SubjectRef, raw map[string]string) (*entities.RatingPage, error)
}

// RatingHandler handles rating-related HTTP requests
type RatingHandler struct {
	service RatingService
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(service RatingService) *RatingHandler {
	return &RatingHandler{service: service}
}

type submitRatingRequest struct {
	SubjectType string       `json:"subjectType"`
	SubjectID   string       `json:"subjectId"`
	Score       *json.Number `json:"score"`
	Review      string       `json:"review"`
}

// ratingScore accepts any JSON number and rejects fractional ones as an
// invalid score rather than a malformed body.
func ratingScore(n json.Number) (int, error) {
	if v, err := n.Int64(); err == nil && v >= math.MinInt32 && v <= math.MaxInt32 {
		return int(v), nil
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
		return int(f), nil
	}
	return 0, apperrors.NewNonIntegerRatingScoreError(n.String(), entities.MinRatingScore, entities.MaxRatingScore)
}

// SubmitRating handles POST /api/ratings. Responds 201 for a new rating and
// 200 when the caller's existing rating was updated.
func (h *RatingHandler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor == nil {
		respondWithAppError(w, r, apperrors.NewUnauthorizedError("authentication required"))
		return
	}

	var req submitRatingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if req.Score == nil {
		respondWithAppError(w, r, apperrors.NewValidationError("score is required"))
		return
	}

	score, err := ratingScore(*req.Score)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	subject, err := services.ResolveSubject(req.SubjectType, req.SubjectID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	result, err := h.service.Submit(r.Context(), services.RatingInput{
		Subject:   subject,
		RaterID:   actor.ID,
		RaterName: actor.Name,
		Score:     score,
		Review:    req.Review,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, result)
}

func pathSubject(w http.ResponseWriter, r *http.Request) (entities.SubjectRef, bool) {
	subject, err := services.ResolveSubject(r.PathValue("subjectType"), r.PathValue("subjectId"))
	if err != nil {
		respondWithAppError(w, r, err)
		return entities.SubjectRef{}, false
	}
	return subject, true
}

// DeleteRating handles DELETE /api/ratings/{subjectType}/{subjectId}
func (h *RatingHandler) DeleteRating(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor == nil {
		respondWithAppError(w, r, apperrors.NewUnauthorizedError("authentication required"))
		return
	}
	subject, ok := pathSubject(w, r)
	if !ok {
		return
	}

	aggregate, err := h.service.Delete(r.Context(), subject, actor.ID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":   true,
		"aggregate": aggregate,
	})
}

// ListRatings handles GET /api/ratings/{subjectType}/{subjectId}
func (h *RatingHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	subject, ok := pathSubject(w, r)
	if !ok {
		return
	}
	raw, ok := queryParams(w, r)
	if !ok {
		return
	}

	page, err := h.service.List(r.Context(), subject, raw)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

// MyRating handles GET /api/ratings/{subjectType}/{subjectId}/mine
func (h *RatingHandler) MyRating(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor == nil {
		respondWithAppError(w, r, apperrors.NewUnauthorizedError("authentication required"))
		return
	}
	subject, ok := pathSubject(w, r)
	if !ok {
		return
	}

	rating, err := h.service.Mine(r.Context(), subject, actor.ID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rating)
}
