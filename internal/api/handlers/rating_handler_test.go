package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/propertymarket/backend/internal/api/handlers"
	"github.com/zatekoja/propertymarket/backend/internal/application/services"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

func TestRatingHandler_SubmitRating(t *testing.T) {
	listing := entities.SubjectRef{Type: entities.SubjectListing, ID: "l-1"}

	t.Run("new rating is 201 and subject type defaults to listing", func(t *testing.T) {
		mockService := new(MockRatingService)
		handler := handlers.NewRatingHandler(mockService)

		mockService.On("Submit", mock.Anything, services.RatingInput{
			Subject:   listing,
			RaterID:   "user-1",
			RaterName: "Test user-1",
			Score:     4,
			Review:    "Nice",
		}).Return(&services.RatingResult{
			Rating:    &entities.Rating{ID: "r-1", Score: 4},
			Created:   true,
			Aggregate: &entities.RatingAggregate{AverageRating: 4, TotalRatings: 1},
		}, nil)

		req := as(httptest.NewRequest("POST", "/api/ratings",
			bytes.NewBufferString(`{"subjectId":"l-1","score":4,"review":"Nice"}`)), "user-1", entities.RoleUser)
		w := httptest.NewRecorder()
		handler.SubmitRating(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("update of an existing rating is 200", func(t *testing.T) {
		mockService := new(MockRatingService)
		handler := handlers.NewRatingHandler(mockService)

		mockService.On("Submit", mock.Anything, mock.Anything).
			Return(&services.RatingResult{Rating: &entities.Rating{ID: "r-1", Score: 5}}, nil)

		req := as(httptest.NewRequest("POST", "/api/ratings",
			bytes.NewBufferString(`{"subjectType":"agent","subjectId":"agent-1","score":5}`)), "user-1", entities.RoleUser)
		w := httptest.NewRecorder()
		handler.SubmitRating(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		mockService := new(MockRatingService)
		handler := handlers.NewRatingHandler(mockService)

		w := httptest.NewRecorder()
		handler.SubmitRating(w, httptest.NewRequest("POST", "/api/ratings", bytes.NewBufferString(`{"subjectId":"l-1","score":4}`)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("missing score and bad subject type are 400", func(t *testing.T) {
		mockService := new(MockRatingService)
		handler := handlers.NewRatingHandler(mockService)

		for _, body := range []string{
			`{"subjectId":"l-1"}`,
			`{"subjectType":"house","subjectId":"l-1","score":3}`,
			`{"score":3}`,
		} {
			req := as(httptest.NewRequest("POST", "/api/ratings", bytes.NewBufferString(body)), "user-1", entities.RoleUser)
			w := httptest.NewRecorder()
			handler.SubmitRating(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
		mockService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("score out of range and unknown subject map through", func(t *testing.T) {
		mockService := new(MockRatingService)
		handler := handlers.NewRatingHandler(mockService)

		mockService.On("Submit", mock.Anything, mock.MatchedBy(func(in services.RatingInput) bool { return in.Score == 9 })).
			Return(nil, apperrors.NewInvalidRatingScoreError(9, 1, 5))
		mockService.On("Submit", mock.Anything, mock.MatchedBy(func(in services.RatingInput) bool { return in.Score == 3 })).
			Return(nil, apperrors.NewSubjectNotFoundError("listing", "ghost"))

		req := as(httptest.NewRequest("POST", "/api/ratings", bytes.NewBufferString(`{"subjectId":"l-1","score":9}`)), "user-1", entities.RoleUser)
		w := httptest.NewRecorder()
		handler.SubmitRating(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_RATING_SCORE", decodeError(t, w)["code"])

		req = as(httptest.NewRequest("POST", "/api/ratings", bytes.NewBufferString(`{"subjectId":"ghost","score":3}`)), "user-1", entities.RoleUser)
		w = httptest.NewRecorder()
		handler.SubmitRating(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "SUBJECT_NOT_FOUND", decodeError(t, w)["code"])
	})

	t.Run("fractional score is an invalid rating score", func(t *testing.T) {
		mockService := new(MockRatingService)
		handler := handlers.NewRatingHandler(mockService)

		for _, body := range []string{
			`{"subjectId":"l-1","score":4.5}`,
			`{"subjectId":"l-1","score":0.1}`,
		} {
			req := as(httptest.NewRequest("POST", "/api/ratings", bytes.NewBufferString(body)), "user-1", entities.RoleUser)
			w := httptest.NewRecorder()
			handler.SubmitRating(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			errBody := decodeError(t, w)
			assert.Equal(t, "INVALID_RATING_SCORE", errBody["code"], body)
			assert.Equal(t, "score", errBody["field"], body)
		}
		mockService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("whole number written as a float is accepted", func(t *testing.T) {
		mockService := new(MockRatingService)
		handler := handlers.NewRatingHandler(mockService)

		mockService.On("Submit", mock.Anything, mock.MatchedBy(func(in services.RatingInput) bool { return in.Score == 4 })).
			Return(&services.RatingResult{Rating: &entities.Rating{ID: "r-1", Score: 4}, Created: true}, nil)

		req := as(httptest.NewRequest("POST", "/api/ratings", bytes.NewBufferString(`{"subjectId":"l-1","score":4.0}`)), "user-1", entities.RoleUser)
		w := httptest.NewRecorder()
		handler.SubmitRating(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		mockService.AssertExpectations(t)
	})
}

func TestRatingHandler_DeleteRating(t *testing.T) {
	mockService := new(MockRatingService)
	handler := handlers.NewRatingHandler(mockService)

	subject := entities.SubjectRef{Type: entities.SubjectListing, ID: "l-1"}
	mockService.On("Delete", mock.Anything, subject, "user-1").Return(&entities.RatingAggregate{}, nil)

	req := as(httptest.NewRequest("DELETE", "/api/ratings/listing/l-1", nil), "user-1", entities.RoleUser)
	req.SetPathValue("subjectType", "listing")
	req.SetPathValue("subjectId", "l-1")
	w := httptest.NewRecorder()
	handler.DeleteRating(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":true`)
	mockService.AssertExpectations(t)
}

func TestRatingHandler_ListRatings(t *testing.T) {
	mockService := new(MockRatingService)
	handler := handlers.NewRatingHandler(mockService)

	subject := entities.SubjectRef{Type: entities.SubjectAgent, ID: "agent-1"}
	mockService.On("List", mock.Anything, subject, map[string]string{"page": "2"}).
		Return(&entities.RatingPage{Items: []*entities.Rating{}, Total: 12, Page: 2, TotalPages: 2}, nil)

	req := httptest.NewRequest("GET", "/api/ratings/agent/agent-1?page=2", nil)
	req.SetPathValue("subjectType", "agent")
	req.SetPathValue("subjectId", "agent-1")
	w := httptest.NewRecorder()
	handler.ListRatings(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestRatingHandler_MyRating(t *testing.T) {
	mockService := new(MockRatingService)
	handler := handlers.NewRatingHandler(mockService)

	subject := entities.SubjectRef{Type: entities.SubjectListing, ID: "l-1"}
	mockService.On("Mine", mock.Anything, subject, "user-2").
		Return(nil, apperrors.NewNotFoundError("rating not found"))

	req := as(httptest.NewRequest("GET", "/api/ratings/listing/l-1/mine", nil), "user-2", entities.RoleUser)
	req.SetPathValue("subjectType", "listing")
	req.SetPathValue("subjectId", "l-1")
	w := httptest.NewRecorder()
	handler.MyRating(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}
