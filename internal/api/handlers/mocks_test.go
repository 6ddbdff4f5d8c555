package handlers_test

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"
	"github.com/zatekoja/propertymarket/backend/internal/api/middleware"
	"github.com/zatekoja/propertymarket/backend/internal/application/services"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
)

type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) Search(ctx context.Context, raw map[string]string) (*entities.ListingPage, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ListingPage), args.Error(1)
}

func (m *MockListingService) TextSearch(ctx context.Context, raw map[string]string) (*entities.ListingPage, error) {
	args := m.Called(ctx, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ListingPage), args.Error(1)
}

func (m *MockListingService) Get(ctx context.Context, actor *services.Actor, id string) (*entities.ListingWithAgent, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ListingWithAgent), args.Error(1)
}

func (m *MockListingService) ListByAgent(ctx context.Context, actor *services.Actor, agentID string, raw map[string]string) (*entities.ListingPage, error) {
	args := m.Called(ctx, actor, agentID, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ListingPage), args.Error(1)
}

func (m *MockListingService) Create(ctx context.Context, actor *services.Actor, in services.CreateListingInput) (*entities.Listing, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Listing), args.Error(1)
}

func (m *MockListingService) SetStatus(ctx context.Context, actor *services.Actor, id string, active bool) (*entities.Listing, error) {
	args := m.Called(ctx, actor, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Listing), args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, actor *services.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockListingService) Moderate(ctx context.Context, actor *services.Actor, id string, status entities.ApprovalStatus, reason string) (*entities.Listing, error) {
	args := m.Called(ctx, actor, id, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Listing), args.Error(1)
}

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) Submit(ctx context.Context, in services.RatingInput) (*services.RatingResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RatingResult), args.Error(1)
}

func (m *MockRatingService) Delete(ctx context.Context, subject entities.SubjectRef, raterID string) (*entities.RatingAggregate, error) {
	args := m.Called(ctx, subject, raterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RatingAggregate), args.Error(1)
}

func (m *MockRatingService) Mine(ctx context.Context, subject entities.SubjectRef, raterID string) (*entities.Rating, error) {
	args := m.Called(ctx, subject, raterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Rating), args.Error(1)
}

func (m *MockRatingService) List(ctx context.Context, subject entities.SubjectRef, raw map[string]string) (*entities.RatingPage, error) {
	args := m.Called(ctx, subject, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RatingPage), args.Error(1)
}

// as attaches verified claims to the request the way Authenticate would
func as(req *http.Request, userID string, role entities.UserRole) *http.Request {
	claims := &middleware.Claims{UserID: userID, Name: "Test " + userID, Role: role}
	return req.WithContext(middleware.WithClaims(req.Context(), claims))
}
