package resolvers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
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

type MockRatingService struct {
	mock.Mock
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
