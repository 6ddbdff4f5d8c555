package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/propertymarket/backend/internal/application/services"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

func intPtr(n int) *int { return &n }

func newListingService(f *fixture, index repositories.ListingSearchIndex, bus *RecordingEventBus) *services.ListingService {
	if bus == nil {
		return services.NewListingService(f.listings, f.users, f.ratings, index, nil, nil, nil, nil)
	}
	return services.NewListingService(f.listings, f.users, f.ratings, index, bus, nil, nil, nil)
}

func seedSearchListings(t *testing.T, f *fixture) {
	f.addListing(t, entities.Listing{ID: "house-austin", Title: "Family house", City: "Austin", Location: "Austin, TX", Price: 250000, Bedrooms: intPtr(3), CreatedAt: baseTime.Add(1 * time.Hour)})
	f.addListing(t, entities.Listing{ID: "house-near", Title: "Bungalow", City: "Austin", Location: "Austin, TX", Price: 349000, Bedrooms: intPtr(2), CreatedAt: baseTime.Add(2 * time.Hour)})
	f.addListing(t, entities.Listing{ID: "house-far", Title: "Mansion", City: "Austin", Location: "Austin, TX", Price: 999999, CreatedAt: baseTime.Add(3 * time.Hour)})
	f.addListing(t, entities.Listing{ID: "flat-dallas", Title: "City flat", Category: entities.CategoryFlat, ListingType: entities.ListingTypeRent, City: "Dallas", Location: "Dallas, TX", Price: 1800, AgentID: "agent-2", CreatedAt: baseTime.Add(4 * time.Hour)})
	f.addListing(t, entities.Listing{ID: "pending", Title: "Austin house", City: "Austin", Location: "Austin", Price: 250000, ApprovalStatus: entities.ApprovalPending, IsActive: true, CreatedAt: baseTime.Add(5 * time.Hour)})
	f.addListing(t, entities.Listing{ID: "inactive", Title: "Austin house", City: "Austin", Location: "Austin", Price: 250000, ApprovalStatus: entities.ApprovalApproved, CreatedAt: baseTime.Add(6 * time.Hour)})
}

func pageIDs(page *entities.ListingPage) []string {
	out := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		out = append(out, item.ID)
	}
	return out
}

func TestListingService_SearchAppliesGateFiltersAndAgents(t *testing.T) {
	f := newFixture(t)
	seedSearchListings(t, f)
	svc := newListingService(f, nil, nil)

	page, err := svc.Search(context.Background(), map[string]string{"category": "house", "sortKey": "price_asc"})
	require.NoError(t, err)

	assert.Equal(t, []string{"house-austin", "house-near", "house-far"}, pageIDs(page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	require.NotNil(t, page.Items[0].Agent)
	assert.Equal(t, "Ada Agent", page.Items[0].Agent.Name)
	assert.Equal(t, "ada@example.com", page.Items[0].Agent.Email)
}

func TestListingService_SearchFreeTextPriceWindow(t *testing.T) {
	f := newFixture(t)
	seedSearchListings(t, f)
	svc := newListingService(f, nil, nil)

	page, err := svc.Search(context.Background(), map[string]string{"locationQuery": "house Austin 250000"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"house-austin", "house-near"}, pageIDs(page))
}

func TestListingService_SearchRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	svc := newListingService(f, nil, nil)

	for _, raw := range []map[string]string{
		{"priceMin": "500", "priceMax": "100"},
		{"bedroomsMin": "two"},
		{"color": "blue"},
	} {
		_, err := svc.Search(context.Background(), raw)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidFilterValue), "%v", raw)
	}
}

func TestListingService_SearchPagination(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 25; i++ {
		f.addListing(t, entities.Listing{ID: fmt.Sprintf("l-%02d", i), Price: float64(i * 1000), CreatedAt: baseTime.Add(time.Duration(i) * time.Minute)})
	}
	svc := newListingService(f, nil, nil)

	page, err := svc.Search(context.Background(), map[string]string{"page": "2", "pageSize": "10", "sortKey": "oldest"})
	require.NoError(t, err)

	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 10)
	assert.Equal(t, "l-11", page.Items[0].ID)
	assert.Equal(t, "l-20", page.Items[9].ID)
}

func TestListingService_TextSearchUsesIndexAndRechecksVisibility(t *testing.T) {
	f := newFixture(t)
	seedSearchListings(t, f)
	index := &MockSearchIndex{}
	index.On("Search", mock.Anything, repositories.TextSearchParams{Query: "austin", Page: 1, PageSize: 10}).
		Return(&repositories.TextSearchResult{IDs: []string{"house-near", "pending", "gone", "house-austin"}, Total: 4}, nil)
	svc := newListingService(f, index, nil)

	page, err := svc.TextSearch(context.Background(), map[string]string{"q": "austin"})
	require.NoError(t, err)

	assert.Equal(t, []string{"house-near", "house-austin"}, pageIDs(page))
	assert.Equal(t, 4, page.Total)
	index.AssertExpectations(t)
}

func TestListingService_TextSearchFallsBackWhenIndexFails(t *testing.T) {
	f := newFixture(t)
	seedSearchListings(t, f)
	index := &MockSearchIndex{}
	index.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("circuit open"))
	svc := newListingService(f, index, nil)

	page, err := svc.TextSearch(context.Background(), map[string]string{"q": "dallas"})
	require.NoError(t, err)

	assert.Equal(t, []string{"flat-dallas"}, pageIDs(page))
	require.NotNil(t, page.Items[0].Agent)
	assert.Equal(t, "Ben Broker", page.Items[0].Agent.Name)
}

func TestListingService_TextSearchRejectsFilters(t *testing.T) {
	svc := newListingService(newFixture(t), nil, nil)

	_, err := svc.TextSearch(context.Background(), map[string]string{"q": "x", "priceMin": "1"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidFilterValue))
}

func TestListingService_GetHidesUnmoderatedListings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedSearchListings(t, f)
	svc := newListingService(f, nil, nil)

	_, err := svc.Get(ctx, nil, "pending")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	_, err = svc.Get(ctx, &services.Actor{ID: "user-1", Role: entities.RoleUser}, "pending")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

	owned, err := svc.Get(ctx, &services.Actor{ID: "agent-1", Role: entities.RoleAgent}, "pending")
	require.NoError(t, err)
	assert.Equal(t, "pending", owned.ID)

	_, err = svc.Get(ctx, &services.Actor{ID: "admin-1", Role: entities.RoleAdmin}, "pending")
	require.NoError(t, err)
}

func TestListingService_GetCountsViews(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedSearchListings(t, f)
	svc := newListingService(f, nil, nil)

	got, err := svc.Get(ctx, nil, "house-austin")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)
	require.NotNil(t, got.Agent)

	_, err = svc.Get(ctx, &services.Actor{ID: "agent-1", Role: entities.RoleAgent}, "house-austin")
	require.NoError(t, err)

	stored, err := f.listings.GetByID(ctx, "house-austin")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Views)
}

func TestListingService_ListByAgent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedSearchListings(t, f)
	svc := newListingService(f, nil, nil)

	public, err := svc.ListByAgent(ctx, nil, "agent-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, public.Total)

	own, err := svc.ListByAgent(ctx, &services.Actor{ID: "agent-1", Role: entities.RoleAgent}, "agent-1", map[string]string{"sortKey": "oldest"})
	require.NoError(t, err)
	assert.Equal(t, 5, own.Total)
	assert.Equal(t, "house-austin", own.Items[0].ID)

	_, err = svc.ListByAgent(ctx, nil, "agent-1", map[string]string{"priceMin": "1"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidFilterValue))
}

func validInput() services.CreateListingInput {
	return services.CreateListingInput{
		Title:       "Garden flat",
		Description: "Two bed flat with a garden",
		Price:       180000,
		Category:    "flat",
		ListingType: "sale",
		Area:        75,
		Bedrooms:    intPtr(2),
		Location:    "Austin, TX",
		City:        "Austin",
		State:       "TX",
	}
}

func TestListingService_CreateByAgentStartsPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bus := &RecordingEventBus{}
	svc := newListingService(f, nil, bus)

	l, err := svc.Create(ctx, &services.Actor{ID: "agent-2", Role: entities.RoleAgent}, validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, l.ID)
	assert.Equal(t, entities.ApprovalPending, l.ApprovalStatus)
	assert.True(t, l.IsActive)
	assert.Equal(t, "Ben Broker", l.AgentName)
	assert.Equal(t, "ben@example.com", l.AgentPhone)
	assert.Equal(t, []string{}, l.Features)
	assert.Equal(t, []entities.ListingEventType{entities.ListingEventCreated}, bus.Types())

	stored, err := f.listings.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "agent-2", stored.AgentID)
}

func TestListingService_CreateByAdminIsApproved(t *testing.T) {
	f := newFixture(t)
	svc := newListingService(f, nil, nil)

	l, err := svc.Create(context.Background(), &services.Actor{ID: "admin-1", Role: entities.RoleAdmin}, validInput())
	require.NoError(t, err)
	assert.Equal(t, entities.ApprovalApproved, l.ApprovalStatus)
}

func TestListingService_CreateRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newListingService(f, nil, nil)

	_, err := svc.Create(ctx, nil, validInput())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))

	_, err = svc.Create(ctx, &services.Actor{ID: "user-1", Role: entities.RoleUser}, validInput())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	_, err = svc.Create(ctx, &services.Actor{ID: "agent-off", Role: entities.RoleAgent}, validInput())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	bad := validInput()
	bad.Category = "castle"
	_, err = svc.Create(ctx, &services.Actor{ID: "agent-1", Role: entities.RoleAgent}, bad)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, "category", appErr.Field)
}

func TestListingService_SetStatusRequiresOwnerOrAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedSearchListings(t, f)
	bus := &RecordingEventBus{}
	svc := newListingService(f, nil, bus)

	_, err := svc.SetStatus(ctx, &services.Actor{ID: "agent-2", Role: entities.RoleAgent}, "house-austin", false)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	l, err := svc.SetStatus(ctx, &services.Actor{ID: "agent-1", Role: entities.RoleAgent}, "house-austin", false)
	require.NoError(t, err)
	assert.False(t, l.IsActive)
	assert.Equal(t, []entities.ListingEventType{entities.ListingEventUpdated}, bus.Types())

	page, err := svc.Search(ctx, map[string]string{"category": "house"})
	require.NoError(t, err)
	assert.NotContains(t, pageIDs(page), "house-austin")
}

func TestListingService_Moderate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedSearchListings(t, f)
	svc := newListingService(f, nil, nil)
	admin := &services.Actor{ID: "admin-1", Role: entities.RoleAdmin}

	_, err := svc.Moderate(ctx, &services.Actor{ID: "agent-1", Role: entities.RoleAgent}, "pending", entities.ApprovalApproved, "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))

	_, err = svc.Moderate(ctx, admin, "pending", entities.ApprovalRejected, "  ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	rejected, err := svc.Moderate(ctx, admin, "pending", entities.ApprovalRejected, "Blurry photos")
	require.NoError(t, err)
	assert.Equal(t, "Blurry photos", rejected.RejectionReason)

	approved, err := svc.Moderate(ctx, admin, "pending", entities.ApprovalApproved, "ignored")
	require.NoError(t, err)
	assert.Empty(t, approved.RejectionReason)

	stored, err := f.listings.GetByID(ctx, "pending")
	require.NoError(t, err)
	assert.True(t, stored.Visible())
}

func TestListingService_DeleteRemovesRatings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedSearchListings(t, f)
	bus := &RecordingEventBus{}
	svc := newListingService(f, nil, bus)
	ratings := services.NewRatingService(f.ratings, f.subjects(), nil, nil, nil)
	subject := entities.SubjectRef{Type: entities.SubjectListing, ID: "house-far"}

	_, err := ratings.Submit(ctx, services.RatingInput{Subject: subject, RaterID: "user-1", Score: 5})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, &services.Actor{ID: "admin-1", Role: entities.RoleAdmin}, "house-far"))

	_, err = f.listings.GetByID(ctx, "house-far")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	count, err := f.ratings.CountBySubject(ctx, subject)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, []entities.ListingEventType{entities.ListingEventDeleted}, bus.Types())
}
