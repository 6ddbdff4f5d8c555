package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/propertymarket/backend/internal/adapters/memory"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
)

// MockSearchIndex is a testify mock of the listing search index
type MockSearchIndex struct {
	mock.Mock
}

func (m *MockSearchIndex) Search(ctx context.Context, params repositories.TextSearchParams) (*repositories.TextSearchResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.TextSearchResult), args.Error(1)
}

func (m *MockSearchIndex) Index(ctx context.Context, listing *entities.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *MockSearchIndex) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// RecordingEventBus keeps every published event
type RecordingEventBus struct {
	mu        sync.Mutex
	published []*entities.ListingEvent
}

func (b *RecordingEventBus) Publish(_ context.Context, _ string, event *entities.ListingEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
	return nil
}

func (b *RecordingEventBus) Subscribe(context.Context, string, ...entities.ListingEventType) (<-chan *entities.ListingEvent, error) {
	return make(chan *entities.ListingEvent), nil
}

func (b *RecordingEventBus) Unsubscribe(context.Context, string) error { return nil }

func (b *RecordingEventBus) Close() error { return nil }

func (b *RecordingEventBus) Types() []entities.ListingEventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.ListingEventType, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventType)
	}
	return out
}

// brokenSubjects is a listing store whose aggregate writes always fail
type brokenSubjects struct {
	*memory.ListingStore
}

func (brokenSubjects) SetRatingAggregate(context.Context, string, entities.RatingAggregate) error {
	return fmt.Errorf("connection reset")
}

type fixture struct {
	listings *memory.ListingStore
	users    *memory.UserStore
	ratings  *memory.RatingStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		listings: memory.NewListingStore(),
		users:    memory.NewUserStore(),
		ratings:  memory.NewRatingStore(),
	}
	for _, u := range []*entities.User{
		{ID: "agent-1", Name: "Ada Agent", Email: "ada@example.com", Phone: "555-0100", Role: entities.RoleAgent, IsActive: true},
		{ID: "agent-2", Name: "Ben Broker", Email: "ben@example.com", Role: entities.RoleAgent, IsActive: true},
		{ID: "agent-off", Name: "Old Agent", Email: "old@example.com", Role: entities.RoleAgent},
		{ID: "user-1", Name: "Uma User", Email: "uma@example.com", Role: entities.RoleUser, IsActive: true},
		{ID: "user-2", Name: "Vic Visitor", Email: "vic@example.com", Role: entities.RoleUser, IsActive: true},
		{ID: "admin-1", Name: "Ann Admin", Email: "ann@example.com", Role: entities.RoleAdmin, IsActive: true},
	} {
		require.NoError(t, f.users.Create(context.Background(), u))
	}
	return f
}

func (f *fixture) subjects() map[entities.SubjectType]repositories.RatingSubjectRepository {
	return map[entities.SubjectType]repositories.RatingSubjectRepository{
		entities.SubjectListing: f.listings,
		entities.SubjectAgent:   f.users,
	}
}

var baseTime = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func (f *fixture) addListing(t *testing.T, l entities.Listing) *entities.Listing {
	t.Helper()
	if l.AgentID == "" {
		l.AgentID = "agent-1"
	}
	if l.ApprovalStatus == "" {
		l.ApprovalStatus = entities.ApprovalApproved
		l.IsActive = true
	}
	if l.Category == "" {
		l.Category = entities.CategoryHouse
	}
	if l.ListingType == "" {
		l.ListingType = entities.ListingTypeSale
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = baseTime
	}
	require.NoError(t, f.listings.Create(context.Background(), &l))
	return &l
}
