package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/propertymarket/backend/internal/application/loaders"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/providers"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/observability"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// ListingService handles listing search and the listing lifecycle
type ListingService struct {
	listings   repositories.ListingRepository
	users      repositories.UserRepository
	ratings    repositories.RatingRepository
	index      repositories.ListingSearchIndex
	eventBus   providers.EventBus
	metrics    *observability.Metrics
	normalizer *listingsearch.Normalizer
	compiler   *listingsearch.Compiler
}

// NewListingService creates a new listing service. index and eventBus may be
// nil. The index is only read here; IndexSyncService keeps it current from
// the events this service publishes.
func NewListingService(
	listings repositories.ListingRepository,
	users repositories.UserRepository,
	ratings repositories.RatingRepository,
	index repositories.ListingSearchIndex,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	normalizer *listingsearch.Normalizer,
	compiler *listingsearch.Compiler,
) *ListingService {
	if normalizer == nil {
		normalizer = listingsearch.NewNormalizer(listingsearch.DefaultPageSize, listingsearch.MaxPageSize)
	}
	if compiler == nil {
		compiler = listingsearch.NewCompiler(listingsearch.DefaultPriceTolerance)
	}
	return &ListingService{
		listings:   listings,
		users:      users,
		ratings:    ratings,
		index:      index,
		eventBus:   eventBus,
		metrics:    metrics,
		normalizer: normalizer,
		compiler:   compiler,
	}
}

// Search runs a filtered public search: normalize, compile, resolve the
// sort, fetch one page.
func (s *ListingService) Search(ctx context.Context, raw map[string]string) (*entities.ListingPage, error) {
	req, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}

	predicate := s.compiler.Compile(req.Filter)
	page, err := s.fetch(ctx, predicate, listingsearch.ResolveSort(req.Filter.SortKey), req.Page)
	if err != nil {
		return nil, err
	}
	return s.withAgents(ctx, page), nil
}

func (s *ListingService) fetch(ctx context.Context, p listingsearch.Predicate, order listingsearch.Ordering, req listingsearch.PageRequest) (*listingsearch.Page, error) {
	start := time.Now()
	page, err := listingsearch.FetchPage(ctx, s.listings, p, order, req)
	observability.RecordDBMetric(ctx, s.metrics, "listings.fetch_page", time.Since(start))
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.NewStorageUnavailableError("failed to fetch listings", err)
	}
	return page, nil
}

// TextSearch runs a free-text query against the search index and falls back
// to the compiled free-text predicate when the index is missing or failing.
// Only q, page and pageSize are accepted.
func (s *ListingService) TextSearch(ctx context.Context, raw map[string]string) (*entities.ListingPage, error) {
	q := strings.TrimSpace(raw["q"])
	paging := make(map[string]string, 2)
	for key, value := range raw {
		switch key {
		case "q":
		case listingsearch.ParamPage, listingsearch.ParamPageSize, "limit":
			paging[key] = value
		default:
			return nil, apperrors.NewInvalidFilterValueError(key, "unknown parameter")
		}
	}
	req, err := s.normalizer.Normalize(paging)
	if err != nil {
		return nil, err
	}

	if s.index != nil {
		page, err := s.indexSearch(ctx, q, req.Page)
		if err == nil {
			return page, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("q", q).Msg("Search index failed, falling back to database")
		observability.RecordSearchFallback(ctx, s.metrics)
	}

	predicate := append(listingsearch.ModerationGate(), s.compiler.CompileText(q)...)
	page, err := s.fetch(ctx, predicate, listingsearch.ResolveSort(listingsearch.SortNewest), req.Page)
	if err != nil {
		return nil, err
	}
	return s.withAgents(ctx, page), nil
}

func (s *ListingService) indexSearch(ctx context.Context, q string, req listingsearch.PageRequest) (*entities.ListingPage, error) {
	result, err := s.index.Search(ctx, repositories.TextSearchParams{
		Query:    q,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	// The index can lag behind moderation, so re-check every hit.
	items := make([]*entities.Listing, 0, len(result.IDs))
	for _, id := range result.IDs {
		l, err := s.listings.GetByID(ctx, id)
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if l.Visible() {
			items = append(items, l)
		}
	}

	return s.withAgents(ctx, &listingsearch.Page{
		Items:      items,
		Total:      result.Total,
		Page:       req.Page,
		TotalPages: listingsearch.TotalPages(result.Total, req.PageSize),
	}), nil
}

func (s *ListingService) withAgents(ctx context.Context, page *listingsearch.Page) *entities.ListingPage {
	agentIDs := make([]string, 0, len(page.Items))
	for _, l := range page.Items {
		if l.AgentID != "" {
			agentIDs = append(agentIDs, l.AgentID)
		}
	}
	agents := s.loaders(ctx).LoadAgents(ctx, agentIDs)

	items := make([]*entities.ListingWithAgent, 0, len(page.Items))
	for _, l := range page.Items {
		items = append(items, &entities.ListingWithAgent{Listing: l, Agent: agents[l.AgentID]})
	}

	return &entities.ListingPage{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: page.TotalPages,
	}
}

func (s *ListingService) loaders(ctx context.Context) *loaders.Loaders {
	if l := loaders.For(ctx); l != nil {
		return l
	}
	return loaders.NewLoaders(s.users)
}

// Get returns one listing with its agent. Listings that are not public are
// only visible to their agent and to admins. A successful public read counts
// as a view.
func (s *ListingService) Get(ctx context.Context, actor *Actor, id string) (*entities.ListingWithAgent, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.Visible() && !actor.canManage(l) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("listing with id %s not found", id))
	}

	if !actor.Owns(l) {
		if err := s.listings.IncrementViews(ctx, id); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("listing_id", id).Msg("Failed to count listing view")
		} else {
			l.Views++
		}
	}

	agents := s.loaders(ctx).LoadAgents(ctx, []string{l.AgentID})
	return &entities.ListingWithAgent{Listing: l, Agent: agents[l.AgentID]}, nil
}

// ListByAgent pages through an agent's listings. The agent and admins see
// every listing; everyone else only sees public ones. Accepts page, pageSize
// and sortKey.
func (s *ListingService) ListByAgent(ctx context.Context, actor *Actor, agentID string, raw map[string]string) (*entities.ListingPage, error) {
	allowed := make(map[string]string, len(raw))
	for key, value := range raw {
		switch key {
		case listingsearch.ParamPage, listingsearch.ParamPageSize, listingsearch.ParamSortKey, "limit", "sortBy":
			allowed[key] = value
		default:
			return nil, apperrors.NewInvalidFilterValueError(key, "unknown parameter")
		}
	}
	req, err := s.normalizer.Normalize(allowed)
	if err != nil {
		return nil, err
	}

	var predicate listingsearch.And
	if !actor.IsAdmin() && (actor == nil || actor.ID != agentID) {
		predicate = listingsearch.ModerationGate()
	}
	predicate = append(predicate, listingsearch.Eq{Field: listingsearch.FieldAgentID, Value: agentID})

	page, err := s.fetch(ctx, predicate, listingsearch.ResolveSort(req.Filter.SortKey), req.Page)
	if err != nil {
		return nil, err
	}
	return s.withAgents(ctx, page), nil
}

// CreateListingInput holds the client-supplied fields of a new listing
type CreateListingInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	ListingType string   `json:"listingType"`
	Area        float64  `json:"area"`
	Bedrooms    *int     `json:"bedrooms"`
	Bathrooms   *int     `json:"bathrooms"`
	Location    string   `json:"location"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	ZipCode     string   `json:"zipCode"`
	Images      []string `json:"images"`
	Features    []string `json:"features"`
}

func fieldError(field, message string) error {
	return &apperrors.AppError{Type: apperrors.ErrorTypeValidation, Message: message, Field: field}
}

// Validate checks the input before anything is written
func (in *CreateListingInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fieldError("title", "title is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		return fieldError("location", "location is required")
	}
	if in.Price < 0 {
		return fieldError("price", "price must not be negative")
	}
	if in.Area <= 0 {
		return fieldError("area", "area must be greater than 0")
	}
	if !entities.ListingCategory(in.Category).Valid() {
		return fieldError("category", fmt.Sprintf("unknown category %q", in.Category))
	}
	if !entities.ListingType(in.ListingType).Valid() {
		return fieldError("listingType", fmt.Sprintf("unknown listing type %q", in.ListingType))
	}
	if in.Bedrooms != nil && *in.Bedrooms < 0 {
		return fieldError("bedrooms", "bedrooms must not be negative")
	}
	if in.Bathrooms != nil && *in.Bathrooms < 0 {
		return fieldError("bathrooms", "bathrooms must not be negative")
	}
	return nil
}

// Create creates a listing owned by the actor. Only active agents and admins
// may create listings; an admin's listing skips moderation.
func (s *ListingService) Create(ctx context.Context, actor *Actor, in CreateListingInput) (*entities.Listing, error) {
	if actor == nil || actor.ID == "" {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	owner, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewUnauthorizedError("unknown user")
		}
		return nil, err
	}
	if !owner.IsActive || (owner.Role != entities.RoleAgent && owner.Role != entities.RoleAdmin) {
		return nil, apperrors.NewForbiddenError("only active agents can create listings")
	}

	phone := owner.Phone
	if phone == "" {
		phone = owner.Email
	}
	status := entities.ApprovalPending
	if owner.Role == entities.RoleAdmin {
		status = entities.ApprovalApproved
	}

	now := time.Now().UTC()
	listing := &entities.Listing{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Price:          in.Price,
		Category:       entities.ListingCategory(in.Category),
		ListingType:    entities.ListingType(in.ListingType),
		Area:           in.Area,
		Bedrooms:       in.Bedrooms,
		Bathrooms:      in.Bathrooms,
		Location:       strings.TrimSpace(in.Location),
		Address:        strings.TrimSpace(in.Address),
		City:           strings.TrimSpace(in.City),
		State:          strings.TrimSpace(in.State),
		ZipCode:        strings.TrimSpace(in.ZipCode),
		Images:         nonNil(in.Images),
		Features:       nonNil(in.Features),
		AgentID:        owner.ID,
		AgentName:      owner.Name,
		AgentPhone:     phone,
		IsActive:       true,
		ApprovalStatus: status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}

	s.publish(ctx, listing.ID, entities.ListingEventCreated, map[string]interface{}{
		"approvalStatus": string(listing.ApprovalStatus),
	})

	return listing, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *ListingService) managed(ctx context.Context, actor *Actor, id string) (*entities.Listing, error) {
	if actor == nil || actor.ID == "" {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canManage(l) {
		return nil, apperrors.NewForbiddenError("only the listing's agent or an admin can change it")
	}
	return l, nil
}

// SetStatus activates or deactivates a listing
func (s *ListingService) SetStatus(ctx context.Context, actor *Actor, id string, active bool) (*entities.Listing, error) {
	l, err := s.managed(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.listings.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	l.IsActive = active
	l.UpdatedAt = time.Now().UTC()

	s.publish(ctx, id, entities.ListingEventUpdated, map[string]interface{}{"isActive": active})
	return l, nil
}

// Delete removes a listing together with its ratings
func (s *ListingService) Delete(ctx context.Context, actor *Actor, id string) error {
	if _, err := s.managed(ctx, actor, id); err != nil {
		return err
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		return err
	}

	subject := entities.SubjectRef{Type: entities.SubjectListing, ID: id}
	if err := s.ratings.DeleteBySubject(ctx, subject); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("listing_id", id).Msg("Failed to delete ratings of deleted listing")
	}

	s.publish(ctx, id, entities.ListingEventDeleted, nil)
	return nil
}

// Moderate records an admin's approval or rejection. Rejection needs a
// reason; approval clears any earlier one.
func (s *ListingService) Moderate(ctx context.Context, actor *Actor, id string, status entities.ApprovalStatus, reason string) (*entities.Listing, error) {
	if actor == nil || actor.ID == "" {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can moderate listings")
	}

	reason = strings.TrimSpace(reason)
	switch status {
	case entities.ApprovalApproved:
		reason = ""
	case entities.ApprovalRejected:
		if reason == "" {
			return nil, fieldError("reason", "a rejection reason is required")
		}
	default:
		return nil, fieldError("status", fmt.Sprintf("status must be %q or %q", entities.ApprovalApproved, entities.ApprovalRejected))
	}

	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.listings.SetApproval(ctx, id, status, reason); err != nil {
		return nil, err
	}
	l.ApprovalStatus = status
	l.RejectionReason = reason
	l.UpdatedAt = time.Now().UTC()

	s.publish(ctx, id, entities.ListingEventModerated, map[string]interface{}{"approvalStatus": string(status)})
	return l, nil
}

func (s *ListingService) publish(ctx context.Context, listingID string, eventType entities.ListingEventType, changed map[string]interface{}) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewListingEvent(listingID, eventType, changed)
	if err := s.eventBus.Publish(ctx, providers.EventChannelListingUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("listing_id", listingID).Msg("Failed to publish listing event")
	}
}
