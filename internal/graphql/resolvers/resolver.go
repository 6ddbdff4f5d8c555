package resolvers

import (
	"context"
	"strconv"

	"github.com/zatekoja/propertymarket/backend/internal/api/middleware"
	"github.com/zatekoja/propertymarket/backend/internal/application/loaders"
	"github.com/zatekoja/propertymarket/backend/internal/application/services"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// ListingService is the listing read behaviour the graph needs
type ListingService interface {
	Search(ctx context.Context, raw map[string]string) (*entities.ListingPage, error)
	TextSearch(ctx context.Context, raw map[string]string) (*entities.ListingPage, error)
	Get(ctx context.Context, actor *services.Actor, id string) (*entities.ListingWithAgent, error)
	ListByAgent(ctx context.Context, actor *services.Actor, agentID string, raw map[string]string) (*entities.ListingPage, error)
}

// RatingService is the rating read behaviour the graph needs
type RatingService interface {
	Mine(ctx context.Context, subject entities.SubjectRef, raterID string) (*entities.Rating, error)
	List(ctx context.Context, subject entities.SubjectRef, raw map[string]string) (*entities.RatingPage, error)
}

// Resolver answers the Query fields over the application services
type Resolver struct {
	listings ListingService
	ratings  RatingService
}

// NewResolver creates a new resolver with dependencies
func NewResolver(listings ListingService, ratings RatingService) *Resolver {
	return &Resolver{listings: listings, ratings: ratings}
}

// ListingFilter is the listings(filter:) input. Its fields are passed to the
// same normalizer as the REST query string, so validation is shared.
type ListingFilter struct {
	Category      *string
	ListingType   *string
	PriceMin      *float64
	PriceMax      *float64
	AreaMin       *float64
	AreaMax       *float64
	BedroomsMin   *int
	BathroomsMin  *int
	LocationQuery *string
	SortKey       *string
}

func (f *ListingFilter) params() map[string]string {
	raw := make(map[string]string)
	if f == nil {
		return raw
	}
	setString(raw, listingsearch.ParamCategory, f.Category)
	setString(raw, listingsearch.ParamListingType, f.ListingType)
	setFloat(raw, listingsearch.ParamPriceMin, f.PriceMin)
	setFloat(raw, listingsearch.ParamPriceMax, f.PriceMax)
	setFloat(raw, listingsearch.ParamAreaMin, f.AreaMin)
	setFloat(raw, listingsearch.ParamAreaMax, f.AreaMax)
	setInt(raw, listingsearch.ParamBedroomsMin, f.BedroomsMin)
	setInt(raw, listingsearch.ParamBathroomsMin, f.BathroomsMin)
	setString(raw, listingsearch.ParamLocationQuery, f.LocationQuery)
	setString(raw, listingsearch.ParamSortKey, f.SortKey)
	return raw
}

// Paging holds the optional page arguments shared by the list fields
type Paging struct {
	Page     *int
	PageSize *int
}

func (p Paging) into(raw map[string]string) map[string]string {
	setInt(raw, listingsearch.ParamPage, p.Page)
	setInt(raw, listingsearch.ParamPageSize, p.PageSize)
	return raw
}

func setString(raw map[string]string, key string, v *string) {
	if v != nil {
		raw[key] = *v
	}
}

func setFloat(raw map[string]string, key string, v *float64) {
	if v != nil {
		raw[key] = strconv.FormatFloat(*v, 'f', -1, 64)
	}
}

func setInt(raw map[string]string, key string, v *int) {
	if v != nil {
		raw[key] = strconv.Itoa(*v)
	}
}

func actorFrom(ctx context.Context) *services.Actor {
	claims := middleware.ClaimsFromContext(ctx)
	if claims == nil {
		return nil
	}
	return &services.Actor{ID: claims.UserID, Name: claims.Name, Role: claims.Role}
}

// Listings runs a filtered search
func (r *Resolver) Listings(ctx context.Context, filter *ListingFilter, paging Paging) (*entities.ListingPage, error) {
	return r.listings.Search(ctx, paging.into(filter.params()))
}

// SearchListings runs a free-text search
func (r *Resolver) SearchListings(ctx context.Context, q string, paging Paging) (*entities.ListingPage, error) {
	return r.listings.TextSearch(ctx, paging.into(map[string]string{"q": q}))
}

// Listing returns one listing, or null when it does not exist or the caller
// may not see it
func (r *Resolver) Listing(ctx context.Context, id string) (*entities.ListingWithAgent, error) {
	l, err := r.listings.Get(ctx, actorFrom(ctx), id)
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil, nil
	}
	return l, err
}

// AgentListings returns one page of an agent's listings
func (r *Resolver) AgentListings(ctx context.Context, agentID string, sortKey *string, paging Paging) (*entities.ListingPage, error) {
	raw := paging.into(make(map[string]string))
	setString(raw, listingsearch.ParamSortKey, sortKey)
	return r.listings.ListByAgent(ctx, actorFrom(ctx), agentID, raw)
}

// Ratings returns one page of a subject's ratings
func (r *Resolver) Ratings(ctx context.Context, subjectType, subjectID string, paging Paging) (*entities.RatingPage, error) {
	subject, err := services.ResolveSubject(subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	return r.ratings.List(ctx, subject, paging.into(make(map[string]string)))
}

// MyRating returns the caller's rating for a subject, or null if they have
// not rated it
func (r *Resolver) MyRating(ctx context.Context, subjectType, subjectID string) (*entities.Rating, error) {
	actor := actorFrom(ctx)
	if actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	subject, err := services.ResolveSubject(subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	rating, err := r.ratings.Mine(ctx, subject, actor.ID)
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil, nil
	}
	return rating, err
}

// ListingAgent resolves Listing.agent. Pages from the services already carry
// the agent; otherwise the request's agent loader batches the lookups.
func (r *Resolver) ListingAgent(ctx context.Context, l *entities.ListingWithAgent) (*entities.AgentSummary, error) {
	if l.Agent != nil || l.AgentID == "" {
		return l.Agent, nil
	}
	ldrs := loaders.For(ctx)
	if ldrs == nil {
		return nil, nil
	}
	user, err := ldrs.AgentLoader.Load(ctx, l.AgentID)()
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user.Summary(), nil
}
