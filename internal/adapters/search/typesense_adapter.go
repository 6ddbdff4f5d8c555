package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	tsclient "github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/typesense"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

const collectionName = tsclient.ListingsCollection

// queryByFields are the document fields free text is matched against
var queryByFields = []string{
	"title", "description", "location", "address", "city", "state",
	"zip_code", "agent_name", "agent_phone", "tags",
}

// TypesenseAdapter implements listing full-text search using Typesense.
// Calls go through a circuit breaker so that a failing index is skipped
// quickly and callers can fall back to the database.
type TypesenseAdapter struct {
	client  *tsclient.Client
	breaker *gobreaker.CircuitBreaker
}

// Ensure TypesenseAdapter implements ListingSearchIndex
var _ repositories.ListingSearchIndex = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{
		client:  client,
		breaker: newBreaker("typesense-listings"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})
}

func (a *TypesenseAdapter) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := a.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, apperrors.NewStorageUnavailableError("search index circuit open", err)
	}
	if err != nil {
		return nil, apperrors.NewExternalError("search index request failed", err)
	}
	return result, nil
}

// BuildDocument converts a listing into its index document
func BuildDocument(listing *entities.Listing) map[string]interface{} {
	doc := map[string]interface{}{
		"id":             listing.ID,
		"title":          listing.Title,
		"description":    listing.Description,
		"location":       listing.Location,
		"address":        listing.Address,
		"city":           listing.City,
		"state":          listing.State,
		"zip_code":       listing.ZipCode,
		"agent_name":     listing.AgentName,
		"agent_phone":    listing.AgentPhone,
		"category":       string(listing.Category),
		"listing_type":   string(listing.ListingType),
		"price":          listing.Price,
		"area":           listing.Area,
		"average_rating": listing.AverageRating,
		"tags":           BuildListingTags(listing),
		"created_at":     listing.CreatedAt.Unix(),
	}
	if listing.Bedrooms != nil {
		doc["bedrooms"] = *listing.Bedrooms
	}
	if listing.Bathrooms != nil {
		doc["bathrooms"] = *listing.Bathrooms
	}
	return doc
}

// Index upserts a listing document
func (a *TypesenseAdapter) Index(ctx context.Context, listing *entities.Listing) error {
	document := BuildDocument(listing)

	_, err := a.execute(func() (interface{}, error) {
		return a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	})
	if err != nil {
		return fmt.Errorf("failed to index listing %s: %w", listing.ID, err)
	}

	return nil
}

// Delete removes a listing from the index. Deleting an absent document is
// not an error.
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.execute(func() (interface{}, error) {
		result, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
		if err != nil && strings.Contains(err.Error(), "404") {
			return nil, nil
		}
		return result, err
	})
	if err != nil {
		return fmt.Errorf("failed to delete listing %s from index: %w", id, err)
	}
	return nil
}

// BuildSearchParams converts a text query into Typesense search parameters
func BuildSearchParams(params repositories.TextSearchParams) *api.SearchCollectionParams {
	q := strings.TrimSpace(params.Query)
	if q == "" {
		q = "*"
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	perPage := params.PageSize
	if perPage < 1 {
		perPage = 10
	}

	return &api.SearchCollectionParams{
		Q:                    pointer.String(q),
		QueryBy:              pointer.String(strings.Join(queryByFields, ",")),
		Page:                 pointer.Int(page),
		PerPage:              pointer.Int(perPage),
		IncludeFields:        pointer.String("id"),
		PrioritizeExactMatch: pointer.True(),
	}
}

// Search returns the IDs of matching listings in relevance order
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.TextSearchParams) (*repositories.TextSearchResult, error) {
	searchParams := BuildSearchParams(params)

	raw, err := a.execute(func() (interface{}, error) {
		return a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}

	result, ok := raw.(*api.SearchResult)
	if !ok || result == nil {
		return &repositories.TextSearchResult{IDs: []string{}}, nil
	}

	out := &repositories.TextSearchResult{IDs: []string{}}
	if result.Found != nil {
		out.Total = *result.Found
	}
	if result.Hits == nil {
		return out, nil
	}

	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document
		if id, ok := doc["id"].(string); ok {
			out.IDs = append(out.IDs, id)
		}
	}

	return out, nil
}
