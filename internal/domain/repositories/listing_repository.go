package repositories

import (
	"context"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
)

// ListingRepository defines the interface for listing data operations
type ListingRepository interface {
	listingsearch.Store
	RatingSubjectRepository

	// Create creates a new listing
	Create(ctx context.Context, listing *entities.Listing) error

	// GetByID retrieves a listing by ID regardless of moderation state
	GetByID(ctx context.Context, id string) (*entities.Listing, error)

	// SetActive toggles the listing's active flag
	SetActive(ctx context.Context, id string, active bool) error

	// SetApproval records a moderation decision
	SetApproval(ctx context.Context, id string, status entities.ApprovalStatus, reason string) error

	// IncrementViews bumps the view counter by one
	IncrementViews(ctx context.Context, id string) error

	// Delete deletes a listing
	Delete(ctx context.Context, id string) error
}

// ListingSearchIndex is a full-text index over visible listings (e.g. Typesense)
type ListingSearchIndex interface {
	// Search returns matching listing IDs in relevance order and the total hit count
	Search(ctx context.Context, params TextSearchParams) (*TextSearchResult, error)

	// Index upserts a listing document
	Index(ctx context.Context, listing *entities.Listing) error

	// Delete removes a listing from the index
	Delete(ctx context.Context, id string) error
}

// TextSearchParams is a free-text listing query
type TextSearchParams struct {
	Query    string
	Page     int
	PageSize int
}

// TextSearchResult holds the ordered IDs of one page of hits
type TextSearchResult struct {
	IDs   []string
	Total int
}
