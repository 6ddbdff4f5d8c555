// Package listingsearch turns raw listing search parameters into a typed
// filter, compiles that filter into a storage-agnostic predicate and fetches
// one page of matching listings from a store.
package listingsearch

import (
	"math"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
)

// FilterDescriptor is a validated listing filter. A nil field means the
// client did not constrain it, which is distinct from constraining it to zero.
type FilterDescriptor struct {
	Category      *entities.ListingCategory
	ListingType   *entities.ListingType
	PriceMin      *float64
	PriceMax      *float64
	AreaMin       *float64
	AreaMax       *float64
	BedroomsMin   *int
	BathroomsMin  *int
	LocationQuery *string
	SortKey       SortKey
}

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page     int
	PageSize int
}

// Offset is the number of matches to skip before this page. It saturates at
// math.MaxInt instead of wrapping.
func (p PageRequest) Offset() int {
	if p.Page < 2 || p.PageSize < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// SearchRequest is the normalized form of one search call.
type SearchRequest struct {
	Filter FilterDescriptor
	Page   PageRequest
}
