package search

import (
	"sort"
	"strings"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
)

const MaxIndexedTerms = 100

// BuildListingTags collects the normalized facet-like terms of a listing
// into one searchable bag.
func BuildListingTags(listing *entities.Listing) []string {
	if listing == nil {
		return nil
	}

	set := make(map[string]struct{})
	add(set,
		string(listing.Category),
		string(listing.ListingType),
		listing.City,
		listing.State,
		listing.ZipCode,
	)
	add(set, listing.Features...)

	return toSlice(set, MaxIndexedTerms)
}

func add(set map[string]struct{}, terms ...string) {
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
}

func toSlice(set map[string]struct{}, limit int) []string {
	result := make([]string, 0, len(set))
	for k := range set {
		result = append(result, k)
	}
	sort.Strings(result)
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
