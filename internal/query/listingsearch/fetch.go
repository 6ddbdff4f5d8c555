package listingsearch

import (
	"context"
	"fmt"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
)

// Query is what a Store needs to return one window of matches.
type Query struct {
	Predicate Predicate
	Ordering  Ordering
	Offset    int
	Limit     int
}

// Store executes compiled predicates. The Postgres and in-memory listing
// repositories implement it.
type Store interface {
	Find(ctx context.Context, q Query) ([]*entities.Listing, error)
	Count(ctx context.Context, p Predicate) (int, error)
}

// Page is one window of matching listings.
type Page struct {
	Items      []*entities.Listing
	Total      int
	Page       int
	TotalPages int
}

// TotalPages is ceil(total / pageSize), and 0 when nothing matched.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// FetchPage runs the windowed find and the total count for the same
// predicate. The two reads are not taken from one snapshot, so a concurrent
// write can make Total disagree with the items by a small amount.
func FetchPage(ctx context.Context, store Store, p Predicate, order Ordering, req PageRequest) (*Page, error) {
	items, err := store.Find(ctx, Query{
		Predicate: p,
		Ordering:  order,
		Offset:    req.Offset(),
		Limit:     req.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}

	total, err := store.Count(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	if items == nil {
		items = []*entities.Listing{}
	}

	return &Page{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		TotalPages: TotalPages(total, req.PageSize),
	}, nil
}
