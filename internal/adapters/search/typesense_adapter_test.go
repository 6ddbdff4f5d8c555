package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
)

func TestBuildListingTags(t *testing.T) {
	listing := &entities.Listing{
		Category:    entities.CategoryHouse,
		ListingType: entities.ListingTypeSale,
		City:        " Austin ",
		State:       "TX",
		Features:    []string{"Garden", "garage", "garden", ""},
	}

	tags := BuildListingTags(listing)

	assert.Equal(t, []string{"austin", "garage", "garden", "house", "sale", "tx"}, tags)
}

func TestBuildListingTagsNil(t *testing.T) {
	assert.Nil(t, BuildListingTags(nil))
}

func TestBuildDocument(t *testing.T) {
	beds := 3
	created := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	doc := BuildDocument(&entities.Listing{
		ID:          "l-1",
		Title:       "Family House",
		Category:    entities.CategoryHouse,
		ListingType: entities.ListingTypeSale,
		Price:       250000,
		Bedrooms:    &beds,
		CreatedAt:   created,
	})

	assert.Equal(t, "l-1", doc["id"])
	assert.Equal(t, "house", doc["category"])
	assert.Equal(t, 250000.0, doc["price"])
	assert.Equal(t, 3, doc["bedrooms"])
	assert.NotContains(t, doc, "bathrooms")
	assert.Equal(t, created.Unix(), doc["created_at"])
}

func TestBuildSearchParams(t *testing.T) {
	params := BuildSearchParams(repositories.TextSearchParams{Query: "  garden flat ", Page: 2, PageSize: 20})

	require.NotNil(t, params.Q)
	assert.Equal(t, "garden flat", *params.Q)
	assert.Equal(t, 2, *params.Page)
	assert.Equal(t, 20, *params.PerPage)
	assert.Contains(t, *params.QueryBy, "title")
	assert.Contains(t, *params.QueryBy, "tags")

	blank := BuildSearchParams(repositories.TextSearchParams{})
	assert.Equal(t, "*", *blank.Q)
	assert.Equal(t, 1, *blank.Page)
	assert.Equal(t, 10, *blank.PerPage)
}
