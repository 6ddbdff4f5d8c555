package listingsearch_test

import (
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

func TestNormalize_Defaults(t *testing.T) {
	n := listingsearch.NewNormalizer(10, 100)

	req, err := n.Normalize(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, listingsearch.SortNewest, req.Filter.SortKey)
	assert.Equal(t, 1, req.Page.Page)
	assert.Equal(t, 10, req.Page.PageSize)
	assert.Nil(t, req.Filter.Category)
	assert.Nil(t, req.Filter.PriceMin)
	assert.Nil(t, req.Filter.LocationQuery)
}

func TestNormalize_AllParameters(t *testing.T) {
	n := listingsearch.NewNormalizer(10, 100)

	req, err := n.Normalize(map[string]string{
		"category":      "House",
		"listingType":   "sale",
		"priceMin":      "100000",
		"priceMax":      "500000",
		"areaMin":       "50",
		"areaMax":       "300.5",
		"bedroomsMin":   "2",
		"bathroomsMin":  "0",
		"locationQuery": "  Austin TX ",
		"sortKey":       "price_desc",
		"page":          "3",
		"pageSize":      "25",
	})
	require.NoError(t, err)

	f := req.Filter
	require.NotNil(t, f.Category)
	assert.Equal(t, entities.CategoryHouse, *f.Category)
	assert.Equal(t, entities.ListingTypeSale, *f.ListingType)
	assert.Equal(t, 100000.0, *f.PriceMin)
	assert.Equal(t, 500000.0, *f.PriceMax)
	assert.Equal(t, 50.0, *f.AreaMin)
	assert.Equal(t, 300.5, *f.AreaMax)
	assert.Equal(t, 2, *f.BedroomsMin)
	require.NotNil(t, f.BathroomsMin)
	assert.Equal(t, 0, *f.BathroomsMin)
	assert.Equal(t, "Austin TX", *f.LocationQuery)
	assert.Equal(t, listingsearch.SortPriceDesc, f.SortKey)
	assert.Equal(t, listingsearch.PageRequest{Page: 3, PageSize: 25}, req.Page)
}

func TestNormalize_LegacyAliases(t *testing.T) {
	n := listingsearch.NewNormalizer(10, 100)

	req, err := n.Normalize(map[string]string{
		"minPrice":  "1000",
		"maxPrice":  "2000",
		"minArea":   "10",
		"maxArea":   "20",
		"bedrooms":  "3",
		"bathrooms": "2",
		"location":  "lagos",
		"sortBy":    "oldest",
		"limit":     "5",
	})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, *req.Filter.PriceMin)
	assert.Equal(t, 2000.0, *req.Filter.PriceMax)
	assert.Equal(t, 10.0, *req.Filter.AreaMin)
	assert.Equal(t, 20.0, *req.Filter.AreaMax)
	assert.Equal(t, 3, *req.Filter.BedroomsMin)
	assert.Equal(t, 2, *req.Filter.BathroomsMin)
	assert.Equal(t, "lagos", *req.Filter.LocationQuery)
	assert.Equal(t, listingsearch.SortOldest, req.Filter.SortKey)
	assert.Equal(t, 5, req.Page.PageSize)
}

func TestNormalize_BlankValuesAreAbsent(t *testing.T) {
	n := listingsearch.NewNormalizer(10, 100)

	req, err := n.Normalize(map[string]string{
		"category": "",
		"priceMin": "   ",
		"location": "",
	})
	require.NoError(t, err)
	assert.Nil(t, req.Filter.Category)
	assert.Nil(t, req.Filter.PriceMin)
	assert.Nil(t, req.Filter.LocationQuery)
}

func TestNormalize_PageSizeIsClamped(t *testing.T) {
	n := listingsearch.NewNormalizer(10, 100)

	req, err := n.Normalize(map[string]string{"pageSize": "5000"})
	require.NoError(t, err)
	assert.Equal(t, 100, req.Page.PageSize)
}

func TestNormalize_PageWhoseOffsetOverflowsIsRejected(t *testing.T) {
	n := listingsearch.NewNormalizer(10, 100)

	_, err := n.Normalize(map[string]string{"page": "922337203685477582"})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeInvalidFilterValue, appErr.Type)
	assert.Equal(t, "page", appErr.Field)

	last := strconv.Itoa(math.MaxInt/100 + 1)
	req, err := n.Normalize(map[string]string{"page": last, "pageSize": "100"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, req.Page.Offset(), 0)
}

func TestPageRequest_OffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, listingsearch.PageRequest{Page: 1, PageSize: 10}.Offset())
	assert.Equal(t, 20, listingsearch.PageRequest{Page: 3, PageSize: 10}.Offset())
	assert.Equal(t, 0, listingsearch.PageRequest{Page: 0, PageSize: 10}.Offset())
	assert.Equal(t, math.MaxInt, listingsearch.PageRequest{Page: math.MaxInt, PageSize: 100}.Offset())
}

func TestNormalize_Rejections(t *testing.T) {
	n := listingsearch.NewNormalizer(10, 100)

	tests := []struct {
		name  string
		raw   map[string]string
		field string
	}{
		{"price range inverted", map[string]string{"priceMin": "500", "priceMax": "100"}, "priceMin"},
		{"area range inverted", map[string]string{"areaMin": "500", "areaMax": "100"}, "areaMin"},
		{"unknown category", map[string]string{"category": "castle"}, "category"},
		{"unknown listing type", map[string]string{"listingType": "lease"}, "listingType"},
		{"non numeric price", map[string]string{"priceMin": "cheap"}, "priceMin"},
		{"infinite price", map[string]string{"priceMax": "Inf"}, "priceMax"},
		{"NaN price", map[string]string{"priceMax": "NaN"}, "priceMax"},
		{"negative price", map[string]string{"priceMin": "-1"}, "priceMin"},
		{"zero area", map[string]string{"areaMin": "0"}, "areaMin"},
		{"fractional bedrooms", map[string]string{"bedroomsMin": "2.5"}, "bedroomsMin"},
		{"negative bathrooms", map[string]string{"bathrooms": "-1"}, "bathrooms"},
		{"unknown sort key", map[string]string{"sortKey": "rating"}, "sortKey"},
		{"zero page", map[string]string{"page": "0"}, "page"},
		{"zero page size", map[string]string{"pageSize": "0"}, "pageSize"},
		{"unknown parameter", map[string]string{"colour": "blue"}, "colour"},
		{"unknown blank parameter", map[string]string{"colour": ""}, "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.raw)
			require.Error(t, err)

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrorTypeInvalidFilterValue, appErr.Type)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestNormalize_AliasAndCanonicalTogetherIsRejected(t *testing.T) {
	n := listingsearch.NewNormalizer(10, 100)

	_, err := n.Normalize(map[string]string{"minPrice": "1", "priceMin": "2"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidFilterValue))
}

func TestFlattenQuery(t *testing.T) {
	raw, err := listingsearch.FlattenQuery(url.Values{
		"category": {"flat"},
		"page":     {"2", "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"category": "flat", "page": "2"}, raw)

	_, err = listingsearch.FlattenQuery(url.Values{"page": {"1", "2"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidFilterValue))
}
