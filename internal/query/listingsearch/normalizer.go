package listingsearch

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// Canonical parameter names.
const (
	ParamCategory      = "category"
	ParamListingType   = "listingType"
	ParamPriceMin      = "priceMin"
	ParamPriceMax      = "priceMax"
	ParamAreaMin       = "areaMin"
	ParamAreaMax       = "areaMax"
	ParamBedroomsMin   = "bedroomsMin"
	ParamBathroomsMin  = "bathroomsMin"
	ParamLocationQuery = "locationQuery"
	ParamSortKey       = "sortKey"
	ParamPage          = "page"
	ParamPageSize      = "pageSize"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// legacyAliases maps the parameter names older clients send onto the
// canonical ones.
var legacyAliases = map[string]string{
	"minPrice":  ParamPriceMin,
	"maxPrice":  ParamPriceMax,
	"minArea":   ParamAreaMin,
	"maxArea":   ParamAreaMax,
	"bedrooms":  ParamBedroomsMin,
	"bathrooms": ParamBathroomsMin,
	"location":  ParamLocationQuery,
	"sortBy":    ParamSortKey,
	"limit":     ParamPageSize,
}

// Normalizer validates raw search parameters.
type Normalizer struct {
	defaultPageSize int
	maxPageSize     int
}

// NewNormalizer creates a normalizer with the given page size bounds. Non
// positive values fall back to DefaultPageSize and MaxPageSize.
func NewNormalizer(defaultPageSize, maxPageSize int) *Normalizer {
	if defaultPageSize < 1 {
		defaultPageSize = DefaultPageSize
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = MaxPageSize
	}
	return &Normalizer{defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// Normalize parses raw parameters into a SearchRequest. It fails with an
// INVALID_FILTER_VALUE error naming the first offending parameter; keys are
// checked in sorted order so the reported parameter is stable.
func (n *Normalizer) Normalize(raw map[string]string) (SearchRequest, error) {
	req := SearchRequest{
		Filter: FilterDescriptor{SortKey: SortNewest},
		Page:   PageRequest{Page: 1, PageSize: n.defaultPageSize},
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]string, len(keys))
	for _, key := range keys {
		canonical := key
		if alias, ok := legacyAliases[key]; ok {
			canonical = alias
		}
		if prev, dup := seen[canonical]; dup {
			return SearchRequest{}, apperrors.NewInvalidFilterValueError(key, fmt.Sprintf("duplicates parameter %q", prev))
		}
		seen[canonical] = key

		value := strings.TrimSpace(raw[key])
		if err := n.apply(&req, canonical, key, value); err != nil {
			return SearchRequest{}, err
		}
	}

	f := req.Filter
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return SearchRequest{}, apperrors.NewInvalidFilterValueError(ParamPriceMin, "must not exceed priceMax")
	}
	if f.AreaMin != nil && f.AreaMax != nil && *f.AreaMin > *f.AreaMax {
		return SearchRequest{}, apperrors.NewInvalidFilterValueError(ParamAreaMin, "must not exceed areaMax")
	}

	return req, nil
}

func (n *Normalizer) apply(req *SearchRequest, canonical, key, value string) error {
	f := &req.Filter

	// Blank parameters are treated as absent, except that an unknown key is
	// rejected even when blank.
	if value == "" {
		if !knownParam(canonical) {
			return apperrors.NewInvalidFilterValueError(key, "unknown search parameter")
		}
		return nil
	}

	switch canonical {
	case ParamCategory:
		c := entities.ListingCategory(strings.ToLower(value))
		if !c.Valid() {
			return apperrors.NewInvalidFilterValueError(key, "must be one of flat, land, shop, house")
		}
		f.Category = &c
	case ParamListingType:
		t := entities.ListingType(strings.ToLower(value))
		if !t.Valid() {
			return apperrors.NewInvalidFilterValueError(key, "must be one of sale, rent")
		}
		f.ListingType = &t
	case ParamPriceMin, ParamPriceMax:
		v, err := parseNumber(key, value, false)
		if err != nil {
			return err
		}
		if canonical == ParamPriceMin {
			f.PriceMin = &v
		} else {
			f.PriceMax = &v
		}
	case ParamAreaMin, ParamAreaMax:
		v, err := parseNumber(key, value, true)
		if err != nil {
			return err
		}
		if canonical == ParamAreaMin {
			f.AreaMin = &v
		} else {
			f.AreaMax = &v
		}
	case ParamBedroomsMin, ParamBathroomsMin:
		v, err := parseCount(key, value, 0)
		if err != nil {
			return err
		}
		if canonical == ParamBedroomsMin {
			f.BedroomsMin = &v
		} else {
			f.BathroomsMin = &v
		}
	case ParamLocationQuery:
		f.LocationQuery = &value
	case ParamSortKey:
		k := SortKey(strings.ToLower(value))
		if !k.Valid() {
			return apperrors.NewInvalidFilterValueError(key, "must be one of price_asc, price_desc, newest, oldest")
		}
		f.SortKey = k
	case ParamPage:
		v, err := parseCount(key, value, 1)
		if err != nil {
			return err
		}
		if v > n.maxPage() {
			return apperrors.NewInvalidFilterValueError(key, fmt.Sprintf("must be at most %d", n.maxPage()))
		}
		req.Page.Page = v
	case ParamPageSize:
		v, err := parseCount(key, value, 1)
		if err != nil {
			return err
		}
		if v > n.maxPageSize {
			v = n.maxPageSize
		}
		req.Page.PageSize = v
	default:
		return apperrors.NewInvalidFilterValueError(key, "unknown search parameter")
	}
	return nil
}

// maxPage is the largest page whose offset fits in an int at the largest
// page size.
func (n *Normalizer) maxPage() int {
	return math.MaxInt/n.maxPageSize + 1
}

func knownParam(canonical string) bool {
	switch canonical {
	case ParamCategory, ParamListingType, ParamPriceMin, ParamPriceMax, ParamAreaMin, ParamAreaMax,
		ParamBedroomsMin, ParamBathroomsMin, ParamLocationQuery, ParamSortKey, ParamPage, ParamPageSize:
		return true
	}
	return false
}

func parseNumber(key, value string, strictlyPositive bool) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperrors.NewInvalidFilterValueError(key, "must be a number")
	}
	if strictlyPositive && v <= 0 {
		return 0, apperrors.NewInvalidFilterValueError(key, "must be greater than zero")
	}
	if v < 0 {
		return 0, apperrors.NewInvalidFilterValueError(key, "must not be negative")
	}
	return v, nil
}

func parseCount(key, value string, min int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.NewInvalidFilterValueError(key, "must be a whole number")
	}
	if v < min {
		return 0, apperrors.NewInvalidFilterValueError(key, fmt.Sprintf("must be at least %d", min))
	}
	return v, nil
}

// FlattenQuery converts URL query values to the single-valued map the
// normalizer takes. A parameter repeated with different values is rejected.
func FlattenQuery(values url.Values) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		first := vals[0]
		for _, v := range vals[1:] {
			if v != first {
				return nil, apperrors.NewInvalidFilterValueError(key, "given more than once with different values")
			}
		}
		out[key] = first
	}
	return out, nil
}
