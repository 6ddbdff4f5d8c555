package schema

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/zatekoja/propertymarket/backend/internal/graphql/resolvers"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// Argument values arrive as literals parsed by gqlparser (int64, float64,
// string) or as request variables decoded with UseNumber (json.Number).

func argError(name, message string) error {
	return apperrors.NewInvalidFilterValueError(name, message)
}

func toInt(name string, v any) (*int, error) {
	var n int64
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
			return nil, argError(name, "must be a whole number")
		}
		n = int64(x)
	case json.Number:
		parsed, err := x.Int64()
		if err != nil {
			return nil, argError(name, "must be a whole number")
		}
		n = parsed
	default:
		return nil, argError(name, fmt.Sprintf("must be an Int, got %T", v))
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, argError(name, "is outside the Int range")
	}
	out := int(n)
	return &out, nil
}

func toFloat(name string, v any) (*float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case float64:
		f = x
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil, argError(name, "must be a number")
		}
		f = parsed
	default:
		return nil, argError(name, fmt.Sprintf("must be a Float, got %T", v))
	}
	return &f, nil
}

func toString(name string, v any) (*string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &x, nil
	default:
		return nil, argError(name, fmt.Sprintf("must be a String, got %T", v))
	}
}

func requiredString(args map[string]any, name string) (string, error) {
	s, err := toString(name, args[name])
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", argError(name, "is required")
	}
	return *s, nil
}

func pagingArgs(args map[string]any) (resolvers.Paging, error) {
	page, err := toInt("page", args["page"])
	if err != nil {
		return resolvers.Paging{}, err
	}
	pageSize, err := toInt("pageSize", args["pageSize"])
	if err != nil {
		return resolvers.Paging{}, err
	}
	return resolvers.Paging{Page: page, PageSize: pageSize}, nil
}

func filterArg(v any) (*resolvers.ListingFilter, error) {
	if v == nil {
		return nil, nil
	}
	in, ok := v.(map[string]any)
	if !ok {
		return nil, argError("filter", fmt.Sprintf("must be a ListingFilter, got %T", v))
	}

	f := &resolvers.ListingFilter{}
	var err error
	stringFields := map[string]**string{
		"category":      &f.Category,
		"listingType":   &f.ListingType,
		"locationQuery": &f.LocationQuery,
		"sortKey":       &f.SortKey,
	}
	floats := map[string]**float64{
		"priceMin": &f.PriceMin,
		"priceMax": &f.PriceMax,
		"areaMin":  &f.AreaMin,
		"areaMax":  &f.AreaMax,
	}
	ints := map[string]**int{
		"bedroomsMin":  &f.BedroomsMin,
		"bathroomsMin": &f.BathroomsMin,
	}

	for key, value := range in {
		switch {
		case stringFields[key] != nil:
			*stringFields[key], err = toString(key, value)
		case floats[key] != nil:
			*floats[key], err = toFloat(key, value)
		case ints[key] != nil:
			*ints[key], err = toInt(key, value)
		default:
			err = argError(key, "unknown filter field")
		}
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}
