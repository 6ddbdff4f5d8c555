package database

import (
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
)

// listingFieldColumns maps search fields onto listings table columns.
var listingFieldColumns = map[listingsearch.Field]string{
	listingsearch.FieldTitle:          "title",
	listingsearch.FieldDescription:    "description",
	listingsearch.FieldLocation:       "location",
	listingsearch.FieldAddress:        "address",
	listingsearch.FieldCity:           "city",
	listingsearch.FieldState:          "state",
	listingsearch.FieldZipCode:        "zip_code",
	listingsearch.FieldAgentName:      "agent_name",
	listingsearch.FieldAgentPhone:     "agent_phone",
	listingsearch.FieldAgentID:        "agent_id",
	listingsearch.FieldCategory:       "category",
	listingsearch.FieldListingType:    "listing_type",
	listingsearch.FieldPrice:          "price",
	listingsearch.FieldArea:           "area",
	listingsearch.FieldBedrooms:       "bedrooms",
	listingsearch.FieldBathrooms:      "bathrooms",
	listingsearch.FieldApprovalStatus: "approval_status",
	listingsearch.FieldIsActive:       "is_active",
	listingsearch.FieldCreatedAt:      "created_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func listingColumn(f listingsearch.Field) (exp.IdentifierExpression, error) {
	col, ok := listingFieldColumns[f]
	if !ok {
		return nil, fmt.Errorf("unknown listing field %q", f)
	}
	return goqu.C(col), nil
}

// predicateExpression translates a compiled predicate into a goqu WHERE
// expression over the listings table.
func predicateExpression(p listingsearch.Predicate) (exp.Expression, error) {
	switch node := p.(type) {
	case listingsearch.And:
		if len(node) == 0 {
			return goqu.L("TRUE"), nil
		}
		children, err := childExpressions(node)
		if err != nil {
			return nil, err
		}
		return goqu.And(children...), nil
	case listingsearch.Or:
		if len(node) == 0 {
			return goqu.L("FALSE"), nil
		}
		children, err := childExpressions(node)
		if err != nil {
			return nil, err
		}
		return goqu.Or(children...), nil
	case listingsearch.Eq:
		col, err := listingColumn(node.Field)
		if err != nil {
			return nil, err
		}
		return col.Eq(node.Value), nil
	case listingsearch.Range:
		col, err := listingColumn(node.Field)
		if err != nil {
			return nil, err
		}
		bounds := make([]exp.Expression, 0, 2)
		if node.Min != nil {
			bounds = append(bounds, col.Gte(*node.Min))
		}
		if node.Max != nil {
			bounds = append(bounds, col.Lte(*node.Max))
		}
		if len(bounds) == 0 {
			// An open range still excludes NULLs.
			return col.IsNotNull(), nil
		}
		return goqu.And(bounds...), nil
	case listingsearch.Contains:
		col, err := listingColumn(node.Field)
		if err != nil {
			return nil, err
		}
		return col.ILike("%" + likeEscaper.Replace(node.Text) + "%"), nil
	}
	return nil, fmt.Errorf("unsupported predicate %T", p)
}

func childExpressions(children []listingsearch.Predicate) ([]exp.Expression, error) {
	out := make([]exp.Expression, 0, len(children))
	for _, child := range children {
		e, err := predicateExpression(child)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func orderExpression(o listingsearch.Ordering) (exp.OrderedExpression, error) {
	col, err := listingColumn(o.Field)
	if err != nil {
		return nil, err
	}
	if o.Descending {
		return col.Desc(), nil
	}
	return col.Asc(), nil
}
