package listingsearch

import (
	"strings"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
)

// Matches evaluates p against a single listing. It gives the same answer a
// SQL store gives for the same predicate, including that a missing bedroom
// or bathroom count never satisfies a range.
func Matches(p Predicate, l *entities.Listing) bool {
	switch node := p.(type) {
	case And:
		for _, child := range node {
			if !Matches(child, l) {
				return false
			}
		}
		return true
	case Or:
		for _, child := range node {
			if Matches(child, l) {
				return true
			}
		}
		return false
	case Eq:
		return equals(l, node.Field, node.Value)
	case Range:
		v, ok := numericValue(l, node.Field)
		if !ok {
			return false
		}
		if node.Min != nil && v < *node.Min {
			return false
		}
		if node.Max != nil && v > *node.Max {
			return false
		}
		return true
	case Contains:
		s, ok := textValue(l, node.Field)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(node.Text))
	}
	return false
}

// Compare orders a and b by o, returning a negative number when a sorts
// first.
func Compare(a, b *entities.Listing, o Ordering) int {
	var c int
	switch o.Field {
	case FieldPrice:
		c = compareFloat(a.Price, b.Price)
	case FieldArea:
		c = compareFloat(a.Area, b.Area)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if o.Descending {
		return -c
	}
	return c
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func equals(l *entities.Listing, f Field, want interface{}) bool {
	switch w := want.(type) {
	case string:
		s, ok := textValue(l, f)
		return ok && s == w
	case bool:
		if f == FieldIsActive {
			return l.IsActive == w
		}
		return false
	case float64:
		v, ok := numericValue(l, f)
		return ok && v == w
	case int:
		v, ok := numericValue(l, f)
		return ok && v == float64(w)
	}
	return false
}

func textValue(l *entities.Listing, f Field) (string, bool) {
	switch f {
	case FieldTitle:
		return l.Title, true
	case FieldDescription:
		return l.Description, true
	case FieldLocation:
		return l.Location, true
	case FieldAddress:
		return l.Address, true
	case FieldCity:
		return l.City, true
	case FieldState:
		return l.State, true
	case FieldZipCode:
		return l.ZipCode, true
	case FieldAgentName:
		return l.AgentName, true
	case FieldAgentPhone:
		return l.AgentPhone, true
	case FieldAgentID:
		return l.AgentID, true
	case FieldCategory:
		return string(l.Category), true
	case FieldListingType:
		return string(l.ListingType), true
	case FieldApprovalStatus:
		return string(l.ApprovalStatus), true
	}
	return "", false
}

func numericValue(l *entities.Listing, f Field) (float64, bool) {
	switch f {
	case FieldPrice:
		return l.Price, true
	case FieldArea:
		return l.Area, true
	case FieldBedrooms:
		if l.Bedrooms == nil {
			return 0, false
		}
		return float64(*l.Bedrooms), true
	case FieldBathrooms:
		if l.Bathrooms == nil {
			return 0, false
		}
		return float64(*l.Bathrooms), true
	}
	return 0, false
}
