package listingsearch

// SortKey selects the result ordering.
type SortKey string

const (
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortPriceAsc, SortPriceDesc, SortNewest, SortOldest:
		return true
	}
	return false
}

// Ordering is a single-field sort. Ties are broken however the store sees
// fit.
type Ordering struct {
	Field      Field
	Descending bool
}

// ResolveSort maps a sort key onto an ordering. Unknown or empty keys sort
// newest first.
func ResolveSort(k SortKey) Ordering {
	switch k {
	case SortPriceAsc:
		return Ordering{Field: FieldPrice}
	case SortPriceDesc:
		return Ordering{Field: FieldPrice, Descending: true}
	case SortOldest:
		return Ordering{Field: FieldCreatedAt}
	default:
		return Ordering{Field: FieldCreatedAt, Descending: true}
	}
}
