package listingsearch

// Field names a listing attribute a predicate can test or an ordering can
// sort by. Stores map fields onto their own column or property names.
type Field string

const (
	FieldTitle          Field = "title"
	FieldDescription    Field = "description"
	FieldLocation       Field = "location"
	FieldAddress        Field = "address"
	FieldCity           Field = "city"
	FieldState          Field = "state"
	FieldZipCode        Field = "zipCode"
	FieldAgentName      Field = "agentName"
	FieldAgentPhone     Field = "agentPhone"
	FieldAgentID        Field = "agentId"
	FieldCategory       Field = "category"
	FieldListingType    Field = "listingType"
	FieldPrice          Field = "price"
	FieldArea           Field = "area"
	FieldBedrooms       Field = "bedrooms"
	FieldBathrooms      Field = "bathrooms"
	FieldApprovalStatus Field = "approvalStatus"
	FieldIsActive       Field = "isActive"
	FieldCreatedAt      Field = "createdAt"
)

// TextSearchFields are matched by each free-text token.
var TextSearchFields = []Field{
	FieldTitle,
	FieldDescription,
	FieldLocation,
	FieldAddress,
	FieldCity,
	FieldState,
	FieldZipCode,
	FieldAgentName,
	FieldAgentPhone,
	FieldCategory,
	FieldListingType,
}

// Predicate is a node of a compiled listing filter. The concrete node types
// are Eq, Range, Contains, And and Or.
type Predicate interface {
	predicate()
}

// Eq matches listings whose field equals Value. Value is a string, bool or
// float64 depending on the field.
type Eq struct {
	Field Field
	Value interface{}
}

// Range matches listings whose numeric field lies within [Min, Max]. A nil
// bound is open. Listings with no value for the field never match.
type Range struct {
	Field Field
	Min   *float64
	Max   *float64
}

// Contains matches listings whose text field contains Text, ignoring case.
type Contains struct {
	Field Field
	Text  string
}

// And matches when every child matches. An empty And matches everything.
type And []Predicate

// Or matches when at least one child matches. An empty Or matches nothing.
type Or []Predicate

func (Eq) predicate()       {}
func (Range) predicate()    {}
func (Contains) predicate() {}
func (And) predicate()      {}
func (Or) predicate()       {}

// AtLeast is a lower-bounded Range.
func AtLeast(field Field, min float64) Range {
	return Range{Field: field, Min: &min}
}

// Between is a closed Range.
func Between(field Field, min, max float64) Range {
	return Range{Field: field, Min: &min, Max: &max}
}
