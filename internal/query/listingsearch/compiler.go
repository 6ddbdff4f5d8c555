package listingsearch

import (
	"math"
	"strconv"
	"strings"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
)

// DefaultPriceTolerance is the half-width of the price window a numeric
// free-text token opens around itself.
const DefaultPriceTolerance = 100000.0

// ModerationGate matches listings that are approved and active. Every
// public search predicate starts with it.
func ModerationGate() And {
	return And{
		Eq{Field: FieldApprovalStatus, Value: string(entities.ApprovalApproved)},
		Eq{Field: FieldIsActive, Value: true},
	}
}

// HasModerationGate reports whether p is an And whose leading clauses are
// the moderation gate.
func HasModerationGate(p Predicate) bool {
	and, ok := p.(And)
	if !ok || len(and) < 2 {
		return false
	}
	gate := ModerationGate()
	return and[0] == gate[0] && and[1] == gate[1]
}

// Compiler turns a FilterDescriptor into a Predicate.
type Compiler struct {
	priceTolerance float64
}

// NewCompiler creates a compiler. A negative tolerance is treated as zero.
func NewCompiler(priceTolerance float64) *Compiler {
	if priceTolerance < 0 {
		priceTolerance = 0
	}
	return &Compiler{priceTolerance: priceTolerance}
}

// PriceTolerance returns the configured price window half-width.
func (c *Compiler) PriceTolerance() float64 {
	return c.priceTolerance
}

// Compile builds the conjunction of the moderation gate, one clause per
// structured filter and one Or group per free-text token.
func (c *Compiler) Compile(f FilterDescriptor) Predicate {
	clauses := ModerationGate()

	if f.Category != nil {
		clauses = append(clauses, Eq{Field: FieldCategory, Value: string(*f.Category)})
	}
	if f.ListingType != nil {
		clauses = append(clauses, Eq{Field: FieldListingType, Value: string(*f.ListingType)})
	}
	if f.PriceMin != nil || f.PriceMax != nil {
		clauses = append(clauses, Range{Field: FieldPrice, Min: f.PriceMin, Max: f.PriceMax})
	}
	if f.AreaMin != nil || f.AreaMax != nil {
		clauses = append(clauses, Range{Field: FieldArea, Min: f.AreaMin, Max: f.AreaMax})
	}
	if f.BedroomsMin != nil {
		clauses = append(clauses, AtLeast(FieldBedrooms, float64(*f.BedroomsMin)))
	}
	if f.BathroomsMin != nil {
		clauses = append(clauses, AtLeast(FieldBathrooms, float64(*f.BathroomsMin)))
	}
	if f.LocationQuery != nil {
		clauses = append(clauses, c.CompileText(*f.LocationQuery)...)
	}

	return clauses
}

// CompileText returns one Or group per whitespace-separated token of q.
// Each group matches the token as a case-insensitive substring of any text
// search field; a numeric token also matches the exact price and the price
// window around it.
func (c *Compiler) CompileText(q string) []Predicate {
	tokens := strings.Fields(q)
	groups := make([]Predicate, 0, len(tokens))
	for _, token := range tokens {
		group := make(Or, 0, len(TextSearchFields)+2)
		for _, field := range TextSearchFields {
			group = append(group, Contains{Field: field, Text: token})
		}
		if n, ok := numericToken(token); ok {
			group = append(group,
				Eq{Field: FieldPrice, Value: n},
				Between(FieldPrice, n-c.priceTolerance, n+c.priceTolerance),
			)
		}
		groups = append(groups, group)
	}
	return groups
}

// numericToken parses a token that is entirely a finite decimal number.
func numericToken(token string) (float64, bool) {
	n, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
