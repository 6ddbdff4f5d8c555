package entities

import "time"

// ListingCategory is the kind of property on offer.
type ListingCategory string

const (
	CategoryFlat  ListingCategory = "flat"
	CategoryLand  ListingCategory = "land"
	CategoryShop  ListingCategory = "shop"
	CategoryHouse ListingCategory = "house"
)

// Valid reports whether c is one of the known categories.
func (c ListingCategory) Valid() bool {
	switch c {
	case CategoryFlat, CategoryLand, CategoryShop, CategoryHouse:
		return true
	}
	return false
}

// ListingType distinguishes sale listings from rentals.
type ListingType string

const (
	ListingTypeSale ListingType = "sale"
	ListingTypeRent ListingType = "rent"
)

// Valid reports whether t is one of the known listing types.
func (t ListingType) Valid() bool {
	return t == ListingTypeSale || t == ListingTypeRent
}

// ApprovalStatus is the moderation state of a listing.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is a known moderation state.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Listing is a property offered for sale or rent.
//
// AverageRating and TotalRatings are derived from the listing's ratings and
// are only written by the rating aggregator.
type Listing struct {
	ID              string          `json:"id" db:"id"`
	Title           string          `json:"title" db:"title"`
	Description     string          `json:"description" db:"description"`
	Price           float64         `json:"price" db:"price"`
	Category        ListingCategory `json:"category" db:"category"`
	ListingType     ListingType     `json:"listingType" db:"listing_type"`
	Area            float64         `json:"area" db:"area"`
	Bedrooms        *int            `json:"bedrooms" db:"bedrooms"`
	Bathrooms       *int            `json:"bathrooms" db:"bathrooms"`
	Location        string          `json:"location" db:"location"`
	Address         string          `json:"address" db:"address"`
	City            string          `json:"city" db:"city"`
	State           string          `json:"state" db:"state"`
	ZipCode         string          `json:"zipCode" db:"zip_code"`
	Images          []string        `json:"images" db:"images"`
	Features        []string        `json:"features" db:"features"`
	AgentID         string          `json:"agentId" db:"agent_id"`
	AgentName       string          `json:"agentName" db:"agent_name"`
	AgentPhone      string          `json:"agentPhone" db:"agent_phone"`
	IsActive        bool            `json:"isActive" db:"is_active"`
	ApprovalStatus  ApprovalStatus  `json:"approvalStatus" db:"approval_status"`
	RejectionReason string          `json:"rejectionReason,omitempty" db:"rejection_reason"`
	IsFeatured      bool            `json:"isFeatured" db:"is_featured"`
	Views           int             `json:"views" db:"views"`
	AverageRating   float64         `json:"averageRating" db:"average_rating"`
	TotalRatings    int             `json:"totalRatings" db:"total_ratings"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// Visible reports whether the listing passes the public moderation gate.
func (l *Listing) Visible() bool {
	return l.ApprovalStatus == ApprovalApproved && l.IsActive
}

// ListingWithAgent is a listing as returned to browsing clients, with a
// summary of the agent that owns it.
type ListingWithAgent struct {
	*Listing
	Agent *AgentSummary `json:"agent,omitempty"`
}

// ListingPage is one page of listings plus the total number of matches.
type ListingPage struct {
	Items      []*ListingWithAgent `json:"items"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
}
