package entities

import (
	"time"
)

// UserRole is the authorization role of an account.
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAgent UserRole = "agent"
	RoleAdmin UserRole = "admin"
)

// User represents an account in the system. Agents carry a rating aggregate
// of their own.
type User struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	Phone         string    `json:"phone" db:"phone"`
	Avatar        string    `json:"avatar,omitempty" db:"avatar"`
	Role          UserRole  `json:"role" db:"role"`
	IsActive      bool      `json:"isActive" db:"is_active"`
	AverageRating float64   `json:"averageRating" db:"average_rating"`
	TotalRatings  int       `json:"totalRatings" db:"total_ratings"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// AgentSummary is the public projection of an agent embedded in listings.
type AgentSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Avatar        string  `json:"avatar,omitempty"`
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
}

// Summary projects the user into its public agent summary.
func (u *User) Summary() *AgentSummary {
	return &AgentSummary{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Avatar:        u.Avatar,
		AverageRating: u.AverageRating,
		TotalRatings:  u.TotalRatings,
	}
}
