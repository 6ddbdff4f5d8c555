package services

import "github.com/zatekoja/propertymarket/backend/internal/domain/entities"

// Actor is the authenticated caller of a service operation
type Actor struct {
	ID   string
	Name string
	Role entities.UserRole
}

// IsAdmin reports whether the actor is an administrator
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == entities.RoleAdmin
}

// Owns reports whether the actor is the listing's agent
func (a *Actor) Owns(l *entities.Listing) bool {
	return a != nil && l != nil && a.ID != "" && a.ID == l.AgentID
}

func (a *Actor) canManage(l *entities.Listing) bool {
	return a.IsAdmin() || a.Owns(l)
}
