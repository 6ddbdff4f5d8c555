package repositories

import (
	"context"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
)

// UserRepository defines the interface for user data operations.
// SubjectExists is true only for active agents.
type UserRepository interface {
	RatingSubjectRepository

	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByIDs retrieves the users that exist among ids, in no particular order
	GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}
