package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

// UserStore is an in-memory UserRepository
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*entities.User
}

var _ repositories.UserRepository = (*UserStore)(nil)

// NewUserStore creates an empty user store
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*entities.User)}
}

// Create creates a new user
func (s *UserStore) Create(_ context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.ID == user.ID || strings.EqualFold(existing.Email, user.Email) {
			return apperrors.NewConflictError(fmt.Sprintf("user %s already exists", user.Email))
		}
	}
	c := *user
	s.users[user.ID] = &c
	return nil
}

// GetByID retrieves a user by ID
func (s *UserStore) GetByID(_ context.Context, id string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}
	c := *u
	return &c, nil
}

// GetByIDs retrieves the users that exist among ids
func (s *UserStore) GetByIDs(_ context.Context, ids []string) ([]*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

// GetByEmail retrieves a user by email
func (s *UserStore) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with email %s not found", email))
}

// SubjectExists reports whether id is an active agent
func (s *UserStore) SubjectExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	return ok && u.Role == entities.RoleAgent && u.IsActive, nil
}

// SetRatingAggregate overwrites the agent's stored aggregate
func (s *UserStore) SetRatingAggregate(_ context.Context, id string, aggregate entities.RatingAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}
	u.AverageRating = aggregate.AverageRating
	u.TotalRatings = aggregate.TotalRatings
	return nil
}
