package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

const usersTable = "users"

var userSelectColumns = []interface{}{
	"id", "name", "email", "phone", "avatar", "role", "is_active",
	"average_rating", "total_ratings", "created_at", "updated_at",
}

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new user
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	record := goqu.Record{
		"id":             user.ID,
		"name":           user.Name,
		"email":          user.Email,
		"phone":          user.Phone,
		"avatar":         user.Avatar,
		"role":           string(user.Role),
		"is_active":      user.IsActive,
		"average_rating": user.AverageRating,
		"total_ratings":  user.TotalRatings,
		"created_at":     user.CreatedAt,
		"updated_at":     user.UpdatedAt,
	}

	query, args, err := a.db.Insert(usersTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return queryError("failed to create user", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return a.getByField(ctx, "id", id)
}

// GetByEmail retrieves a user by email
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return a.getByField(ctx, "email", email)
}

// GetByIDs retrieves multiple users by their IDs
func (a *UserAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	if len(ids) == 0 {
		return []*entities.User{}, nil
	}

	query, args, err := a.db.From(usersTable).
		Select(userSelectColumns...).
		Where(goqu.Ex{"id": ids}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("failed to get users by ids", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("failed to iterate users", err)
	}

	return users, nil
}

// SubjectExists reports whether id is an active agent
func (a *UserAdapter) SubjectExists(ctx context.Context, id string) (bool, error) {
	return rowExists(ctx, a.client, a.db.From(usersTable).
		Select(goqu.L("1")).
		Where(goqu.Ex{
			"id":        id,
			"role":      string(entities.RoleAgent),
			"is_active": true,
		}).
		Limit(1))
}

// SetRatingAggregate overwrites the agent's stored rating aggregate
func (a *UserAdapter) SetRatingAggregate(ctx context.Context, id string, aggregate entities.RatingAggregate) error {
	query, args, err := a.db.Update(usersTable).
		Set(goqu.Record{
			"average_rating": aggregate.AverageRating,
			"total_ratings":  aggregate.TotalRatings,
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return queryError("failed to update user rating", err)
	}

	return requireAffected(result, fmt.Sprintf("user with id %s not found", id))
}

func (a *UserAdapter) getByField(ctx context.Context, field, value string) (*entities.User, error) {
	query, args, err := a.db.From(usersTable).
		Select(userSelectColumns...).
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	user, err := scanUser(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with %s %s not found", field, value))
	}
	if err != nil {
		return nil, queryError("failed to get user", err)
	}

	return user, nil
}

func scanUser(row rowScanner) (*entities.User, error) {
	user := &entities.User{}
	var role string

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Avatar,
		&role,
		&user.IsActive,
		&user.AverageRating,
		&user.TotalRatings,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = entities.UserRole(role)
	return user, nil
}
