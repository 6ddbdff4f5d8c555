package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

const listingsTable = "listings"

var listingSelectColumns = []interface{}{
	"id", "title", "description", "price", "category", "listing_type",
	"area", "bedrooms", "bathrooms", "location", "address", "city", "state",
	"zip_code", "images", "features", "agent_id", "agent_name", "agent_phone",
	"is_active", "approval_status", "rejection_reason", "is_featured", "views",
	"average_rating", "total_ratings", "created_at", "updated_at",
}

// ListingAdapter implements the ListingRepository interface
type ListingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewListingAdapter creates a new listing adapter
func NewListingAdapter(client *postgres.Client) repositories.ListingRepository {
	return &ListingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new listing
func (a *ListingAdapter) Create(ctx context.Context, listing *entities.Listing) error {
	record := goqu.Record{
		"id":               listing.ID,
		"title":            listing.Title,
		"description":      listing.Description,
		"price":            listing.Price,
		"category":         string(listing.Category),
		"listing_type":     string(listing.ListingType),
		"area":             listing.Area,
		"bedrooms":         nullInt(listing.Bedrooms),
		"bathrooms":        nullInt(listing.Bathrooms),
		"location":         listing.Location,
		"address":          listing.Address,
		"city":             listing.City,
		"state":            listing.State,
		"zip_code":         listing.ZipCode,
		"images":           pq.Array(nonNilStrings(listing.Images)),
		"features":         pq.Array(nonNilStrings(listing.Features)),
		"agent_id":         listing.AgentID,
		"agent_name":       listing.AgentName,
		"agent_phone":      listing.AgentPhone,
		"is_active":        listing.IsActive,
		"approval_status":  string(listing.ApprovalStatus),
		"rejection_reason": sql.NullString{String: listing.RejectionReason, Valid: listing.RejectionReason != ""},
		"is_featured":      listing.IsFeatured,
		"views":            listing.Views,
		"average_rating":   listing.AverageRating,
		"total_ratings":    listing.TotalRatings,
		"created_at":       listing.CreatedAt,
		"updated_at":       listing.UpdatedAt,
	}

	query, args, err := a.db.Insert(listingsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return queryError("failed to create listing", err)
	}

	return nil
}

// GetByID retrieves a listing by ID
func (a *ListingAdapter) GetByID(ctx context.Context, id string) (*entities.Listing, error) {
	query, args, err := a.db.From(listingsTable).
		Select(listingSelectColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	listing, err := scanListing(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("listing with id %s not found", id))
	}
	if err != nil {
		return nil, queryError("failed to get listing", err)
	}

	return listing, nil
}

// Find returns one window of listings matching the compiled predicate
func (a *ListingAdapter) Find(ctx context.Context, q listingsearch.Query) ([]*entities.Listing, error) {
	where, err := predicateExpression(q.Predicate)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to translate listing predicate", err)
	}
	order, err := orderExpression(q.Ordering)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to translate listing ordering", err)
	}

	ds := a.db.From(listingsTable).
		Select(listingSelectColumns...).
		Where(where).
		Order(order)

	if q.Limit > 0 {
		ds = ds.Limit(uint(q.Limit))
	}

	if q.Offset > 0 {
		ds = ds.Offset(uint(q.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build search query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryError("failed to search listings", err)
	}
	defer rows.Close()

	var listings []*entities.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan listing", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("failed to iterate listings", err)
	}

	return listings, nil
}

// Count counts listings matching the compiled predicate
func (a *ListingAdapter) Count(ctx context.Context, p listingsearch.Predicate) (int, error) {
	where, err := predicateExpression(p)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to translate listing predicate", err)
	}

	query, args, err := a.db.From(listingsTable).
		Select(goqu.COUNT("*")).
		Where(where).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, queryError("failed to count listings", err)
	}

	return total, nil
}

// SetActive toggles the listing's active flag
func (a *ListingAdapter) SetActive(ctx context.Context, id string, active bool) error {
	return a.update(ctx, id, goqu.Record{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	})
}

// SetApproval records a moderation decision
func (a *ListingAdapter) SetApproval(ctx context.Context, id string, status entities.ApprovalStatus, reason string) error {
	return a.update(ctx, id, goqu.Record{
		"approval_status":  string(status),
		"rejection_reason": sql.NullString{String: reason, Valid: reason != ""},
		"updated_at":       time.Now().UTC(),
	})
}

// IncrementViews bumps the view counter by one
func (a *ListingAdapter) IncrementViews(ctx context.Context, id string) error {
	return a.update(ctx, id, goqu.Record{"views": goqu.L("views + 1")})
}

// SetRatingAggregate overwrites the listing's stored rating aggregate
func (a *ListingAdapter) SetRatingAggregate(ctx context.Context, id string, aggregate entities.RatingAggregate) error {
	return a.update(ctx, id, goqu.Record{
		"average_rating": aggregate.AverageRating,
		"total_ratings":  aggregate.TotalRatings,
	})
}

// SubjectExists reports whether a listing with the ID exists
func (a *ListingAdapter) SubjectExists(ctx context.Context, id string) (bool, error) {
	return rowExists(ctx, a.client, a.db.From(listingsTable).Select(goqu.L("1")).Where(goqu.Ex{"id": id}).Limit(1))
}

// Delete deletes a listing
func (a *ListingAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete(listingsTable).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return queryError("failed to delete listing", err)
	}

	return requireAffected(result, fmt.Sprintf("listing with id %s not found", id))
}

func (a *ListingAdapter) update(ctx context.Context, id string, record goqu.Record) error {
	query, args, err := a.db.Update(listingsTable).
		Set(record).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return queryError("failed to update listing", err)
	}

	return requireAffected(result, fmt.Sprintf("listing with id %s not found", id))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*entities.Listing, error) {
	listing := &entities.Listing{}
	var (
		category, listingType, approvalStatus string
		bedrooms, bathrooms                   sql.NullInt64
		rejectionReason                       sql.NullString
	)

	err := row.Scan(
		&listing.ID,
		&listing.Title,
		&listing.Description,
		&listing.Price,
		&category,
		&listingType,
		&listing.Area,
		&bedrooms,
		&bathrooms,
		&listing.Location,
		&listing.Address,
		&listing.City,
		&listing.State,
		&listing.ZipCode,
		pq.Array(&listing.Images),
		pq.Array(&listing.Features),
		&listing.AgentID,
		&listing.AgentName,
		&listing.AgentPhone,
		&listing.IsActive,
		&approvalStatus,
		&rejectionReason,
		&listing.IsFeatured,
		&listing.Views,
		&listing.AverageRating,
		&listing.TotalRatings,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	listing.Category = entities.ListingCategory(category)
	listing.ListingType = entities.ListingType(listingType)
	listing.ApprovalStatus = entities.ApprovalStatus(approvalStatus)
	listing.RejectionReason = rejectionReason.String
	if bedrooms.Valid {
		n := int(bedrooms.Int64)
		listing.Bedrooms = &n
	}
	if bathrooms.Valid {
		n := int(bathrooms.Int64)
		listing.Bathrooms = &n
	}

	return listing, nil
}

func rowExists(ctx context.Context, client *postgres.Client, ds *goqu.SelectDataset) (bool, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var one int
	err = client.DB().QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, queryError("failed to check existence", err)
	}

	return true, nil
}

func requireAffected(result sql.Result, notFoundMessage string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(notFoundMessage)
	}

	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
