package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/domain/repositories"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

const ratingsTable = "ratings"

var ratingSelectColumns = []interface{}{
	"id", "subject_type", "subject_id", "rater_id", "rater_name",
	"score", "review", "created_at", "updated_at",
}

// RatingAdapter implements the RatingRepository interface. Rows are mapped
// onto entities.Rating through its db tags.
type RatingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	sx     *sqlx.DB
}

// NewRatingAdapter creates a new rating adapter
func NewRatingAdapter(client *postgres.Client) repositories.RatingRepository {
	return &RatingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		sx:     sqlx.NewDb(client.DB(), "postgres"),
	}
}

func subjectWhere(subject entities.SubjectRef) goqu.Ex {
	return goqu.Ex{
		"subject_type": string(subject.Type),
		"subject_id":   subject.ID,
	}
}

// Upsert inserts the rating or updates the rater's existing one in place.
// The unique (subject_type, subject_id, rater_id) index makes concurrent
// submissions by the same rater last-writer-wins.
func (a *RatingAdapter) Upsert(ctx context.Context, rating *entities.Rating) (bool, error) {
	now := time.Now().UTC()
	if rating.ID == "" {
		rating.ID = uuid.NewString()
	}

	query, args, err := a.db.Insert(ratingsTable).
		Rows(goqu.Record{
			"id":           rating.ID,
			"subject_type": string(rating.SubjectType),
			"subject_id":   rating.SubjectID,
			"rater_id":     rating.RaterID,
			"rater_name":   rating.RaterName,
			"score":        rating.Score,
			"review":       rating.Review,
			"created_at":   now,
			"updated_at":   now,
		}).
		OnConflict(goqu.DoUpdate("subject_type, subject_id, rater_id", goqu.Record{
			"score":      goqu.L("EXCLUDED.score"),
			"review":     goqu.L("EXCLUDED.review"),
			"rater_name": goqu.L("EXCLUDED.rater_name"),
			"updated_at": goqu.L("EXCLUDED.updated_at"),
		})).
		Returning("id", "created_at", "updated_at", goqu.L("(xmax = 0)").As("inserted")).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build upsert query", err)
	}

	var inserted bool
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&rating.ID,
		&rating.CreatedAt,
		&rating.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return false, queryError("failed to upsert rating", err)
	}

	return inserted, nil
}

// Get retrieves the rater's rating for the subject
func (a *RatingAdapter) Get(ctx context.Context, subject entities.SubjectRef, raterID string) (*entities.Rating, error) {
	where := subjectWhere(subject)
	where["rater_id"] = raterID

	query, args, err := a.db.From(ratingsTable).
		Select(ratingSelectColumns...).
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rating := &entities.Rating{}
	err = a.sx.GetContext(ctx, rating, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("rating for %s by %s not found", subject, raterID))
	}
	if err != nil {
		return nil, queryError("failed to get rating", err)
	}

	return rating, nil
}

// Delete removes the rater's rating for the subject
func (a *RatingAdapter) Delete(ctx context.Context, subject entities.SubjectRef, raterID string) error {
	where := subjectWhere(subject)
	where["rater_id"] = raterID

	query, args, err := a.db.Delete(ratingsTable).Where(where).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return queryError("failed to delete rating", err)
	}

	return requireAffected(result, fmt.Sprintf("rating for %s by %s not found", subject, raterID))
}

// DeleteBySubject removes every rating of the subject
func (a *RatingAdapter) DeleteBySubject(ctx context.Context, subject entities.SubjectRef) error {
	query, args, err := a.db.Delete(ratingsTable).Where(subjectWhere(subject)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return queryError("failed to delete subject ratings", err)
	}

	return nil
}

// ListBySubject retrieves ratings for a subject, newest first
func (a *RatingAdapter) ListBySubject(ctx context.Context, subject entities.SubjectRef, limit, offset int) ([]*entities.Rating, error) {
	ds := a.db.From(ratingsTable).
		Select(ratingSelectColumns...).
		Where(subjectWhere(subject)).
		Order(goqu.I("created_at").Desc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	if offset > 0 {
		ds = ds.Offset(uint(offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	ratings := []*entities.Rating{}
	if err := a.sx.SelectContext(ctx, &ratings, query, args...); err != nil {
		return nil, queryError("failed to list ratings", err)
	}

	return ratings, nil
}

// CountBySubject counts ratings for a subject
func (a *RatingAdapter) CountBySubject(ctx context.Context, subject entities.SubjectRef) (int, error) {
	query, args, err := a.db.From(ratingsTable).
		Select(goqu.COUNT("*")).
		Where(subjectWhere(subject)).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, queryError("failed to count ratings", err)
	}

	return total, nil
}

// Tally returns the sum and count of the subject's current scores
func (a *RatingAdapter) Tally(ctx context.Context, subject entities.SubjectRef) (entities.RatingTally, error) {
	query, args, err := a.db.From(ratingsTable).
		Select(
			goqu.COALESCE(goqu.SUM("score"), 0),
			goqu.COUNT("*"),
		).
		Where(subjectWhere(subject)).
		ToSQL()
	if err != nil {
		return entities.RatingTally{}, apperrors.NewInternalError("failed to build tally query", err)
	}

	var tally entities.RatingTally
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&tally.Sum, &tally.Count); err != nil {
		return entities.RatingTally{}, queryError("failed to tally ratings", err)
	}

	return tally, nil
}
