package database

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/propertymarket/backend/internal/query/listingsearch"
	apperrors "github.com/zatekoja/propertymarket/backend/pkg/errors"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	return postgres.NewClientFromDB(mockDB), mock
}

func listingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "price", "category", "listing_type",
		"area", "bedrooms", "bathrooms", "location", "address", "city", "state",
		"zip_code", "images", "features", "agent_id", "agent_name", "agent_phone",
		"is_active", "approval_status", "rejection_reason", "is_featured", "views",
		"average_rating", "total_ratings", "created_at", "updated_at",
	})
}

func addListingRow(rows *sqlmock.Rows, id string, price float64, bedrooms interface{}) *sqlmock.Rows {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, "Family House", "Three bed semi", price, "house", "sale",
		120.0, bedrooms, nil, "Austin", "1 Main St", "Austin", "TX",
		"78701", "{a.jpg,b.jpg}", "{garden}", "agent-1", "Ada Agent", "555-0100",
		true, "approved", nil, false, 7,
		4.5, 2, now, now,
	)
}

func TestListingAdapter_FindTranslatesPredicateAndWindow(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewListingAdapter(client)

	c := listingsearch.NewCompiler(listingsearch.DefaultPriceTolerance)
	p := c.Compile(listingsearch.FilterDescriptor{})

	mock.ExpectQuery(`SELECT .+ FROM "listings" WHERE .+"approval_status" = 'approved'.+ORDER BY "price" ASC LIMIT 10 OFFSET 10`).
		WillReturnRows(addListingRow(addListingRow(listingRows(), "l-11", 11000, 3), "l-12", 12000, nil))

	listings, err := adapter.Find(context.Background(), listingsearch.Query{
		Predicate: p,
		Ordering:  listingsearch.ResolveSort(listingsearch.SortPriceAsc),
		Offset:    10,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "l-11", first.ID)
	assert.Equal(t, entities.CategoryHouse, first.Category)
	assert.Equal(t, entities.ApprovalApproved, first.ApprovalStatus)
	require.NotNil(t, first.Bedrooms)
	assert.Equal(t, 3, *first.Bedrooms)
	assert.Nil(t, first.Bathrooms)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, first.Images)
	assert.Nil(t, listings[1].Bedrooms)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingAdapter_Count(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewListingAdapter(client)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "listings" WHERE .+"is_active" IS TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	total, err := adapter.Count(context.Background(), listingsearch.ModerationGate())
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingAdapter_CountFailureClassification(t *testing.T) {
	t.Run("lost connection is storage unavailable", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewListingAdapter(client)

		mock.ExpectQuery(`SELECT COUNT`).WillReturnError(&pq.Error{Code: "57P01"})

		_, err := adapter.Count(context.Background(), listingsearch.ModerationGate())
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorageUnavailable))
	})

	t.Run("query error is internal", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewListingAdapter(client)

		mock.ExpectQuery(`SELECT COUNT`).WillReturnError(assert.AnError)

		_, err := adapter.Count(context.Background(), listingsearch.ModerationGate())
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	})
}

func TestListingAdapter_GetByIDUnreachableIsStorageUnavailable(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewListingAdapter(client)

	mock.ExpectQuery(`SELECT .+ FROM "listings"`).
		WillReturnError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})

	_, err := adapter.GetByID(context.Background(), "l-1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorageUnavailable))
}

func TestListingAdapter_GetByIDNotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewListingAdapter(client)

	mock.ExpectQuery(`SELECT .+ FROM "listings" WHERE \("id" = 'missing'\)`).
		WillReturnRows(listingRows())

	_, err := adapter.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingAdapter_SetRatingAggregate(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewListingAdapter(client)

	mock.ExpectExec(`UPDATE "listings" SET "average_rating" ?= ?4\.3, ?"total_ratings" ?= ?3 WHERE \("id" = 'l-1'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.SetRatingAggregate(context.Background(), "l-1", entities.RatingAggregate{AverageRating: 4.3, TotalRatings: 3})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingAdapter_SetActiveMissingListing(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewListingAdapter(client)

	mock.ExpectExec(`UPDATE "listings" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.SetActive(context.Background(), "nope", false)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestListingAdapter_SubjectExists(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewListingAdapter(client)

	mock.ExpectQuery(`SELECT 1 FROM "listings" WHERE \("id" = 'l-1'\) LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM "listings" WHERE \("id" = 'l-2'\) LIMIT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	ok, err := adapter.SubjectExists(context.Background(), "l-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.SubjectExists(context.Background(), "l-2")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
