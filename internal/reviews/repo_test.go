package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/internal/repo/sqlitetest"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

func intPtr(v int) *int { return &v }

func seedReview(t *testing.T, conn *gorm.DB, userID, productID uuid.UUID, verified bool, rating *int, createdAt time.Time) models.ProductReview {
	t.Helper()
	review := models.ProductReview{
		ID:        uuid.New(),
		ProductID: productID,
		UserID:    userID,
		Content:   "Tot",
		Rating:    rating,
		Verified:  verified,
		Status:    enums.ReviewStatusApproved,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if verified {
		orderID := uuid.New()
		review.OrderID = &orderID
	}
	sqlitetest.MustCreate(t, conn, &review)
	return review
}

func TestHasVerifiedReviewIgnoresCommentsAndHidden(t *testing.T) {
	conn := sqlitetest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID, productID := uuid.New(), uuid.New()

	seedReview(t, conn, userID, productID, false, nil, time.Now().UTC())
	exists, err := repo.HasVerifiedReview(ctx, userID, productID)
	require.NoError(t, err)
	assert.False(t, exists)

	review := seedReview(t, conn, userID, productID, true, intPtr(4), time.Now().UTC())
	exists, err = repo.HasVerifiedReview(ctx, userID, productID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.UpdateStatus(ctx, review.ID, enums.ReviewStatusHidden))
	exists, err = repo.HasVerifiedReview(ctx, userID, productID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVerifiedUniqueIndex(t *testing.T) {
	conn := sqlitetest.Open(t)
	repo := NewRepository(conn)
	userID, productID := uuid.New(), uuid.New()
	orderID := uuid.New()
	seedReview(t, conn, userID, productID, true, intPtr(5), time.Now().UTC())

	err := repo.Create(context.Background(), &models.ProductReview{
		ProductID: productID,
		UserID:    userID,
		OrderID:   &orderID,
		Content:   "again",
		Rating:    intPtr(3),
		Verified:  true,
		Status:    enums.ReviewStatusApproved,
	})
	require.Error(t, err)
}

func TestRatingAggregatesSkipUnverifiedAndHidden(t *testing.T) {
	conn := sqlitetest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	productID := uuid.New()
	now := time.Now().UTC()

	seedReview(t, conn, uuid.New(), productID, true, intPtr(5), now)
	seedReview(t, conn, uuid.New(), productID, true, intPtr(4), now)
	seedReview(t, conn, uuid.New(), productID, true, intPtr(4), now)
	seedReview(t, conn, uuid.New(), productID, false, intPtr(1), now)
	hidden := seedReview(t, conn, uuid.New(), productID, true, intPtr(1), now)
	require.NoError(t, repo.UpdateStatus(ctx, hidden.ID, enums.ReviewStatusSpam))

	totals, err := repo.RatingTotals(ctx, productID)
	require.NoError(t, err)
	assert.EqualValues(t, 13, totals.Sum)
	assert.EqualValues(t, 3, totals.Count)

	counts, err := repo.RatingCounts(ctx, productID)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, RatingCount{Rating: 5, Count: 1}, counts[0])
	assert.Equal(t, RatingCount{Rating: 4, Count: 2}, counts[1])
}

func TestListOrdersVerifiedFirst(t *testing.T) {
	conn := sqlitetest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	product := sqlitetest.SeedProduct(t, conn, "Blender", 800_000, true)
	author := sqlitetest.SeedUser(t, conn, "Do Quang")
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	verified := seedReview(t, conn, author.ID, product.ID, true, intPtr(5), base)
	comment := seedReview(t, conn, uuid.New(), product.ID, false, nil, base.Add(time.Hour))
	seedReview(t, conn, uuid.New(), uuid.New(), false, nil, base)

	rows, total, err := repo.List(ctx, ListFilters{ProductID: &product.ID}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, verified.ID, rows[0].ID)
	require.NotNil(t, rows[0].FullName)
	assert.Equal(t, "Do Quang", *rows[0].FullName)
	require.NotNil(t, rows[0].ProductName)
	assert.Equal(t, "Blender", *rows[0].ProductName)
	assert.Equal(t, comment.ID, rows[1].ID)
	assert.Nil(t, rows[1].FullName)

	onlyVerified := true
	rows, total, err = repo.List(ctx, ListFilters{ProductID: &product.ID, Verified: &onlyVerified}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, rows, 1)

	all, total, err := repo.List(ctx, ListFilters{}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)
}

func TestUpdateMissingReview(t *testing.T) {
	repo := NewRepository(sqlitetest.Open(t))
	err := repo.SetAdminResponse(context.Background(), uuid.New(), "thanks")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
