package reviews

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	product "github.com/storefront-labs/storefront-backend/internal/products"
	"github.com/storefront-labs/storefront-backend/internal/repo/sqlitetest"
	"github.com/storefront-labs/storefront-backend/pkg/db"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

type stubPurchases struct {
	orders map[uuid.UUID]uuid.UUID
}

func (s stubPurchases) LatestPurchaseOrder(ctx context.Context, userID, productID uuid.UUID) (*uuid.UUID, error) {
	if id, ok := s.orders[userID]; ok {
		return &id, nil
	}
	return nil, nil
}

type reviewFixture struct {
	conn    *gorm.DB
	svc     *service
	product models.Product
	buyer   uuid.UUID
	visitor uuid.UUID
	now     time.Time
}

func newReviewFixture(t *testing.T) reviewFixture {
	t.Helper()
	conn := sqlitetest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "reviews-test", Output: io.Discard})
	buyer := uuid.New()
	svc, err := NewService(
		NewRepository(conn),
		db.NewFromConn(conn),
		outbox.NewService(outbox.NewRepository(conn), logg),
		product.NewRepository(conn),
		stubPurchases{orders: map[uuid.UUID]uuid.UUID{buyer: uuid.New()}},
		logg,
		nil,
	)
	require.NoError(t, err)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	impl := svc.(*service)
	impl.now = func() time.Time { return now }
	return reviewFixture{
		conn:    conn,
		svc:     impl,
		product: sqlitetest.SeedProduct(t, conn, "Rice cooker", 1_500_000, true),
		buyer:   buyer,
		visitor: uuid.New(),
		now:     now,
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code, message string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
	if message != "" {
		assert.Equal(t, message, typed.Message())
	}
}

func TestCreateReviewRules(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	orderID := uuid.New()

	_, err := f.svc.CreateReview(ctx, CreateInput{ProductID: f.product.ID, UserID: f.buyer, Content: "ok", OrderID: &orderID})
	requireCode(t, err, pkgerrors.CodeValidation, msgRatingRequired)

	_, err = f.svc.CreateReview(ctx, CreateInput{ProductID: f.product.ID, UserID: f.buyer, Content: "ok", Rating: intPtr(6), OrderID: &orderID})
	requireCode(t, err, pkgerrors.CodeValidation, msgRatingRange)

	review, err := f.svc.CreateReview(ctx, CreateInput{ProductID: f.product.ID, UserID: f.buyer, Content: "ok", Rating: intPtr(5), OrderID: &orderID})
	require.NoError(t, err)
	assert.True(t, review.Verified)
	assert.Equal(t, enums.ReviewStatusApproved, review.Status)

	_, err = f.svc.CreateReview(ctx, CreateInput{ProductID: f.product.ID, UserID: f.buyer, Content: "again", Rating: intPtr(4), OrderID: &orderID})
	requireCode(t, err, pkgerrors.CodePolicy, msgAlreadyReviewed)

	comment, err := f.svc.CreateReview(ctx, CreateInput{ProductID: f.product.ID, UserID: f.buyer, Content: "follow up"})
	require.NoError(t, err)
	assert.False(t, comment.Verified)

	var events int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventReviewCreated).Count(&events).Error)
	assert.EqualValues(t, 2, events)
}

func TestSubmitVerifiesPurchases(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, uuid.New(), f.buyer, "hello", intPtr(5))
	requireCode(t, err, pkgerrors.CodeNotFound, msgProductNotFound)

	_, err = f.svc.Submit(ctx, f.product.ID, f.buyer, "   ", intPtr(5))
	requireCode(t, err, pkgerrors.CodeValidation, msgContentRequired)

	_, err = f.svc.Submit(ctx, f.product.ID, f.buyer, "great", nil)
	requireCode(t, err, pkgerrors.CodeValidation, msgPurchaseRating)

	result, err := f.svc.Submit(ctx, f.product.ID, f.buyer, "great", intPtr(5))
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, MsgReviewSubmitted, result.Message)

	result, err = f.svc.Submit(ctx, f.product.ID, f.visitor, "does it ship fast?", nil)
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, MsgCommentSubmitted, result.Message)
}

func TestEditWindowBoundary(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	day30 := seedReview(t, f.conn, f.buyer, f.product.ID, true, intPtr(3), f.now.Add(-30*24*time.Hour-time.Hour))
	day31 := seedReview(t, f.conn, f.buyer, uuid.New(), true, intPtr(3), f.now.Add(-31*24*time.Hour))

	window, err := f.svc.UpdateUserReview(ctx, day30.ID, f.buyer, "updated", intPtr(4))
	require.NoError(t, err)
	assert.Equal(t, 30, window.DaysPassed)
	assert.Equal(t, 0, window.DaysRemaining)

	stored, err := f.svc.repo.FindByID(ctx, day30.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", stored.Content)
	require.NotNil(t, stored.Rating)
	assert.Equal(t, 4, *stored.Rating)

	_, err = f.svc.UpdateUserReview(ctx, day31.ID, f.buyer, "too late", intPtr(4))
	requireCode(t, err, pkgerrors.CodeForbidden, "Đã quá thời hạn chỉnh sửa (30 ngày). Đánh giá của bạn đã đăng được 31 ngày.")
	assert.Equal(t, map[string]any{"days_passed": 31}, pkgerrors.As(err).Details())
}

func TestUpdateUserReviewPermissions(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	verified := seedReview(t, f.conn, f.buyer, f.product.ID, true, intPtr(3), f.now)
	comment := seedReview(t, f.conn, f.visitor, f.product.ID, false, nil, f.now)

	_, err := f.svc.UpdateUserReview(ctx, uuid.New(), f.buyer, "x", nil)
	requireCode(t, err, pkgerrors.CodeNotFound, msgReviewNotFound)

	_, err = f.svc.UpdateUserReview(ctx, verified.ID, f.visitor, "x", nil)
	requireCode(t, err, pkgerrors.CodeForbidden, msgNotOwner)

	_, err = f.svc.UpdateUserReview(ctx, comment.ID, f.visitor, "x", nil)
	requireCode(t, err, pkgerrors.CodeForbidden, msgEditUnverified)

	_, err = f.svc.UpdateUserReview(ctx, verified.ID, f.buyer, "x", intPtr(0))
	requireCode(t, err, pkgerrors.CodeValidation, msgRatingRange)
}

func TestDeleteWindow(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	fresh := seedReview(t, f.conn, f.buyer, f.product.ID, true, intPtr(5), f.now.Add(-6*24*time.Hour))
	stale := seedReview(t, f.conn, f.buyer, uuid.New(), true, intPtr(5), f.now.Add(-7*24*time.Hour))
	comment := seedReview(t, f.conn, f.buyer, uuid.New(), false, nil, f.now)

	requireCode(t, f.svc.DeleteUserReview(ctx, fresh.ID, f.visitor), pkgerrors.CodeForbidden, msgDeleteForbidden)
	requireCode(t, f.svc.DeleteUserReview(ctx, stale.ID, f.buyer), pkgerrors.CodeForbidden, msgDeleteForbidden)
	requireCode(t, f.svc.DeleteUserReview(ctx, comment.ID, f.buyer), pkgerrors.CodeForbidden, msgDeleteForbidden)
	requireCode(t, f.svc.DeleteUserReview(ctx, uuid.New(), f.buyer), pkgerrors.CodeNotFound, msgReviewNotFound)

	require.NoError(t, f.svc.DeleteUserReview(ctx, fresh.ID, f.buyer))
	_, err := f.svc.repo.FindByID(ctx, fresh.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCanEdit(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	review := seedReview(t, f.conn, f.buyer, f.product.ID, true, intPtr(5), f.now.Add(-10*24*time.Hour))

	got, err := f.svc.CanEdit(ctx, review.ID, f.buyer)
	require.NoError(t, err)
	assert.True(t, got.CanEdit)
	assert.Equal(t, 10, got.DaysPassed)
	require.NotNil(t, got.DaysRemaining)
	assert.Equal(t, 20, *got.DaysRemaining)

	got, err = f.svc.CanEdit(ctx, review.ID, f.visitor)
	require.NoError(t, err)
	assert.False(t, got.CanEdit)
	require.NotNil(t, got.Reason)
	assert.Equal(t, msgNotOwner, *got.Reason)
}

func TestAverageAndDistribution(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()

	empty, err := f.svc.GetAverageRating(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.Average)
	dist, err := f.svc.GetRatingDistribution(ctx, f.product.ID)
	require.NoError(t, err)
	require.Len(t, dist, 5)
	for star := 1; star <= 5; star++ {
		assert.Equal(t, Bucket{}, dist[star])
	}

	for _, r := range []int{5, 4, 4} {
		seedReview(t, f.conn, uuid.New(), f.product.ID, true, intPtr(r), f.now)
	}
	avg, err := f.svc.GetAverageRating(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.3, avg.Average)
	assert.EqualValues(t, 3, avg.Count)

	dist, err = f.svc.GetRatingDistribution(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, Bucket{Count: 1, Percentage: 33.3}, dist[5])
	assert.Equal(t, Bucket{Count: 2, Percentage: 66.7}, dist[4])
	assert.Equal(t, Bucket{}, dist[1])
}

func TestListProductReviewsStats(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	seedReview(t, f.conn, uuid.New(), f.product.ID, true, intPtr(5), f.now)
	seedReview(t, f.conn, uuid.New(), f.product.ID, false, nil, f.now)

	page, err := f.svc.ListProductReviews(ctx, f.product.ID, nil, pagination.Params{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, page.Reviews, 2)
	assert.Equal(t, productListMax, page.Pagination.ItemsPerPage)
	assert.EqualValues(t, 2, page.Stats.TotalComments)
	assert.EqualValues(t, 1, page.Stats.ReviewCount)
	assert.Equal(t, 5.0, page.Stats.AverageRating)

	_, err = f.svc.ListProductReviews(ctx, uuid.New(), nil, pagination.Params{})
	requireCode(t, err, pkgerrors.CodeNotFound, msgProductNotFound)
}

func TestAdminModeration(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	review := seedReview(t, f.conn, f.buyer, f.product.ID, true, intPtr(2), f.now)

	requireCode(t, f.svc.UpdateStatus(ctx, review.ID, "deleted"), pkgerrors.CodeValidation, msgInvalidStatus)
	requireCode(t, f.svc.UpdateStatus(ctx, uuid.New(), "hidden"), pkgerrors.CodeNotFound, msgReviewNotFound)
	require.NoError(t, f.svc.UpdateStatus(ctx, review.ID, "hidden"))

	requireCode(t, f.svc.AddAdminResponse(ctx, review.ID, "  "), pkgerrors.CodeValidation, msgResponseRequired)
	require.NoError(t, f.svc.AddAdminResponse(ctx, review.ID, "Cam on ban"))

	hidden := enums.ReviewStatusHidden
	list, err := f.svc.ListAll(ctx, ListFilters{Status: &hidden}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Reviews, 1)
	require.NotNil(t, list.Reviews[0].AdminResponse)
	assert.Equal(t, "Cam on ban", *list.Reviews[0].AdminResponse)

	page, err := f.svc.ListProductReviews(ctx, f.product.ID, nil, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Reviews)
}
