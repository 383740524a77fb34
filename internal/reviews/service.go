package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/db"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

const (
	EditWindowDays = 30
	DeleteWindow   = 7 * 24 * time.Hour

	productListDefault = 20
	productListMax     = 50

	uniqueVerifiedIndex = "ux_product_reviews_verified_user_product"
)

const (
	msgReviewNotFound   = "Không tìm thấy đánh giá này"
	msgProductNotFound  = "Sản phẩm không tồn tại"
	msgContentRequired  = "content là bắt buộc"
	msgRatingRange      = "Rating phải từ 1-5"
	msgRatingRequired   = "Review phải có rating"
	msgPurchaseRating   = "Review sản phẩm cần có rating"
	msgAlreadyReviewed  = "Bạn đã đánh giá sản phẩm này rồi"
	msgNotOwner         = "Bạn không có quyền chỉnh sửa đánh giá này"
	msgEditUnverified   = "Chỉ có thể chỉnh sửa đánh giá của sản phẩm đã mua. Bình luận thường không thể chỉnh sửa."
	msgEditExpired      = "Đã quá thời hạn chỉnh sửa (30 ngày). Đánh giá của bạn đã đăng được %d ngày."
	msgDeleteForbidden  = "Bạn chỉ có thể xóa review trong vòng 7 ngày kể từ khi đăng"
	msgInvalidStatus    = "Trạng thái không hợp lệ"
	msgResponseRequired = "Nội dung phản hồi là bắt buộc"

	MsgReviewSubmitted  = "Đánh giá của bạn đã được gửi"
	MsgCommentSubmitted = "Bình luận của bạn đã được gửi"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// purchaseHistory resolves the order that verifies a review.
type purchaseHistory interface {
	LatestPurchaseOrder(ctx context.Context, userID, productID uuid.UUID) (*uuid.UUID, error)
}

// Service implements verified reviews with their edit and delete windows.
type Service interface {
	CreateReview(ctx context.Context, input CreateInput) (*models.ProductReview, error)
	Submit(ctx context.Context, productID, userID uuid.UUID, content string, rating *int) (*SubmitResult, error)
	UpdateUserReview(ctx context.Context, reviewID, userID uuid.UUID, content string, rating *int) (*EditWindow, error)
	DeleteUserReview(ctx context.Context, reviewID, userID uuid.UUID) error
	CanEdit(ctx context.Context, reviewID, userID uuid.UUID) (*EditEligibility, error)
	GetAverageRating(ctx context.Context, productID uuid.UUID) (*AverageRating, error)
	GetRatingDistribution(ctx context.Context, productID uuid.UUID) (Distribution, error)
	ListProductReviews(ctx context.Context, productID uuid.UUID, verified *bool, page pagination.Params) (*ProductReviews, error)
	ListAll(ctx context.Context, filters ListFilters, page pagination.Params) (*ReviewListResult, error)
	UpdateStatus(ctx context.Context, reviewID uuid.UUID, status string) error
	AddAdminResponse(ctx context.Context, reviewID uuid.UUID, response string) error
}

type service struct {
	repo      *Repository
	tx        txRunner
	outbox    outboxPublisher
	products  productLoader
	purchases purchaseHistory
	logg      *logger.Logger
	metrics   *metrics.CommerceMetrics
	now       func() time.Time
}

// NewService builds the review service. metrics may be nil.
func NewService(
	repo *Repository,
	tx txRunner,
	publisher outboxPublisher,
	products productLoader,
	purchases purchaseHistory,
	logg *logger.Logger,
	m *metrics.CommerceMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if purchases == nil {
		return nil, fmt.Errorf("purchase history required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    publisher,
		products:  products,
		purchases: purchases,
		logg:      logg,
		metrics:   m,
		now:       time.Now,
	}, nil
}

func validateRating(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return pkgerrors.New(pkgerrors.CodeValidation, msgRatingRange).
			WithDetails(map[string]any{"rating": *rating})
	}
	return nil
}

// daysSince counts whole elapsed days, never negative.
func daysSince(now, createdAt time.Time) int {
	elapsed := now.Sub(createdAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

func (s *service) CreateReview(ctx context.Context, input CreateInput) (*models.ProductReview, error) {
	verified := input.OrderID != nil
	if verified && input.Rating == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgRatingRequired)
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if verified {
		exists, err := s.repo.HasVerifiedReview(ctx, input.UserID, input.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing review")
		}
		if exists {
			return nil, pkgerrors.New(pkgerrors.CodePolicy, msgAlreadyReviewed)
		}
	}

	review := &models.ProductReview{
		ProductID: input.ProductID,
		UserID:    input.UserID,
		OrderID:   input.OrderID,
		Content:   input.Content,
		Rating:    input.Rating,
		Verified:  verified,
		Status:    enums.ReviewStatusApproved,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, review); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewCreated,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: payloads.ReviewCreatedEvent{
				ReviewID:  review.ID,
				ProductID: review.ProductID,
				UserID:    review.UserID,
				OrderID:   review.OrderID,
				Rating:    review.Rating,
				Verified:  review.Verified,
			},
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, uniqueVerifiedIndex) {
			return nil, pkgerrors.New(pkgerrors.CodePolicy, msgAlreadyReviewed)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}

	kind := "comment"
	if verified {
		kind = "review"
	}
	s.metrics.ReviewCreated(kind)
	return review, nil
}

// Submit verifies the purchase itself: a buyer gets a verified review tied to
// the latest purchase, anyone else an unverified comment.
func (s *service) Submit(ctx context.Context, productID, userID uuid.UUID, content string, rating *int) (*SubmitResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgContentRequired).
			WithDetails(map[string]any{"field": "content"})
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	orderID, err := s.purchases.LatestPurchaseOrder(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if orderID != nil && rating == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgPurchaseRating)
	}

	review, err := s.CreateReview(ctx, CreateInput{
		ProductID: productID,
		UserID:    userID,
		Content:   content,
		Rating:    rating,
		OrderID:   orderID,
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{ReviewID: review.ID, Verified: review.Verified, Message: MsgCommentSubmitted}
	if review.Verified {
		result.Message = MsgReviewSubmitted
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"review_id": review.ID.String(), "verified": review.Verified})
	s.logg.Info(logCtx, "reviews.submitted")
	return result, nil
}

func (s *service) loadReview(ctx context.Context, reviewID uuid.UUID) (*models.ProductReview, error) {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgReviewNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review")
	}
	return review, nil
}

func (s *service) UpdateUserReview(ctx context.Context, reviewID, userID uuid.UUID, content string, rating *int) (*EditWindow, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgContentRequired).
			WithDetails(map[string]any{"field": "content"})
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}

	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgNotOwner)
	}
	if !review.Verified {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgEditUnverified)
	}
	days := daysSince(s.now(), review.CreatedAt)
	if days > EditWindowDays {
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, msgEditExpired, days).
			WithDetails(map[string]any{"days_passed": days})
	}

	if err := s.repo.UpdateContent(ctx, review.ID, content, rating); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update review")
	}
	return &EditWindow{DaysPassed: days, DaysRemaining: EditWindowDays - days}, nil
}

func (s *service) DeleteUserReview(ctx context.Context, reviewID, userID uuid.UUID) error {
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != userID || !review.Verified || s.now().Sub(review.CreatedAt) >= DeleteWindow {
		return pkgerrors.New(pkgerrors.CodeForbidden, msgDeleteForbidden)
	}
	if err := s.repo.Delete(ctx, review.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete review")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"review_id": review.ID.String()})
	s.logg.Info(logCtx, "reviews.deleted")
	return nil
}

func (s *service) CanEdit(ctx context.Context, reviewID, userID uuid.UUID) (*EditEligibility, error) {
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	days := daysSince(s.now(), review.CreatedAt)
	deny := func(reason string) *EditEligibility {
		return &EditEligibility{CanEdit: false, Reason: &reason, DaysPassed: days}
	}
	switch {
	case review.UserID != userID:
		return deny(msgNotOwner), nil
	case !review.Verified:
		return deny(msgEditUnverified), nil
	case days > EditWindowDays:
		return deny(fmt.Sprintf(msgEditExpired, days)), nil
	}
	remaining := EditWindowDays - days
	return &EditEligibility{CanEdit: true, DaysPassed: days, DaysRemaining: &remaining}, nil
}

func (s *service) GetAverageRating(ctx context.Context, productID uuid.UUID) (*AverageRating, error) {
	totals, err := s.repo.RatingTotals(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "average rating")
	}
	if totals.Count == 0 {
		return &AverageRating{}, nil
	}
	avg := decimal.NewFromInt(totals.Sum).
		DivRound(decimal.NewFromInt(totals.Count), 4).
		Round(1)
	return &AverageRating{Average: avg.InexactFloat64(), Count: totals.Count}, nil
}

func (s *service) GetRatingDistribution(ctx context.Context, productID uuid.UUID) (Distribution, error) {
	rows, err := s.repo.RatingCounts(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rating distribution")
	}
	return buildDistribution(rows), nil
}

func buildDistribution(rows []RatingCount) Distribution {
	dist := make(Distribution, 5)
	for star := 5; star >= 1; star-- {
		dist[star] = Bucket{}
	}
	var total int64
	for _, row := range rows {
		total += row.Count
	}
	if total == 0 {
		return dist
	}
	hundred := decimal.NewFromInt(100)
	for _, row := range rows {
		if row.Rating < 1 || row.Rating > 5 {
			continue
		}
		pct := decimal.NewFromInt(row.Count).Mul(hundred).
			DivRound(decimal.NewFromInt(total), 4).
			Round(1)
		dist[row.Rating] = Bucket{Count: row.Count, Percentage: pct.InexactFloat64()}
	}
	return dist
}

func (s *service) ListProductReviews(ctx context.Context, productID uuid.UUID, verified *bool, page pagination.Params) (*ProductReviews, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	page = pagination.Normalize(page, productListDefault, productListMax)
	approved := enums.ReviewStatusApproved
	rows, total, err := s.repo.List(ctx, ListFilters{ProductID: &productID, Verified: verified, Status: &approved}, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	avg, err := s.GetAverageRating(ctx, productID)
	if err != nil {
		return nil, err
	}
	dist, err := s.GetRatingDistribution(ctx, productID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []ReviewRow{}
	}
	return &ProductReviews{
		Reviews: rows,
		Stats: Stats{
			AverageRating: avg.Average,
			ReviewCount:   avg.Count,
			TotalComments: total,
			Distribution:  dist,
		},
		Pagination: pagination.NewMeta(page, total),
	}, nil
}

func (s *service) ListAll(ctx context.Context, filters ListFilters, page pagination.Params) (*ReviewListResult, error) {
	page = pagination.Normalize(page, productListDefault, pagination.MaxLimit)
	rows, total, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	if rows == nil {
		rows = []ReviewRow{}
	}
	return &ReviewListResult{Reviews: rows, Pagination: pagination.NewMeta(page, total)}, nil
}

func (s *service) UpdateStatus(ctx context.Context, reviewID uuid.UUID, raw string) error {
	status, err := enums.ParseReviewStatus(strings.TrimSpace(raw))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidStatus)
	}
	if err := s.repo.UpdateStatus(ctx, reviewID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgReviewNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update review status")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"review_id": reviewID.String(), "status": status})
	s.logg.Info(logCtx, "reviews.status_changed")
	return nil
}

func (s *service) AddAdminResponse(ctx context.Context, reviewID uuid.UUID, response string) error {
	response = strings.TrimSpace(response)
	if response == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, msgResponseRequired)
	}
	if err := s.repo.SetAdminResponse(ctx, reviewID, response); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgReviewNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save admin response")
	}
	return nil
}
