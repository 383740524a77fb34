package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/internal/repo"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

// Repository persists product reviews.
type Repository struct {
	base repo.Base
}

// NewRepository builds a review repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

func (r *Repository) Create(ctx context.Context, review *models.ProductReview) error {
	return r.base.DB(ctx).Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductReview, error) {
	var review models.ProductReview
	if err := r.base.DB(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// HasVerifiedReview reports whether the user already holds an approved
// verified review for the product.
func (r *Repository) HasVerifiedReview(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := r.base.DB(ctx).Model(&models.ProductReview{}).
		Where("user_id = ? AND product_id = ? AND verified = ? AND status = ?", userID, productID, true, enums.ReviewStatusApproved).
		Count(&n).Error
	return n > 0, err
}

// UpdateContent rewrites the content and, when rating is set, the rating.
func (r *Repository) UpdateContent(ctx context.Context, id uuid.UUID, content string, rating *int) error {
	updates := map[string]any{"content": content, "updated_at": time.Now().UTC()}
	if rating != nil {
		updates["rating"] = *rating
	}
	return r.update(ctx, id, updates)
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ReviewStatus) error {
	return r.update(ctx, id, map[string]any{"status": status, "updated_at": time.Now().UTC()})
}

func (r *Repository) SetAdminResponse(ctx context.Context, id uuid.UUID, response string) error {
	return r.update(ctx, id, map[string]any{"admin_response": response, "updated_at": time.Now().UTC()})
}

func (r *Repository) update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.base.DB(ctx).Model(&models.ProductReview{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).Where("id = ?", id).Delete(&models.ProductReview{}).Error
}

// RatingTotals covers approved verified reviews that carry a rating.
type RatingTotals struct {
	Sum   int64 `gorm:"column:rating_sum"`
	Count int64 `gorm:"column:rating_count"`
}

// RatingCount is one row of the per-star breakdown.
type RatingCount struct {
	Rating int   `gorm:"column:rating"`
	Count  int64 `gorm:"column:count"`
}

func (r *Repository) ratedScope(productID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("product_id = ? AND verified = ? AND rating IS NOT NULL AND status = ?",
			productID, true, enums.ReviewStatusApproved)
	}
}

func (r *Repository) RatingTotals(ctx context.Context, productID uuid.UUID) (RatingTotals, error) {
	var totals RatingTotals
	err := r.base.DB(ctx).Model(&models.ProductReview{}).
		Scopes(r.ratedScope(productID)).
		Select("COALESCE(SUM(rating), 0) AS rating_sum, COUNT(*) AS rating_count").
		Scan(&totals).Error
	return totals, err
}

func (r *Repository) RatingCounts(ctx context.Context, productID uuid.UUID) ([]RatingCount, error) {
	var rows []RatingCount
	err := r.base.DB(ctx).Model(&models.ProductReview{}).
		Scopes(r.ratedScope(productID)).
		Select("rating, COUNT(*) AS count").
		Group("rating").
		Order("rating DESC").
		Scan(&rows).Error
	return rows, err
}

// ReviewRow is a review joined with its author and product names.
type ReviewRow struct {
	ID            uuid.UUID          `gorm:"column:id" json:"id"`
	ProductID     uuid.UUID          `gorm:"column:product_id" json:"product_id"`
	ProductName   *string            `gorm:"column:product_name" json:"product_name,omitempty"`
	UserID        uuid.UUID          `gorm:"column:user_id" json:"user_id"`
	FullName      *string            `gorm:"column:full_name" json:"full_name,omitempty"`
	OrderID       *uuid.UUID         `gorm:"column:order_id" json:"order_id,omitempty"`
	Content       string             `gorm:"column:content" json:"content"`
	Rating        *int               `gorm:"column:rating" json:"rating"`
	Verified      bool               `gorm:"column:verified" json:"verified"`
	Status        enums.ReviewStatus `gorm:"column:status" json:"status"`
	AdminResponse *string            `gorm:"column:admin_response" json:"admin_response,omitempty"`
	CreatedAt     time.Time          `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"column:updated_at" json:"updated_at"`
}

// ListFilters narrows review listings; every field is optional.
type ListFilters struct {
	ProductID *uuid.UUID
	Verified  *bool
	Status    *enums.ReviewStatus
}

const reviewRowColumns = "r.*, u.full_name AS full_name, p.name AS product_name"

// List returns a page of reviews. Product listings put verified reviews first.
func (r *Repository) List(ctx context.Context, filters ListFilters, page pagination.Params) ([]ReviewRow, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filters.ProductID != nil {
			db = db.Where("r.product_id = ?", *filters.ProductID)
		}
		if filters.Verified != nil {
			db = db.Where("r.verified = ?", *filters.Verified)
		}
		if filters.Status != nil {
			db = db.Where("r.status = ?", *filters.Status)
		}
		return db
	}

	var total int64
	if err := r.base.DB(ctx).Table("product_reviews AS r").Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.base.DB(ctx).
		Table("product_reviews AS r").
		Select(reviewRowColumns).
		Joins("LEFT JOIN users u ON u.id = r.user_id").
		Joins("LEFT JOIN products p ON p.id = r.product_id").
		Scopes(scope)
	if filters.ProductID != nil {
		query = query.Order("r.verified DESC")
	}
	var rows []ReviewRow
	err := query.
		Order("r.created_at DESC").
		Order("r.id DESC").
		Scopes(repo.Paginate(page)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
