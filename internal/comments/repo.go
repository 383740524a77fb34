package comments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/internal/repo"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// Repository persists product comments.
type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{base: r.base.WithTx(tx)}
}

func (r *Repository) Create(ctx context.Context, comment *models.ProductComment) error {
	return r.base.DB(ctx).Create(comment).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductComment, error) {
	var comment models.ProductComment
	if err := r.base.DB(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// CommentRow is an active comment with its author's display name.
type CommentRow struct {
	ID        uuid.UUID  `gorm:"column:id"`
	ProductID uuid.UUID  `gorm:"column:product_id"`
	UserID    uuid.UUID  `gorm:"column:user_id"`
	UserName  *string    `gorm:"column:user_name"`
	ParentID  *uuid.UUID `gorm:"column:parent_id"`
	Content   string     `gorm:"column:content"`
	Rating    *float64   `gorm:"column:rating"`
	Verified  bool       `gorm:"column:verified"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

// ListActive returns the product's visible comments, newest first.
func (r *Repository) ListActive(ctx context.Context, productID uuid.UUID) ([]CommentRow, error) {
	var rows []CommentRow
	err := r.base.DB(ctx).
		Table("product_comments AS c").
		Select("c.id, c.product_id, c.user_id, u.full_name AS user_name, c.parent_id, c.content, c.rating, c.verified, c.created_at").
		Joins("LEFT JOIN users u ON u.id = c.user_id").
		Where("c.product_id = ? AND c.status = ?", productID, enums.CommentStatusActive).
		Order("c.created_at DESC").
		Order("c.id DESC").
		Scan(&rows).Error
	return rows, err
}

// ChildIDs returns the ids of live replies to any of parentIDs.
func (r *Repository) ChildIDs(ctx context.Context, parentIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.base.DB(ctx).Model(&models.ProductComment{}).
		Where("parent_id IN ? AND status <> ?", parentIDs, enums.CommentStatusDeleted).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *Repository) MarkDeleted(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.base.DB(ctx).Model(&models.ProductComment{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"status": enums.CommentStatusDeleted, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}
