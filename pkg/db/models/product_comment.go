package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// ProductComment is a threaded discussion entry on a product page.
type ProductComment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	ParentID  *uuid.UUID          `gorm:"column:parent_id;type:uuid"`
	Content   string              `gorm:"column:content;not null"`
	Rating    *float64            `gorm:"column:rating;type:numeric(2,1)"`
	Verified  bool                `gorm:"column:verified;not null;default:false"`
	Status    enums.CommentStatus `gorm:"column:status;type:comment_status;not null;default:'active'"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
