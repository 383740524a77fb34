package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// ProductReview is verified when it is tied to a purchase order.
type ProductReview struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID          `gorm:"column:product_id;type:uuid;not null"`
	UserID        uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	OrderID       *uuid.UUID         `gorm:"column:order_id;type:uuid"`
	Content       string             `gorm:"column:content;not null"`
	Rating        *int               `gorm:"column:rating"`
	Verified      bool               `gorm:"column:verified;not null;default:false"`
	Status        enums.ReviewStatus `gorm:"column:status;type:review_status;not null;default:'approved'"`
	AdminResponse *string            `gorm:"column:admin_response"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
