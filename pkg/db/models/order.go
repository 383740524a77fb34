package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// Order is created once at checkout together with its items. TotalAmount is
// never recomputed after creation.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	FullName      string              `gorm:"column:full_name;not null"`
	Email         string              `gorm:"column:email;not null"`
	Phone         string              `gorm:"column:phone;not null"`
	Province      string              `gorm:"column:province;not null"`
	District      string              `gorm:"column:district;not null"`
	Ward          string              `gorm:"column:ward;not null"`
	AddressDetail string              `gorm:"column:address_detail;not null"`
	Note          *string             `gorm:"column:note"`
	TotalAmount   int64               `gorm:"column:total_amount;not null"`
	Status        enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	Rate          bool                `gorm:"column:rate;not null;default:false"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
