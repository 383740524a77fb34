package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots the product name and unit price at order time.
type OrderItem struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ProductName string    `gorm:"column:product_name;not null"`
	Quantity    int       `gorm:"column:quantity;not null"`
	Price       int64     `gorm:"column:price;not null"`
	Subtotal    int64     `gorm:"column:subtotal;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
