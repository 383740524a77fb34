package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

// Repository defines the persistence surface for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filters ListFilters, page pagination.Params) ([]OrderSummary, int64, error)
	Statistics(ctx context.Context, userID uuid.UUID) ([]StatusTotal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (int64, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
	MarkRated(ctx context.Context, id uuid.UUID) (int64, error)
	DistinctProductIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error)
	LatestPurchaseOrder(ctx context.Context, userID, productID uuid.UUID) (*models.Order, error)
}

// ListFilters narrows order listings. A nil UserID lists every user's orders.
type ListFilters struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
}

// StatusTotal aggregates orders sharing one status.
type StatusTotal struct {
	Status      enums.OrderStatus `gorm:"column:status"`
	Count       int64             `gorm:"column:count"`
	TotalAmount int64             `gorm:"column:total_amount"`
}
