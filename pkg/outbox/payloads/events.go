package payloads

import (
	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// OrderLine is the per-product part of an order event.
type OrderLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
}

// OrderCreatedEvent is emitted by buy-now and cart checkout.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID   `json:"order_id"`
	UserID      uuid.UUID   `json:"user_id"`
	TotalAmount int64       `json:"total_amount"`
	Source      string      `json:"source"`
	Items       []OrderLine `json:"items"`
}

// OrderCanceledEvent is emitted when a buyer cancels a pending or confirmed order.
type OrderCanceledEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	UserID         uuid.UUID         `json:"user_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
}

// OrderStatusChangedEvent is emitted by admin status transitions.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// ProductRating is the recomputed aggregate of one product.
type ProductRating struct {
	ProductID uuid.UUID `json:"product_id"`
	Rating    float64   `json:"rating"`
	Reviews   int       `json:"reviews"`
}

// OrderRatedEvent is emitted once per order when the buyer submits a rating.
type OrderRatedEvent struct {
	OrderID  uuid.UUID       `json:"order_id"`
	UserID   uuid.UUID       `json:"user_id"`
	Rating   int             `json:"rating"`
	Products []ProductRating `json:"products"`
}

// ReviewCreatedEvent is emitted when a product review or review comment is stored.
type ReviewCreatedEvent struct {
	ReviewID  uuid.UUID  `json:"review_id"`
	ProductID uuid.UUID  `json:"product_id"`
	UserID    uuid.UUID  `json:"user_id"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	Rating    *int       `json:"rating,omitempty"`
	Verified  bool       `json:"verified"`
}
