package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

// OrderSummary is an order row with its item count, used by listings.
type OrderSummary struct {
	ID            uuid.UUID           `gorm:"column:id" json:"id"`
	UserID        uuid.UUID           `gorm:"column:user_id" json:"user_id"`
	UserEmail     *string             `gorm:"column:user_email" json:"user_email,omitempty"`
	FullName      string              `gorm:"column:full_name" json:"full_name"`
	Email         string              `gorm:"column:email" json:"email"`
	Phone         string              `gorm:"column:phone" json:"phone"`
	Province      string              `gorm:"column:province" json:"province"`
	District      string              `gorm:"column:district" json:"district"`
	Ward          string              `gorm:"column:ward" json:"ward"`
	AddressDetail string              `gorm:"column:address_detail" json:"address_detail"`
	Note          *string             `gorm:"column:note" json:"note,omitempty"`
	TotalAmount   int64               `gorm:"column:total_amount" json:"total_amount"`
	Status        enums.OrderStatus   `gorm:"column:status" json:"status"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status" json:"payment_status"`
	Rate          bool                `gorm:"column:rate" json:"rate"`
	TotalItems    int                 `gorm:"column:total_items" json:"total_items"`
	CreatedAt     time.Time           `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at" json:"updated_at"`
}

// OrderItemDTO is one line of an order detail.
type OrderItemDTO struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
	Subtotal    int64     `json:"subtotal"`
}

// OrderDetail is a full order with its items.
type OrderDetail struct {
	OrderSummary
	Items []OrderItemDTO `json:"items"`
}

// OrderListResult is one page of orders.
type OrderListResult struct {
	Orders     []OrderSummary  `json:"orders"`
	Pagination pagination.Meta `json:"pagination"`
}

// StatusStatistics is the per-status block of Statistics.
type StatusStatistics struct {
	Count       int64 `json:"count"`
	TotalAmount int64 `json:"total_amount"`
}

// Statistics summarizes a user's orders.
type Statistics struct {
	TotalOrders int64                                  `json:"total_orders"`
	TotalAmount int64                                  `json:"total_amount"`
	ByStatus    map[enums.OrderStatus]StatusStatistics `json:"by_status"`
}

func toDetail(order *models.Order) *OrderDetail {
	detail := &OrderDetail{
		OrderSummary: OrderSummary{
			ID:            order.ID,
			UserID:        order.UserID,
			FullName:      order.FullName,
			Email:         order.Email,
			Phone:         order.Phone,
			Province:      order.Province,
			District:      order.District,
			Ward:          order.Ward,
			AddressDetail: order.AddressDetail,
			Note:          order.Note,
			TotalAmount:   order.TotalAmount,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
			Rate:          order.Rate,
			TotalItems:    len(order.Items),
			CreatedAt:     order.CreatedAt,
			UpdatedAt:     order.UpdatedAt,
		},
		Items: make([]OrderItemDTO, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		detail.Items = append(detail.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal,
		})
	}
	return detail
}
