package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// CartRepository defines the persistence surface shared by the cart service,
// checkout and the abandoned-cart job.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int, price int64) (*models.CartItem, error)
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	ToggleItemSelection(ctx context.Context, itemID uuid.UUID, selected bool) error
	SelectAllItems(ctx context.Context, cartID uuid.UUID) error
	UnselectAllItems(ctx context.Context, cartID uuid.UUID) error
	GetCartItems(ctx context.Context, cartID uuid.UUID) ([]CartLine, error)
	GetSelectedItems(ctx context.Context, cartID uuid.UUID) ([]CartLine, error)
	GetCartItemByID(ctx context.Context, itemID uuid.UUID) (*OwnedCartItem, error)
	RemoveItem(ctx context.Context, itemID uuid.UUID) error
	RemoveSelectedItems(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
	UpdateCartStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
	GetCartTotal(ctx context.Context, cartID uuid.UUID, selectedOnly bool) (int64, error)
	GetCartItemCount(ctx context.Context, cartID uuid.UUID) (int, error)
	GetSelectedItemCount(ctx context.Context, cartID uuid.UUID) (int, error)
	MarkAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CartLine is a cart item joined with the product fields shown in the cart.
type CartLine struct {
	ID         uuid.UUID `gorm:"column:id" json:"id"`
	CartID     uuid.UUID `gorm:"column:cart_id" json:"cart_id"`
	ProductID  uuid.UUID `gorm:"column:product_id" json:"product_id"`
	Quantity   int       `gorm:"column:quantity" json:"quantity"`
	Price      int64     `gorm:"column:price" json:"price"`
	IsSelected bool      `gorm:"column:is_selected" json:"is_selected"`
	Subtotal   int64     `gorm:"column:subtotal" json:"subtotal"`
	Name       string    `gorm:"column:name" json:"name"`
	ImageURL   *string   `gorm:"column:image_url" json:"image_url,omitempty"`
	InStock    bool      `gorm:"column:in_stock" json:"in_stock"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

// OwnedCartItem carries the owning user and status of the item's cart.
type OwnedCartItem struct {
	models.CartItem
	UserID     uuid.UUID        `gorm:"column:user_id"`
	CartStatus enums.CartStatus `gorm:"column:cart_status"`
}
