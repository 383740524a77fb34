package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront-labs/storefront-backend/internal/repo"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

const cartLineColumns = `ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.price, ci.is_selected,
ci.quantity * ci.price AS subtotal, ci.created_at, p.name, p.image_url, p.in_stock`

// Repository implements CartRepository on GORM.
type Repository struct {
	base repo.Base
}

// NewRepository builds a cart repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{base: r.base.WithTx(tx)}
}

// GetOrCreateCart returns the user's active cart, creating it when missing.
// Concurrent callers converge on one row through the partial unique index.
func (r *Repository) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.findActive(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := models.Cart{UserID: userID, Status: enums.CartStatusActive}
	if err := r.base.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, err
	}
	return r.findActive(ctx, userID)
}

// FindActiveCart returns the user's active cart without creating one.
// gorm.ErrRecordNotFound when the user has none.
func (r *Repository) FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.findActive(ctx, userID)
}

func (r *Repository) findActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.base.DB(ctx).
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem inserts the product line or, when present, adds to its quantity,
// refreshes the price to the supplied catalog price and reselects it.
func (r *Repository) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int, price int64) (*models.CartItem, error) {
	now := time.Now().UTC()
	item := models.CartItem{
		CartID:     cartID,
		ProductID:  productID,
		Quantity:   quantity,
		Price:      price,
		IsSelected: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := r.base.DB(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":    gorm.Expr("cart_items.quantity + excluded.quantity"),
			"price":       gorm.Expr("excluded.price"),
			"is_selected": true,
			"updated_at":  now,
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, err
	}

	var stored models.CartItem
	if err := r.base.DB(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// UpdateItemQuantity sets the quantity; zero or less removes the line.
func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return r.RemoveItem(ctx, itemID)
	}
	return r.base.DB(ctx).Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()}).Error
}

func (r *Repository) ToggleItemSelection(ctx context.Context, itemID uuid.UUID, selected bool) error {
	return r.base.DB(ctx).Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"is_selected": selected, "updated_at": time.Now().UTC()}).Error
}

func (r *Repository) SelectAllItems(ctx context.Context, cartID uuid.UUID) error {
	return r.setSelection(ctx, cartID, true)
}

func (r *Repository) UnselectAllItems(ctx context.Context, cartID uuid.UUID) error {
	return r.setSelection(ctx, cartID, false)
}

func (r *Repository) setSelection(ctx context.Context, cartID uuid.UUID, selected bool) error {
	return r.base.DB(ctx).Model(&models.CartItem{}).
		Where("cart_id = ?", cartID).
		Updates(map[string]any{"is_selected": selected, "updated_at": time.Now().UTC()}).Error
}

// GetCartItems lists every line, newest first.
func (r *Repository) GetCartItems(ctx context.Context, cartID uuid.UUID) ([]CartLine, error) {
	return r.lines(ctx, cartID, false)
}

// GetSelectedItems lists selected lines, newest first.
func (r *Repository) GetSelectedItems(ctx context.Context, cartID uuid.UUID) ([]CartLine, error) {
	return r.lines(ctx, cartID, true)
}

func (r *Repository) lines(ctx context.Context, cartID uuid.UUID, selectedOnly bool) ([]CartLine, error) {
	query := r.base.DB(ctx).
		Table("cart_items AS ci").
		Select(cartLineColumns).
		Joins("JOIN products p ON p.id = ci.product_id").
		Where("ci.cart_id = ?", cartID)
	if selectedOnly {
		query = query.Where("ci.is_selected = ?", true)
	}
	var lines []CartLine
	if err := query.Order("ci.created_at DESC").Order("ci.id DESC").Scan(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *Repository) GetCartItemByID(ctx context.Context, itemID uuid.UUID) (*OwnedCartItem, error) {
	var item OwnedCartItem
	res := r.base.DB(ctx).
		Table("cart_items AS ci").
		Select("ci.*, c.user_id, c.status AS cart_status").
		Joins("JOIN carts c ON c.id = ci.cart_id").
		Where("ci.id = ?", itemID).
		Limit(1).
		Scan(&item)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (r *Repository) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	return r.base.DB(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

// RemoveSelectedItems deletes exactly itemIDs when given, otherwise every
// selected line of the cart.
func (r *Repository) RemoveSelectedItems(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error {
	query := r.base.DB(ctx).Where("cart_id = ?", cartID)
	if len(itemIDs) > 0 {
		query = query.Where("id IN ?", itemIDs)
	} else {
		query = query.Where("is_selected = ?", true)
	}
	return query.Delete(&models.CartItem{}).Error
}

func (r *Repository) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	return r.base.DB(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

func (r *Repository) UpdateCartStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid cart status %q", status)
	}
	return r.base.DB(ctx).Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

// GetCartTotal sums quantity x snapshot price.
func (r *Repository) GetCartTotal(ctx context.Context, cartID uuid.UUID, selectedOnly bool) (int64, error) {
	query := r.base.DB(ctx).Model(&models.CartItem{}).Where("cart_id = ?", cartID)
	if selectedOnly {
		query = query.Where("is_selected = ?", true)
	}
	var total int64
	if err := query.Select("COALESCE(SUM(quantity * price), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// GetCartItemCount counts lines, not units.
func (r *Repository) GetCartItemCount(ctx context.Context, cartID uuid.UUID) (int, error) {
	return r.count(ctx, r.base.DB(ctx).Model(&models.CartItem{}).Where("cart_id = ?", cartID))
}

func (r *Repository) GetSelectedItemCount(ctx context.Context, cartID uuid.UUID) (int, error) {
	return r.count(ctx, r.base.DB(ctx).Model(&models.CartItem{}).Where("cart_id = ? AND is_selected = ?", cartID, true))
}

func (r *Repository) count(_ context.Context, query *gorm.DB) (int, error) {
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// MarkAbandonedBefore flags active carts untouched since cutoff, counting
// item activity as a touch.
func (r *Repository) MarkAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.base.DB(ctx).Model(&models.Cart{}).
		Where("status = ? AND updated_at < ?", enums.CartStatusActive, cutoff).
		Where("NOT EXISTS (SELECT 1 FROM cart_items ci WHERE ci.cart_id = carts.id AND ci.updated_at >= ?)", cutoff).
		Updates(map[string]any{"status": enums.CartStatusAbandoned, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}
