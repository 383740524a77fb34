package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CartView is the cart payload with totals and counts.
type CartView struct {
	ID            uuid.UUID        `json:"id"`
	Status        enums.CartStatus `json:"status"`
	Items         []CartLine       `json:"items"`
	Total         int64            `json:"total"`
	SelectedTotal int64            `json:"selected_total"`
	ItemCount     int              `json:"item_count"`
	SelectedCount int              `json:"selected_count"`
}

// Service exposes owner-scoped cart operations.
type Service interface {
	View(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (uuid.UUID, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	ToggleSelection(ctx context.Context, userID, itemID uuid.UUID, selected bool) error
	SelectAll(ctx context.Context, userID uuid.UUID) error
	UnselectAll(ctx context.Context, userID uuid.UUID) error
	UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) View(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	if items == nil {
		items = []CartLine{}
	}
	total, err := s.repo.GetCartTotal(ctx, cart.ID, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum cart")
	}
	selectedTotal, err := s.repo.GetCartTotal(ctx, cart.ID, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum selected items")
	}
	itemCount, err := s.repo.GetCartItemCount(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count cart items")
	}
	selectedCount, err := s.repo.GetSelectedItemCount(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count selected items")
	}
	return &CartView{
		ID:            cart.ID,
		Status:        cart.Status,
		Items:         items,
		Total:         total,
		SelectedTotal: selectedTotal,
		ItemCount:     itemCount,
		SelectedCount: selectedCount,
	}, nil
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (uuid.UUID, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "Sản phẩm không tồn tại")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.InStock {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodePolicy, "Sản phẩm đã hết hàng")
	}
	if quantity <= 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "Số lượng không hợp lệ")
	}

	cart, err := s.cart(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	item, err := s.repo.AddItem(ctx, cart.ID, product.ID, quantity, product.Price)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}
	return item.ID, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if err := s.ensureOwner(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.repo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	return nil
}

func (s *service) ToggleSelection(ctx context.Context, userID, itemID uuid.UUID, selected bool) error {
	if err := s.ensureOwner(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.repo.ToggleItemSelection(ctx, itemID, selected); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggle cart item")
	}
	return nil
}

func (s *service) SelectAll(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.cart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.SelectAllItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "select cart items")
	}
	return nil
}

func (s *service) UnselectAll(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.cart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.UnselectAllItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unselect cart items")
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, userID uuid.UUID, raw string) error {
	status, err := enums.ParseCartStatus(raw)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Trạng thái không hợp lệ")
	}
	cart, err := s.cart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateCartStatus(ctx, cart.ID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart status")
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.ensureOwner(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.repo.RemoveItem(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.cart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.ClearCart(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) cart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

// ensureOwner reports a missing item the same way as a foreign one. Items of
// a closed cart are treated as foreign too.
func (s *service) ensureOwner(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.repo.GetCartItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "Không có quyền")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	if item.UserID != userID || item.CartStatus != enums.CartStatusActive {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Không có quyền")
	}
	return nil
}
