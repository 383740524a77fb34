package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/checkout/helpers"
	"github.com/storefront-labs/storefront-backend/internal/orders"
	pkgcheckout "github.com/storefront-labs/storefront-backend/pkg/checkout"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
)

const (
	SourceBuyNow = "buy_now"
	SourceCart   = "cart"

	msgCreateFailed = "Không thể tạo đơn hàng"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service turns a single product or the selected cart lines into an order.
type Service interface {
	BuyNow(ctx context.Context, userID, productID uuid.UUID, quantity int, shipping pkgcheckout.ShippingInfo) (*Result, error)
	CheckoutSelectedItems(ctx context.Context, userID uuid.UUID, shipping pkgcheckout.ShippingInfo, itemIDs []uuid.UUID) (*Result, error)
}

// Result identifies the created order.
type Result struct {
	OrderID     uuid.UUID `json:"order_id"`
	TotalAmount int64     `json:"total_amount"`
}

type service struct {
	tx         txRunner
	cartRepo   cart.CartRepository
	ordersRepo orders.Repository
	products   productLoader
	outbox     outboxPublisher
	logg       *logger.Logger
	metrics    *metrics.CommerceMetrics
}

// NewService builds the checkout service. metrics may be nil.
func NewService(
	tx txRunner,
	cartRepo cart.CartRepository,
	ordersRepo orders.Repository,
	products productLoader,
	publisher outboxPublisher,
	logg *logger.Logger,
	m *metrics.CommerceMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:         tx,
		cartRepo:   cartRepo,
		ordersRepo: ordersRepo,
		products:   products,
		outbox:     publisher,
		logg:       logg,
		metrics:    m,
	}, nil
}

func (s *service) BuyNow(ctx context.Context, userID, productID uuid.UUID, quantity int, shipping pkgcheckout.ShippingInfo) (*Result, error) {
	shipping = shipping.Normalize()
	if err := pkgcheckout.ValidateShipping(shipping); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, helpers.MsgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if err := helpers.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	if !product.InStock {
		return nil, pkgerrors.New(pkgerrors.CodePolicy, helpers.MsgOutOfStock)
	}

	lines := []helpers.Line{helpers.LineFromProduct(product, quantity)}
	return s.place(ctx, userID, shipping, SourceBuyNow, func(*gorm.DB) ([]helpers.Line, *uuid.UUID, error) {
		return lines, nil, nil
	})
}

// CheckoutSelectedItems orders exactly itemIDs when given, otherwise every
// selected line of the active cart. The cart is read inside the order
// transaction so the lines ordered are the lines drained.
func (s *service) CheckoutSelectedItems(ctx context.Context, userID uuid.UUID, shipping pkgcheckout.ShippingInfo, itemIDs []uuid.UUID) (*Result, error) {
	shipping = shipping.Normalize()
	if err := pkgcheckout.ValidateShipping(shipping); err != nil {
		return nil, err
	}

	return s.place(ctx, userID, shipping, SourceCart, func(tx *gorm.DB) ([]helpers.Line, *uuid.UUID, error) {
		cartRepo := s.cartRepo.WithTx(tx)
		record, err := cartRepo.FindActiveCart(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, pkgerrors.New(pkgerrors.CodePolicy, helpers.MsgEmptySelection)
			}
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}

		var items []cart.CartLine
		if len(itemIDs) > 0 {
			all, err := cartRepo.GetCartItems(ctx, record.ID)
			if err != nil {
				return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
			}
			items = helpers.FilterByIDs(all, itemIDs)
		} else {
			items, err = cartRepo.GetSelectedItems(ctx, record.ID)
			if err != nil {
				return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load selected items")
			}
		}

		lines := helpers.LinesFromCart(items)
		if err := helpers.ValidateCartLines(lines); err != nil {
			return nil, nil, err
		}
		return lines, &record.ID, nil
	})
}

// lineLoader yields the lines to order and, for cart checkouts, the cart to
// drain. It runs inside the order transaction; its errors reach the caller
// unchanged.
type lineLoader func(tx *gorm.DB) ([]helpers.Line, *uuid.UUID, error)

func (s *service) place(ctx context.Context, userID uuid.UUID, shipping pkgcheckout.ShippingInfo, source string, load lineLoader) (*Result, error) {
	order := &models.Order{
		UserID:        userID,
		FullName:      shipping.FullName,
		Email:         shipping.Email,
		Phone:         shipping.Phone,
		Province:      shipping.Province,
		District:      shipping.District,
		Ward:          shipping.Ward,
		AddressDetail: shipping.AddressDetail,
		Note:          shipping.Note,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusUnpaid,
	}

	var (
		lines    []helpers.Line
		rejected error
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var cartID *uuid.UUID
		var err error
		lines, cartID, err = load(tx)
		if err != nil {
			rejected = err
			return err
		}
		order.TotalAmount = helpers.ComputeTotal(lines)

		ordersRepo := s.ordersRepo.WithTx(tx)
		if err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := ordersRepo.CreateOrderItems(ctx, helpers.BuildOrderItems(order.ID, lines)); err != nil {
			return err
		}
		if err := s.emitOrderCreated(ctx, tx, order, lines, source); err != nil {
			return err
		}
		if cartID == nil {
			return nil
		}
		return drainCart(ctx, s.cartRepo.WithTx(tx), *cartID, helpers.CartItemIDs(lines))
	})
	if rejected != nil {
		return nil, rejected
	}
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "source": source})
		s.logg.Error(logCtx, "checkout.create_order_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgCreateFailed).Public()
	}

	total := order.TotalAmount
	s.metrics.OrderPlaced(source, total)
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"source":       source,
		"total_amount": total,
		"items":        len(lines),
	})
	s.logg.Info(logCtx, "checkout.order_created")
	return &Result{OrderID: order.ID, TotalAmount: total}, nil
}

// drainCart removes the ordered rows and closes the cart once nothing is left.
func drainCart(ctx context.Context, repo cart.CartRepository, cartID uuid.UUID, itemIDs []uuid.UUID) error {
	if err := repo.RemoveSelectedItems(ctx, cartID, itemIDs); err != nil {
		return err
	}
	remaining, err := repo.GetCartItemCount(ctx, cartID)
	if err != nil {
		return err
	}
	if remaining > 0 {
		return nil
	}
	return repo.UpdateCartStatus(ctx, cartID, enums.CartStatusCheckedOut)
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order, lines []helpers.Line, source string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID},
		Data: payloads.OrderCreatedEvent{
			OrderID:     order.ID,
			UserID:      order.UserID,
			TotalAmount: order.TotalAmount,
			Source:      source,
			Items:       helpers.EventLines(lines),
		},
	})
}
