package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

const (
	msgOrderNotFound  = "Không tìm thấy đơn hàng"
	msgNotCancellable = "Chỉ có thể hủy đơn hàng đang chờ xử lý hoặc đã xác nhận"
	msgInvalidStatus  = "Trạng thái không hợp lệ"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes order history, cancellation, admin transitions and the
// purchase-history queries used by reviews.
type Service interface {
	Cancel(ctx context.Context, orderID, userID uuid.UUID, role enums.Role) error
	List(ctx context.Context, userID uuid.UUID, status string, page pagination.Params) (*OrderListResult, error)
	Detail(ctx context.Context, orderID, userID uuid.UUID, role enums.Role) (*OrderDetail, error)
	Statistics(ctx context.Context, userID uuid.UUID) (*Statistics, error)
	AdminList(ctx context.Context, status string, page pagination.Params) (*OrderListResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) error
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status string) error
	HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	LatestPurchaseOrder(ctx context.Context, userID, productID uuid.UUID) (*uuid.UUID, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.CommerceMetrics
}

// NewService builds the orders service. metrics may be nil.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger, m *metrics.CommerceMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox, logg: logg, metrics: m}, nil
}

func (s *service) Cancel(ctx context.Context, orderID, userID uuid.UUID, role enums.Role) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if role != enums.RoleAdmin && order.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	if !order.Status.Cancellable() {
		return pkgerrors.New(pkgerrors.CodePolicy, msgNotCancellable).
			WithDetails(map[string]any{"status": order.Status})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		changed, err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID,
			[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusConfirmed},
			enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
		}
		if changed == 0 {
			return pkgerrors.New(pkgerrors.CodePolicy, msgNotCancellable)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: role.String()},
			Data: payloads.OrderCanceledEvent{
				OrderID:        order.ID,
				UserID:         order.UserID,
				PreviousStatus: order.Status,
			},
		})
	})
	if err != nil {
		return err
	}

	s.metrics.OrderCanceled()
	logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String(), "previous_status": order.Status})
	s.logg.Info(logCtx, "orders.canceled")
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, status string, page pagination.Params) (*OrderListResult, error) {
	filters := ListFilters{UserID: &userID}
	if err := applyStatusFilter(&filters, status); err != nil {
		return nil, err
	}
	return s.list(ctx, filters, page)
}

func (s *service) AdminList(ctx context.Context, status string, page pagination.Params) (*OrderListResult, error) {
	var filters ListFilters
	if err := applyStatusFilter(&filters, status); err != nil {
		return nil, err
	}
	return s.list(ctx, filters, page)
}

func applyStatusFilter(filters *ListFilters, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidStatus)
	}
	filters.Status = &status
	return nil
}

func (s *service) list(ctx context.Context, filters ListFilters, page pagination.Params) (*OrderListResult, error) {
	page = pagination.Normalize(page, pagination.DefaultLimit, pagination.MaxLimit)
	rows, total, err := s.repo.List(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	if rows == nil {
		rows = []OrderSummary{}
	}
	return &OrderListResult{Orders: rows, Pagination: pagination.NewMeta(page, total)}, nil
}

func (s *service) Detail(ctx context.Context, orderID, userID uuid.UUID, role enums.Role) (*OrderDetail, error) {
	order, err := s.repo.FindByIDWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if role != enums.RoleAdmin && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	return toDetail(order), nil
}

func (s *service) Statistics(ctx context.Context, userID uuid.UUID) (*Statistics, error) {
	rows, err := s.repo.Statistics(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order statistics")
	}
	stats := &Statistics{ByStatus: make(map[enums.OrderStatus]StatusStatistics, len(rows))}
	for _, row := range rows {
		stats.TotalOrders += row.Count
		stats.TotalAmount += row.TotalAmount
		stats.ByStatus[row.Status] = StatusStatistics{Count: row.Count, TotalAmount: row.TotalAmount}
	}
	return stats, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, raw string) error {
	next, err := enums.ParseOrderStatus(strings.TrimSpace(raw))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidStatus)
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !order.Status.CanTransitionTo(next) {
		return pkgerrors.Newf(pkgerrors.CodePolicy, "Không thể chuyển trạng thái từ %s sang %s", order.Status, next).
			WithDetails(map[string]any{"from": order.Status, "to": next})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		changed, err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, []enums.OrderStatus{order.Status}, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if changed == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID: order.ID,
				From:    order.Status,
				To:      next,
			},
		})
	})
	if err != nil {
		return err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String(), "from": order.Status, "to": next})
	s.logg.Info(logCtx, "orders.status_changed")
	return nil
}

func (s *service) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, raw string) error {
	status, err := enums.ParsePaymentStatus(strings.TrimSpace(raw))
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "Trạng thái thanh toán không hợp lệ")
	}
	if err := s.repo.UpdatePaymentStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment status")
	}
	return nil
}

// HasPurchased is the yes/no purchase check offered to other packages.
// Review submission needs the order id and calls LatestPurchaseOrder instead.
func (s *service) HasPurchased(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	orderID, err := s.LatestPurchaseOrder(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	return orderID != nil, nil
}

// LatestPurchaseOrder returns nil when the user never bought the product.
func (s *service) LatestPurchaseOrder(ctx context.Context, userID, productID uuid.UUID) (*uuid.UUID, error) {
	order, err := s.repo.LatestPurchaseOrder(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load purchase history")
	}
	return &order.ID, nil
}
