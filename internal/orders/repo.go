package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/internal/repo"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

const summaryColumns = `o.*,
(SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS total_items,
(SELECT u.email FROM users u WHERE u.id = o.user_id) AS user_email`

type ordersRepository struct {
	base repo.Base
}

// NewRepository builds the order repository.
func NewRepository(db *gorm.DB) Repository {
	return &ordersRepository{base: repo.NewBase(db)}
}

func (r *ordersRepository) WithTx(tx *gorm.DB) Repository {
	return &ordersRepository{base: r.base.WithTx(tx)}
}

// CreateOrder inserts the order row only; the database assigns the id.
func (r *ordersRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Omit("Items").Create(order).Error
}

func (r *ordersRepository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.base.DB(ctx).CreateInBatches(&items, 100).Error
}

func (r *ordersRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.base.DB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *ordersRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns one page of orders, newest first, plus the total count.
func (r *ordersRepository) List(ctx context.Context, filters ListFilters, page pagination.Params) ([]OrderSummary, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filters.UserID != nil {
			db = db.Where("o.user_id = ?", *filters.UserID)
		}
		if filters.Status != nil {
			db = db.Where("o.status = ?", *filters.Status)
		}
		return db
	}

	var total int64
	if err := r.base.DB(ctx).Table("orders AS o").Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []OrderSummary
	err := r.base.DB(ctx).
		Table("orders AS o").
		Select(summaryColumns).
		Scopes(scope).
		Order("o.created_at DESC").
		Order("o.id DESC").
		Scopes(repo.Paginate(page)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *ordersRepository) Statistics(ctx context.Context, userID uuid.UUID) ([]StatusTotal, error) {
	var rows []StatusTotal
	err := r.base.DB(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total_amount").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// UpdateStatus moves the order to `to` only while its status is one of
// `from`, returning the number of rows changed.
func (r *ordersRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []enums.OrderStatus, to enums.OrderStatus) (int64, error) {
	res := r.base.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *ordersRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	res := r.base.DB(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"payment_status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkRated flips the rate flag once; a second call changes no rows.
func (r *ordersRepository) MarkRated(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.base.DB(ctx).Model(&models.Order{}).
		Where("id = ? AND rate = ?", id, false).
		Updates(map[string]any{"rate": true, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *ordersRepository) DistinctProductIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.base.DB(ctx).Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Distinct().
		Order("product_id").
		Pluck("product_id", &ids).Error
	return ids, err
}

// LatestPurchaseOrder returns the newest confirmed or delivered order of the
// user that contains the product.
func (r *ordersRepository) LatestPurchaseOrder(ctx context.Context, userID, productID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Model(&models.Order{}).
		Select("orders.*").
		Joins("JOIN order_items oi ON oi.order_id = orders.id").
		Where("orders.user_id = ? AND oi.product_id = ? AND orders.status IN ?", userID, productID, enums.PurchasedOrderStatuses).
		Order("orders.created_at DESC").
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
