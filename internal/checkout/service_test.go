package checkout

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/orders"
	"github.com/storefront-labs/storefront-backend/internal/products"
	"github.com/storefront-labs/storefront-backend/internal/repo/sqlitetest"
	pkgcheckout "github.com/storefront-labs/storefront-backend/pkg/checkout"
	"github.com/storefront-labs/storefront-backend/pkg/db"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
)

// failingItemsRepo breaks the second write of the order transaction.
type failingItemsRepo struct {
	orders.Repository
}

func (r failingItemsRepo) WithTx(tx *gorm.DB) orders.Repository {
	return failingItemsRepo{Repository: r.Repository.WithTx(tx)}
}

func (r failingItemsRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	return errors.New("disk full")
}

// txOnlyCartRepo fails every read made outside a transaction.
type txOnlyCartRepo struct {
	cart.CartRepository
}

func (r txOnlyCartRepo) FindActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return nil, errors.New("cart read outside transaction")
}

func (r txOnlyCartRepo) GetCartItems(ctx context.Context, cartID uuid.UUID) ([]cart.CartLine, error) {
	return nil, errors.New("cart read outside transaction")
}

func (r txOnlyCartRepo) GetSelectedItems(ctx context.Context, cartID uuid.UUID) ([]cart.CartLine, error) {
	return nil, errors.New("cart read outside transaction")
}

type checkoutFixture struct {
	conn     *gorm.DB
	svc      Service
	cartRepo *cart.Repository
	phone    models.Product
	charger  models.Product
	soldOut  models.Product
	userID   uuid.UUID
}

func newCheckoutFixture(t *testing.T, wrap func(orders.Repository) orders.Repository) checkoutFixture {
	t.Helper()
	conn := sqlitetest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	ordersRepo := orders.NewRepository(conn)
	if wrap != nil {
		ordersRepo = wrap(ordersRepo)
	}
	cartRepo := cart.NewRepository(conn)
	svc, err := NewService(
		db.NewFromConn(conn),
		cartRepo,
		ordersRepo,
		product.NewRepository(conn),
		outbox.NewService(outbox.NewRepository(conn), logg),
		logg,
		nil,
	)
	require.NoError(t, err)
	return checkoutFixture{
		conn:     conn,
		svc:      svc,
		cartRepo: cartRepo,
		phone:    sqlitetest.SeedProduct(t, conn, "Phone", 5_000_000, true),
		charger:  sqlitetest.SeedProduct(t, conn, "Charger", 250_000, true),
		soldOut:  sqlitetest.SeedProduct(t, conn, "Camera", 9_000_000, false),
		userID:   uuid.New(),
	}
}

func validShipping() pkgcheckout.ShippingInfo {
	return pkgcheckout.ShippingInfo{
		FullName:      "Tran Van An",
		Email:         "an@example.com",
		Phone:         "0912345678",
		Province:      "Ha Noi",
		District:      "Cau Giay",
		Ward:          "Dich Vong",
		AddressDetail: "12 Tran Thai Tong",
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code, message string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
	if message != "" {
		assert.Equal(t, message, typed.Message())
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func (f checkoutFixture) addToCart(t *testing.T, product models.Product, qty int) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	record, err := f.cartRepo.GetOrCreateCart(ctx, f.userID)
	require.NoError(t, err)
	item, err := f.cartRepo.AddItem(ctx, record.ID, product.ID, qty, product.Price)
	require.NoError(t, err)
	return item.ID
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	conn := sqlitetest.Open(t)
	logg := logger.New(logger.Options{Output: io.Discard})
	pub := outbox.NewService(outbox.NewRepository(conn), logg)
	tx := db.NewFromConn(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	products := product.NewRepository(conn)

	_, err := NewService(nil, cartRepo, ordersRepo, products, pub, logg, nil)
	assert.Error(t, err)
	_, err = NewService(tx, nil, ordersRepo, products, pub, logg, nil)
	assert.Error(t, err)
	_, err = NewService(tx, cartRepo, nil, products, pub, logg, nil)
	assert.Error(t, err)
	_, err = NewService(tx, cartRepo, ordersRepo, nil, pub, logg, nil)
	assert.Error(t, err)
	_, err = NewService(tx, cartRepo, ordersRepo, products, nil, logg, nil)
	assert.Error(t, err)
	_, err = NewService(tx, cartRepo, ordersRepo, products, pub, nil, nil)
	assert.Error(t, err)
}

func TestBuyNowUsesLivePrice(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()

	result, err := f.svc.BuyNow(ctx, f.userID, f.phone.ID, 2, validShipping())
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000), result.TotalAmount)

	var order models.Order
	require.NoError(t, f.conn.Preload("Items").First(&order, "id = ?", result.OrderID).Error)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, enums.PaymentStatusUnpaid, order.PaymentStatus)
	assert.False(t, order.Rate)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Phone", order.Items[0].ProductName)
	assert.Equal(t, int64(10_000_000), order.Items[0].Subtotal)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderCreated, events[0].EventType)
	assert.Equal(t, result.OrderID, events[0].AggregateID)
}

func TestBuyNowValidation(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()

	shipping := validShipping()
	shipping.Phone = "12345"
	_, err := f.svc.BuyNow(ctx, f.userID, f.phone.ID, 1, shipping)
	requireCode(t, err, pkgerrors.CodeValidation, "Số điện thoại không hợp lệ")

	shipping = validShipping()
	shipping.Ward = "   "
	_, err = f.svc.BuyNow(ctx, f.userID, f.phone.ID, 1, shipping)
	requireCode(t, err, pkgerrors.CodeValidation, "Trường ward là bắt buộc")

	_, err = f.svc.BuyNow(ctx, f.userID, uuid.New(), 1, validShipping())
	requireCode(t, err, pkgerrors.CodeNotFound, "Sản phẩm không tồn tại")

	_, err = f.svc.BuyNow(ctx, f.userID, f.phone.ID, 0, validShipping())
	requireCode(t, err, pkgerrors.CodeValidation, "Số lượng không hợp lệ")

	_, err = f.svc.BuyNow(ctx, f.userID, f.soldOut.ID, 1, validShipping())
	requireCode(t, err, pkgerrors.CodePolicy, "Sản phẩm đã hết hàng")

	assert.Zero(t, countRows(t, f.conn, &models.Order{}))
}

func TestCheckoutSelectedItemsDrainsCart(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()
	f.addToCart(t, f.phone, 1)
	f.addToCart(t, f.charger, 2)

	result, err := f.svc.CheckoutSelectedItems(ctx, f.userID, validShipping(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5_500_000), result.TotalAmount)

	assert.EqualValues(t, 2, countRows(t, f.conn, &models.OrderItem{}))
	assert.Zero(t, countRows(t, f.conn, &models.CartItem{}))

	var carts []models.Cart
	require.NoError(t, f.conn.Find(&carts).Error)
	require.Len(t, carts, 1)
	assert.Equal(t, enums.CartStatusCheckedOut, carts[0].Status)
}

func TestCheckoutKeepsUnselectedItems(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()
	f.addToCart(t, f.phone, 1)
	chargerItem := f.addToCart(t, f.charger, 1)
	require.NoError(t, f.cartRepo.ToggleItemSelection(ctx, chargerItem, false))

	result, err := f.svc.CheckoutSelectedItems(ctx, f.userID, validShipping(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5_000_000), result.TotalAmount)

	var remaining []models.CartItem
	require.NoError(t, f.conn.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, chargerItem, remaining[0].ID)

	record, err := f.cartRepo.GetOrCreateCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, remaining[0].CartID, record.ID)
	assert.Equal(t, enums.CartStatusActive, record.Status)
}

func TestCheckoutExplicitItemIDs(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()
	f.addToCart(t, f.phone, 1)
	chargerItem := f.addToCart(t, f.charger, 3)
	require.NoError(t, f.cartRepo.ToggleItemSelection(ctx, chargerItem, false))

	result, err := f.svc.CheckoutSelectedItems(ctx, f.userID, validShipping(), []uuid.UUID{chargerItem})
	require.NoError(t, err)
	assert.Equal(t, int64(750_000), result.TotalAmount)
	assert.EqualValues(t, 1, countRows(t, f.conn, &models.CartItem{}))
}

func TestCheckoutRejectsEmptySelectionAndOutOfStock(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.CheckoutSelectedItems(ctx, f.userID, validShipping(), nil)
	requireCode(t, err, pkgerrors.CodePolicy, "Vui lòng chọn sản phẩm để đặt hàng")

	f.addToCart(t, f.phone, 1)
	f.addToCart(t, f.soldOut, 1)
	_, err = f.svc.CheckoutSelectedItems(ctx, f.userID, validShipping(), nil)
	requireCode(t, err, pkgerrors.CodePolicy, "Sản phẩm 'Camera' đã hết hàng")

	assert.Zero(t, countRows(t, f.conn, &models.Order{}))
	assert.EqualValues(t, 2, countRows(t, f.conn, &models.CartItem{}))
}

func TestCheckoutRollsBackOnPersistenceFailure(t *testing.T) {
	f := newCheckoutFixture(t, func(r orders.Repository) orders.Repository {
		return failingItemsRepo{Repository: r}
	})
	ctx := context.Background()
	f.addToCart(t, f.phone, 1)

	_, err := f.svc.CheckoutSelectedItems(ctx, f.userID, validShipping(), nil)
	requireCode(t, err, pkgerrors.CodeInternal, "Không thể tạo đơn hàng")
	assert.True(t, pkgerrors.As(err).IsPublic())

	assert.Zero(t, countRows(t, f.conn, &models.Order{}))
	assert.Zero(t, countRows(t, f.conn, &models.OutboxEvent{}))
	assert.EqualValues(t, 1, countRows(t, f.conn, &models.CartItem{}))
}

func TestCheckoutWithoutCartDoesNotCreateOne(t *testing.T) {
	f := newCheckoutFixture(t, nil)

	_, err := f.svc.CheckoutSelectedItems(context.Background(), f.userID, validShipping(), nil)
	requireCode(t, err, pkgerrors.CodePolicy, "Vui lòng chọn sản phẩm để đặt hàng")

	assert.Zero(t, countRows(t, f.conn, &models.Cart{}))
	assert.Zero(t, countRows(t, f.conn, &models.Order{}))
}

func TestCheckoutReadsCartInsideTransaction(t *testing.T) {
	f := newCheckoutFixture(t, nil)
	ctx := context.Background()
	f.addToCart(t, f.phone, 1)
	chargerItem := f.addToCart(t, f.charger, 2)

	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
	svc, err := NewService(
		db.NewFromConn(f.conn),
		txOnlyCartRepo{CartRepository: f.cartRepo},
		orders.NewRepository(f.conn),
		product.NewRepository(f.conn),
		outbox.NewService(outbox.NewRepository(f.conn), logg),
		logg,
		nil,
	)
	require.NoError(t, err)

	result, err := svc.CheckoutSelectedItems(ctx, f.userID, validShipping(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5_500_000), result.TotalAmount)

	f.addToCart(t, f.charger, 1)
	result, err = svc.CheckoutSelectedItems(ctx, f.userID, validShipping(), []uuid.UUID{chargerItem})
	require.Error(t, err)
	requireCode(t, err, pkgerrors.CodePolicy, "Vui lòng chọn sản phẩm để đặt hàng")
	assert.Nil(t, result)
	assert.EqualValues(t, 1, countRows(t, f.conn, &models.Order{}))
}
