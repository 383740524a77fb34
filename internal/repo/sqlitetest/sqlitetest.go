// Package sqlitetest opens in-memory SQLite databases carrying the storefront
// schema for repository tests.
package sqlitetest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// uuidDefault mimics gen_random_uuid() so inserts that omit the id get a
// canonical v4 string back.
const uuidDefault = `(lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-4' ||
  substr(lower(hex(randomblob(2))), 2) || '-a' || substr(lower(hex(randomblob(2))), 2) || '-' ||
  lower(hex(randomblob(6))))`

var schema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  email TEXT NOT NULL UNIQUE,
  full_name TEXT,
  role TEXT NOT NULL DEFAULT 'user',
  created_at DATETIME
)`,
	`CREATE TABLE products (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  name TEXT NOT NULL,
  description TEXT,
  image_url TEXT,
  images TEXT DEFAULT '{}',
  price INTEGER NOT NULL,
  old_price INTEGER NOT NULL DEFAULT 0,
  badge TEXT,
  category TEXT,
  in_stock BOOLEAN NOT NULL DEFAULT 1,
  rating REAL NOT NULL DEFAULT 0,
  reviews INTEGER NOT NULL DEFAULT 0,
  cpu TEXT,
  ram TEXT,
  storage TEXT,
  display TEXT,
  gpu TEXT,
  os TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE carts (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_carts_user_active ON carts (user_id) WHERE status = 'active'`,
	`CREATE TABLE cart_items (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price INTEGER NOT NULL,
  is_selected BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_cart_items_cart_product ON cart_items (cart_id, product_id)`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  user_id TEXT NOT NULL,
  full_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL,
  province TEXT NOT NULL,
  district TEXT NOT NULL,
  ward TEXT NOT NULL,
  address_detail TEXT NOT NULL,
  note TEXT,
  total_amount INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  rate BOOLEAN NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE order_items (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price INTEGER NOT NULL,
  subtotal INTEGER NOT NULL,
  created_at DATETIME
)`,
	`CREATE TABLE product_reviews (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  product_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  order_id TEXT,
  content TEXT NOT NULL,
  rating INTEGER,
  verified BOOLEAN NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'approved',
  admin_response TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_product_reviews_verified_user_product ON product_reviews (user_id, product_id) WHERE verified`,
	`CREATE TABLE product_comments (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  product_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  parent_id TEXT,
  content TEXT NOT NULL,
  rating REAL,
  verified BOOLEAN NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`,
}

// Open returns a private in-memory database with every table created.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	sqlDB, err := conn.DB()
	if err == nil {
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	return conn
}

// MustCreate inserts value or fails the test.
func MustCreate(t *testing.T, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

// SeedUser inserts a user with a unique email.
func SeedUser(t *testing.T, conn *gorm.DB, fullName string) models.User {
	t.Helper()
	user := models.User{
		ID:       uuid.New(),
		Email:    fmt.Sprintf("%s@example.com", uuid.NewString()),
		FullName: fullName,
		Role:     enums.RoleUser,
	}
	MustCreate(t, conn, &user)
	return user
}

// SeedProduct inserts an in-stock product. Out-of-stock products are set with
// an explicit update since the column has a database default.
func SeedProduct(t *testing.T, conn *gorm.DB, name string, price int64, inStock bool) models.Product {
	t.Helper()
	product := models.Product{
		ID:      uuid.New(),
		Name:    name,
		Price:   price,
		InStock: true,
	}
	MustCreate(t, conn, &product)
	if !inStock {
		if err := conn.Model(&models.Product{}).Where("id = ?", product.ID).Update("in_stock", false).Error; err != nil {
			t.Fatalf("mark out of stock: %v", err)
		}
		product.InStock = false
	}
	return product
}

// SeedOrder inserts an order with one item per product at the given status.
func SeedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, status enums.OrderStatus, createdAt time.Time, products ...models.Product) models.Order {
	t.Helper()
	order := models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		FullName:      "Tran Van An",
		Email:         "an@example.com",
		Phone:         "0912345678",
		Province:      "Ha Noi",
		District:      "Cau Giay",
		Ward:          "Dich Vong",
		AddressDetail: "12 Tran Thai Tong",
		Status:        status,
		PaymentStatus: enums.PaymentStatusUnpaid,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	for _, product := range products {
		order.TotalAmount += product.Price
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    1,
			Price:       product.Price,
			Subtotal:    product.Price,
			CreatedAt:   createdAt,
		})
	}
	MustCreate(t, conn, &order)
	return order
}
