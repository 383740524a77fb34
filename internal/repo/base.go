package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

// Base is embedded by domain repositories. It holds either the pool or, after
// WithTx, the transaction handle every query must run on.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// WithTx returns a copy bound to tx.
func (b Base) WithTx(tx *gorm.DB) Base {
	return Base{db: tx}
}

// DB returns the handle scoped to ctx so cancellation reaches the driver.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Paginate is a gorm scope applying LIMIT/OFFSET for a normalized page.
func Paginate(page pagination.Params) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page.Limit <= 0 {
			return db
		}
		return db.Limit(page.Limit).Offset(page.Offset())
	}
}
