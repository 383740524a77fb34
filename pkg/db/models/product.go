package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a catalog listing. Rating and Reviews hold the running
// average maintained by order ratings.
type Product struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string         `gorm:"column:name;not null"`
	Description *string        `gorm:"column:description"`
	ImageURL    *string        `gorm:"column:image_url"`
	Images      pq.StringArray `gorm:"column:images;type:text[]"`
	Price       int64          `gorm:"column:price;not null"`
	OldPrice    int64          `gorm:"column:old_price;not null;default:0"`
	Badge       *string        `gorm:"column:badge"`
	Category    *string        `gorm:"column:category"`
	InStock     bool           `gorm:"column:in_stock;not null"`
	Rating      float64        `gorm:"column:rating;type:numeric(2,1);not null;default:0"`
	Reviews     int            `gorm:"column:reviews;not null;default:0"`
	CPU         *string        `gorm:"column:cpu"`
	RAM         *string        `gorm:"column:ram"`
	Storage     *string        `gorm:"column:storage"`
	Display     *string        `gorm:"column:display"`
	GPU         *string        `gorm:"column:gpu"`
	OS          *string        `gorm:"column:os"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
