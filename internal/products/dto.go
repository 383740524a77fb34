package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Images      []string  `json:"images"`
	Price       int64     `json:"price"`
	OldPrice    int64     `json:"old_price"`
	Badge       *string   `json:"badge,omitempty"`
	Category    *string   `json:"category,omitempty"`
	InStock     bool      `json:"in_stock"`
	Rating      float64   `json:"rating"`
	Reviews     int       `json:"reviews"`
	Specs       Specs     `json:"specs"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductListResult is one page of the catalog.
type ProductListResult struct {
	Products   []ProductDTO    `json:"products"`
	Pagination pagination.Meta `json:"pagination"`
}

func toDTO(p models.Product) ProductDTO {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Images:      images,
		Price:       p.Price,
		OldPrice:    p.OldPrice,
		Badge:       p.Badge,
		Category:    p.Category,
		InStock:     p.InStock,
		Rating:      p.Rating,
		Reviews:     p.Reviews,
		Specs: Specs{
			CPU:     p.CPU,
			RAM:     p.RAM,
			Storage: p.Storage,
			Display: p.Display,
			GPU:     p.GPU,
			OS:      p.OS,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
