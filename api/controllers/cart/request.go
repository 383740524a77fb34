package cart

import "github.com/google/uuid"

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type selectionRequest struct {
	IsSelected *bool `json:"is_selected" validate:"required"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}
