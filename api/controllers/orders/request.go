package orders

import (
	"github.com/google/uuid"

	pkgcheckout "github.com/storefront-labs/storefront-backend/pkg/checkout"
)

// checkoutRequest embeds the shipping block at the top level of the body.
type checkoutRequest struct {
	pkgcheckout.ShippingInfo
	CartItemIDs []uuid.UUID `json:"cart_item_ids,omitempty"`
}

type buyNowRequest struct {
	pkgcheckout.ShippingInfo
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

type rateRequest struct {
	Rating    int        `json:"rating"`
	Content   string     `json:"content,omitempty"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
}
