package helpers

import (
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
)

const (
	MsgProductNotFound = "Sản phẩm không tồn tại"
	MsgOutOfStock      = "Sản phẩm đã hết hàng"
	MsgInvalidQuantity = "Số lượng không hợp lệ"
	MsgEmptySelection  = "Vui lòng chọn sản phẩm để đặt hàng"
)

// ValidateQuantity rejects non-positive quantities.
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, MsgInvalidQuantity).
			WithDetails(map[string]any{"quantity": quantity})
	}
	return nil
}

// ValidateCartLines fails on an empty selection or the first out-of-stock
// product, naming it.
func ValidateCartLines(lines []Line) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodePolicy, MsgEmptySelection)
	}
	for _, line := range lines {
		if !line.InStock {
			return pkgerrors.Newf(pkgerrors.CodePolicy, "Sản phẩm '%s' đã hết hàng", line.Name).
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
	}
	return nil
}
