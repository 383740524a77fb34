package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/api/middleware"
	"github.com/storefront-labs/storefront-backend/api/responses"
	"github.com/storefront-labs/storefront-backend/api/validators"
	cartsvc "github.com/storefront-labs/storefront-backend/internal/cart"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
)

const (
	msgAdded        = "Đã thêm vào giỏ hàng"
	msgUpdated      = "Đã cập nhật giỏ hàng"
	msgSelection    = "Đã cập nhật"
	msgSelectAll    = "Đã chọn tất cả"
	msgUnselectAll  = "Đã bỏ chọn tất cả"
	msgStatus       = "Đã cập nhật trạng thái giỏ hàng"
	msgRemoved      = "Đã xóa khỏi giỏ hàng"
	msgCleared      = "Đã xóa toàn bộ giỏ hàng"
	msgUnavailable  = "cart service unavailable"
	paramCartItemID = "itemId"
)

// View returns the caller's active cart with totals.
func View(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := caller(w, r, svc, logg)
		if !ok {
			return
		}
		view, err := svc.View(r.Context(), p.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := caller(w, r, svc, logg)
		if !ok {
			return
		}
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := svc.AddItem(r.Context(), p.UserID, body.ProductID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgAdded, map[string]uuid.UUID{"item_id": itemID})
	}
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func UpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := caller(w, r, svc, logg)
		if !ok {
			return
		}
		itemID, err := validators.URLParamUUID(r, paramCartItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateQuantity(r.Context(), p.UserID, itemID, *body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgUpdated, nil)
	}
}

func ToggleSelection(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := caller(w, r, svc, logg)
		if !ok {
			return
		}
		itemID, err := validators.URLParamUUID(r, paramCartItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body selectionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ToggleSelection(r.Context(), p.UserID, itemID, *body.IsSelected); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgSelection, nil)
	}
}

func SelectAll(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := caller(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.SelectAll(r.Context(), p.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgSelectAll, nil)
	}
}

func UnselectAll(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := caller(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.UnselectAll(r.Context(), p.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgUnselectAll, nil)
	}
}

func UpdateStatus(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := caller(w, r, svc, logg)
		if !ok {
			return
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateStatus(r.Context(), p.UserID, body.Status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgStatus, nil)
	}
}

func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := caller(w, r, svc, logg)
		if !ok {
			return
		}
		itemID, err := validators.URLParamUUID(r, paramCartItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveItem(r.Context(), p.UserID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgRemoved, nil)
	}
}

func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := caller(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), p.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgCleared, nil)
	}
}

func caller(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (middleware.Principal, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, msgUnavailable))
		return middleware.Principal{}, false
	}
	p, err := middleware.PrincipalFromRequest(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return middleware.Principal{}, false
	}
	return p, true
}
