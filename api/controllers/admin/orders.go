package admin

import (
	"net/http"
	"strings"

	"github.com/storefront-labs/storefront-backend/api/middleware"
	"github.com/storefront-labs/storefront-backend/api/responses"
	"github.com/storefront-labs/storefront-backend/api/validators"
	internalorders "github.com/storefront-labs/storefront-backend/internal/orders"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

const msgOrderUpdated = "Đã cập nhật đơn hàng"

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func ordersUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable")
}

// ListOrders pages through every order, optionally filtered by ?status=.
func ListOrders(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, ordersUnavailable())
			return
		}
		page, err := validators.ParsePage(r, pagination.DefaultLimit, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.AdminList(r.Context(), strings.TrimSpace(r.URL.Query().Get("status")), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, ordersUnavailable())
			return
		}
		p, err := middleware.PrincipalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.URLParamUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Detail(r.Context(), orderID, p.UserID, p.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// UpdateOrderStatus moves an order forward through its lifecycle.
func UpdateOrderStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return updateOrder(svc, logg, func(s internalorders.Service, r *http.Request, body statusRequest) error {
		orderID, err := validators.URLParamUUID(r, "orderId")
		if err != nil {
			return err
		}
		return s.UpdateStatus(r.Context(), orderID, body.Status)
	})
}

func UpdatePaymentStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return updateOrder(svc, logg, func(s internalorders.Service, r *http.Request, body statusRequest) error {
		orderID, err := validators.URLParamUUID(r, "orderId")
		if err != nil {
			return err
		}
		return s.UpdatePaymentStatus(r.Context(), orderID, body.Status)
	})
}

func updateOrder(svc internalorders.Service, logg *logger.Logger, apply func(internalorders.Service, *http.Request, statusRequest) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, ordersUnavailable())
			return
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := apply(svc, r, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgOrderUpdated, nil)
	}
}
