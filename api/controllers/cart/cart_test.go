package cart

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/api/middleware"
	cartsvc "github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/types"
)

type stubCartService struct {
	view         *cartsvc.CartView
	itemID       uuid.UUID
	err          error
	lastUser     uuid.UUID
	lastProduct  uuid.UUID
	lastItem     uuid.UUID
	lastQuantity int
	lastSelected *bool
	lastStatus   string
	calls        []string
}

func (s *stubCartService) View(ctx context.Context, userID uuid.UUID) (*cartsvc.CartView, error) {
	s.lastUser = userID
	s.calls = append(s.calls, "view")
	return s.view, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (uuid.UUID, error) {
	s.lastUser, s.lastProduct, s.lastQuantity = userID, productID, quantity
	s.calls = append(s.calls, "add")
	return s.itemID, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	s.lastUser, s.lastItem, s.lastQuantity = userID, itemID, quantity
	s.calls = append(s.calls, "quantity")
	return s.err
}

func (s *stubCartService) ToggleSelection(ctx context.Context, userID, itemID uuid.UUID, selected bool) error {
	s.lastUser, s.lastItem, s.lastSelected = userID, itemID, &selected
	s.calls = append(s.calls, "select")
	return s.err
}

func (s *stubCartService) SelectAll(ctx context.Context, userID uuid.UUID) error {
	s.calls = append(s.calls, "select_all")
	return s.err
}

func (s *stubCartService) UnselectAll(ctx context.Context, userID uuid.UUID) error {
	s.calls = append(s.calls, "unselect_all")
	return s.err
}

func (s *stubCartService) UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error {
	s.lastStatus = status
	s.calls = append(s.calls, "status")
	return s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	s.lastItem = itemID
	s.calls = append(s.calls, "remove")
	return s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	s.calls = append(s.calls, "clear")
	return s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
}

func authed(req *http.Request, userID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{UserID: userID, Role: enums.RoleUser}))
}

func withItemParam(req *http.Request, itemID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(paramCartItemID, itemID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestViewReturnsCart(t *testing.T) {
	userID := uuid.New()
	view := &cartsvc.CartView{ID: uuid.New(), Status: enums.CartStatusActive, Total: 150000, ItemCount: 2}
	svc := &stubCartService{view: view}

	req := authed(httptest.NewRequest(http.MethodGet, "/api/cart", nil), userID)
	rec := httptest.NewRecorder()
	View(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data cartsvc.CartView `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != view.ID || envelope.Data.Total != 150000 {
		t.Fatalf("unexpected cart payload: %+v", envelope.Data)
	}
	if svc.lastUser != userID {
		t.Fatalf("expected caller id to reach service")
	}
}

func TestViewRequiresPrincipal(t *testing.T) {
	svc := &stubCartService{}
	rec := httptest.NewRecorder()
	View(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("service should not be called: %v", svc.calls)
	}
}

func TestAddItemPassesBody(t *testing.T) {
	userID, productID, itemID := uuid.New(), uuid.New(), uuid.New()
	svc := &stubCartService{itemID: itemID}

	body := `{"product_id":"` + productID.String() + `","quantity":3}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body)), userID)
	rec := httptest.NewRecorder()
	AddItem(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastProduct != productID || svc.lastQuantity != 3 {
		t.Fatalf("unexpected service input: product=%s qty=%d", svc.lastProduct, svc.lastQuantity)
	}
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Message != msgAdded {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}

func TestAddItemRejectsMissingProduct(t *testing.T) {
	svc := &stubCartService{}
	req := authed(httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{"quantity":1}`)), uuid.New())
	rec := httptest.NewRecorder()
	AddItem(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("service should not be called: %v", svc.calls)
	}
}

func TestAddItemSurfacesServiceError(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeValidation, "Sản phẩm không tồn tại")}
	body := `{"product_id":"` + uuid.NewString() + `","quantity":1}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(body)), uuid.New())
	rec := httptest.NewRecorder()
	AddItem(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Message != "Sản phẩm không tồn tại" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}

func TestUpdateQuantityAcceptsZero(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{}
	req := authed(httptest.NewRequest(http.MethodPut, "/api/cart/items/"+itemID.String(), strings.NewReader(`{"quantity":0}`)), uuid.New())
	req = withItemParam(req, itemID.String())
	rec := httptest.NewRecorder()
	UpdateQuantity(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastItem != itemID || svc.lastQuantity != 0 {
		t.Fatalf("unexpected service input: item=%s qty=%d", svc.lastItem, svc.lastQuantity)
	}
}

func TestUpdateQuantityRejectsBadItemID(t *testing.T) {
	svc := &stubCartService{}
	req := authed(httptest.NewRequest(http.MethodPut, "/api/cart/items/nope", strings.NewReader(`{"quantity":1}`)), uuid.New())
	req = withItemParam(req, "nope")
	rec := httptest.NewRecorder()
	UpdateQuantity(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestToggleSelectionForbiddenItem(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeForbidden, "Bạn không có quyền")}
	req := authed(httptest.NewRequest(http.MethodPatch, "/api/cart/items/"+itemID.String()+"/select", strings.NewReader(`{"is_selected":false}`)), uuid.New())
	req = withItemParam(req, itemID.String())
	rec := httptest.NewRecorder()
	ToggleSelection(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if svc.lastSelected == nil || *svc.lastSelected {
		t.Fatalf("expected is_selected=false to reach service")
	}
}

func TestBulkOperations(t *testing.T) {
	cases := []struct {
		name    string
		handler func(cartsvc.Service, *logger.Logger) http.HandlerFunc
		call    string
		message string
	}{
		{"select all", SelectAll, "select_all", msgSelectAll},
		{"unselect all", UnselectAll, "unselect_all", msgUnselectAll},
		{"clear", Clear, "clear", msgCleared},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCartService{}
			req := authed(httptest.NewRequest(http.MethodPost, "/api/cart", nil), uuid.New())
			rec := httptest.NewRecorder()
			tc.handler(svc, testLogger()).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d", rec.Code)
			}
			if len(svc.calls) != 1 || svc.calls[0] != tc.call {
				t.Fatalf("unexpected calls %v", svc.calls)
			}
			var envelope types.SuccessEnvelope
			if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if envelope.Message != tc.message {
				t.Fatalf("unexpected message %q", envelope.Message)
			}
		})
	}
}

func TestUpdateStatusPassesRawValue(t *testing.T) {
	svc := &stubCartService{}
	req := authed(httptest.NewRequest(http.MethodPut, "/api/cart/status", strings.NewReader(`{"status":"abandoned"}`)), uuid.New())
	rec := httptest.NewRecorder()
	UpdateStatus(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastStatus != "abandoned" {
		t.Fatalf("unexpected status %q", svc.lastStatus)
	}
}

func TestRemoveItem(t *testing.T) {
	itemID := uuid.New()
	svc := &stubCartService{}
	req := authed(httptest.NewRequest(http.MethodDelete, "/api/cart/items/"+itemID.String(), nil), uuid.New())
	req = withItemParam(req, itemID.String())
	rec := httptest.NewRecorder()
	RemoveItem(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastItem != itemID {
		t.Fatalf("unexpected item %s", svc.lastItem)
	}
}

func TestNilServiceIsInternalError(t *testing.T) {
	req := authed(httptest.NewRequest(http.MethodGet, "/api/cart", nil), uuid.New())
	rec := httptest.NewRecorder()
	View(nil, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
