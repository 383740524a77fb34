package reviews

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront-backend/api/middleware"
	internalreviews "github.com/storefront-labs/storefront-backend/internal/reviews"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
	"github.com/storefront-labs/storefront-backend/pkg/types"
)

type stubReviewService struct {
	internalreviews.Service

	submit       *internalreviews.SubmitResult
	window       *internalreviews.EditWindow
	eligibility  *internalreviews.EditEligibility
	listing      *internalreviews.ProductReviews
	err          error
	lastContent  string
	lastRating   *int
	lastReview   uuid.UUID
	lastProduct  uuid.UUID
	lastVerified *bool
	lastPage     pagination.Params
}

func (s *stubReviewService) Submit(ctx context.Context, productID, userID uuid.UUID, content string, rating *int) (*internalreviews.SubmitResult, error) {
	s.lastProduct, s.lastContent, s.lastRating = productID, content, rating
	return s.submit, s.err
}

func (s *stubReviewService) UpdateUserReview(ctx context.Context, reviewID, userID uuid.UUID, content string, rating *int) (*internalreviews.EditWindow, error) {
	s.lastReview, s.lastContent, s.lastRating = reviewID, content, rating
	return s.window, s.err
}

func (s *stubReviewService) DeleteUserReview(ctx context.Context, reviewID, userID uuid.UUID) error {
	s.lastReview = reviewID
	return s.err
}

func (s *stubReviewService) CanEdit(ctx context.Context, reviewID, userID uuid.UUID) (*internalreviews.EditEligibility, error) {
	s.lastReview = reviewID
	return s.eligibility, s.err
}

func (s *stubReviewService) ListProductReviews(ctx context.Context, productID uuid.UUID, verified *bool, page pagination.Params) (*internalreviews.ProductReviews, error) {
	s.lastProduct, s.lastVerified, s.lastPage = productID, verified, page
	return s.listing, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "reviews-test", Output: io.Discard})
}

func newRequest(method, target, body string, params map[string]string, principal *middleware.Principal) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if principal != nil {
		ctx = middleware.WithPrincipal(ctx, *principal)
	}
	return req.WithContext(ctx)
}

func user() *middleware.Principal {
	return &middleware.Principal{UserID: uuid.New(), Role: enums.RoleUser}
}

func TestProductReviewsUsesReviewPaging(t *testing.T) {
	productID := uuid.New()
	svc := &stubReviewService{listing: &internalreviews.ProductReviews{
		Reviews: []internalreviews.ReviewRow{},
		Stats:   internalreviews.Stats{AverageRating: 4.5, ReviewCount: 2},
	}}
	req := newRequest(http.MethodGet, "/api/products/x/reviews?verified=true", "", map[string]string{paramProductID: productID.String()}, nil)
	rec := httptest.NewRecorder()
	ProductReviews(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, productID, svc.lastProduct)
	assert.Equal(t, listDefaultLimit, svc.lastPage.Limit)
	require.NotNil(t, svc.lastVerified)
	assert.True(t, *svc.lastVerified)

	var envelope struct {
		Data internalreviews.ProductReviews `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, 4.5, envelope.Data.Stats.AverageRating)
}

func TestProductReviewsRejectsLimitOverMax(t *testing.T) {
	req := newRequest(http.MethodGet, "/api/products/x/reviews?limit=51", "", map[string]string{paramProductID: uuid.NewString()}, nil)
	rec := httptest.NewRecorder()
	ProductReviews(&stubReviewService{}, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitVerifiedMessage(t *testing.T) {
	productID, reviewID := uuid.New(), uuid.New()
	svc := &stubReviewService{submit: &internalreviews.SubmitResult{ReviewID: reviewID, Verified: true, Message: internalreviews.MsgReviewSubmitted}}
	req := newRequest(http.MethodPost, "/api/products/x/reviews", `{"content":" Tốt ","rating":5}`, map[string]string{paramProductID: productID.String()}, user())
	rec := httptest.NewRecorder()
	Submit(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Tốt", svc.lastContent)
	require.NotNil(t, svc.lastRating)
	assert.Equal(t, 5, *svc.lastRating)

	var envelope struct {
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, internalreviews.MsgReviewSubmitted, envelope.Message)
	assert.Equal(t, reviewID.String(), envelope.Data["review_id"])
	assert.Equal(t, true, envelope.Data["verified"])
	assert.NotContains(t, envelope.Data, "Message")
}

func TestSubmitRequiresPrincipal(t *testing.T) {
	req := newRequest(http.MethodPost, "/api/products/x/reviews", `{"content":"hi"}`, map[string]string{paramProductID: uuid.NewString()}, nil)
	rec := httptest.NewRecorder()
	Submit(&stubReviewService{}, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateExpiredCarriesDaysPassed(t *testing.T) {
	svc := &stubReviewService{err: pkgerrors.New(pkgerrors.CodeForbidden, "Đã quá thời hạn chỉnh sửa (30 ngày). Đánh giá của bạn đã đăng được 31 ngày.").
		WithDetails(map[string]any{"days_passed": 31})}
	req := newRequest(http.MethodPut, "/api/reviews/x", `{"content":"sửa"}`, map[string]string{paramReviewID: uuid.NewString()}, user())
	rec := httptest.NewRecorder()
	Update(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	details, ok := envelope.Error.Details.(map[string]any)
	require.True(t, ok, "details should be an object")
	assert.EqualValues(t, 31, details["days_passed"])
}

func TestUpdateReturnsWindow(t *testing.T) {
	reviewID := uuid.New()
	svc := &stubReviewService{window: &internalreviews.EditWindow{DaysPassed: 3, DaysRemaining: 27}}
	req := newRequest(http.MethodPut, "/api/reviews/x", `{"content":"ok","rating":4}`, map[string]string{paramReviewID: reviewID.String()}, user())
	rec := httptest.NewRecorder()
	Update(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reviewID, svc.lastReview)

	var envelope struct {
		Message string                     `json:"message"`
		Data    internalreviews.EditWindow `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, msgReviewUpdated, envelope.Message)
	assert.Equal(t, 27, envelope.Data.DaysRemaining)
}

func TestDelete(t *testing.T) {
	reviewID := uuid.New()
	svc := &stubReviewService{}
	req := newRequest(http.MethodDelete, "/api/reviews/x", "", map[string]string{paramReviewID: reviewID.String()}, user())
	rec := httptest.NewRecorder()
	Delete(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reviewID, svc.lastReview)
}

func TestDeleteOutsideWindow(t *testing.T) {
	svc := &stubReviewService{err: pkgerrors.New(pkgerrors.CodeForbidden, "Bạn chỉ có thể xóa review trong vòng 7 ngày kể từ khi đăng")}
	req := newRequest(http.MethodDelete, "/api/reviews/x", "", map[string]string{paramReviewID: uuid.NewString()}, user())
	rec := httptest.NewRecorder()
	Delete(svc, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCanEdit(t *testing.T) {
	remaining := 20
	svc := &stubReviewService{eligibility: &internalreviews.EditEligibility{CanEdit: true, DaysPassed: 10, DaysRemaining: &remaining}}
	req := newRequest(http.MethodGet, "/api/reviews/x/can-edit", "", map[string]string{paramReviewID: uuid.NewString()}, user())
	rec := httptest.NewRecorder()
	CanEdit(svc, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data internalreviews.EditEligibility `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.True(t, envelope.Data.CanEdit)
	require.NotNil(t, envelope.Data.DaysRemaining)
	assert.Equal(t, 20, *envelope.Data.DaysRemaining)
}
