package admin

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/api/responses"
	"github.com/storefront-labs/storefront-backend/api/validators"
	internalreviews "github.com/storefront-labs/storefront-backend/internal/reviews"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

const (
	msgReviewUpdated = "Đã cập nhật review"

	reviewsDefaultLimit = 20
	maxResponseLen      = 2000
)

type responseRequest struct {
	Response string `json:"response" validate:"required"`
}

func reviewsUnavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable")
}

// ListReviews is the moderation listing. Unlike the public listing it shows
// every status unless ?status= narrows it.
func ListReviews(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, reviewsUnavailable())
			return
		}
		page, err := validators.ParsePage(r, reviewsDefaultLimit, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseReviewFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListAll(r.Context(), filters, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseReviewFilters(r *http.Request) (internalreviews.ListFilters, error) {
	var filters internalreviews.ListFilters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("product_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid product_id").WithDetails(map[string]any{"field": "product_id"})
		}
		filters.ProductID = &id
	}
	verified, err := validators.ParseQueryBool(r, "verified")
	if err != nil {
		return filters, err
	}
	filters.Verified = verified
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseReviewStatus(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "Trạng thái không hợp lệ").WithDetails(map[string]any{"field": "status"})
		}
		filters.Status = &status
	}
	return filters, nil
}

// UpdateReviewStatus approves, hides or flags a review as spam.
func UpdateReviewStatus(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, reviewsUnavailable())
			return
		}
		reviewID, err := validators.URLParamUUID(r, "reviewId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateStatus(r.Context(), reviewID, body.Status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgReviewUpdated, nil)
	}
}

func RespondToReview(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, reviewsUnavailable())
			return
		}
		reviewID, err := validators.URLParamUUID(r, "reviewId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body responseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		text := validators.SanitizeString(body.Response, maxResponseLen)
		if err := svc.AddAdminResponse(r.Context(), reviewID, text); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgReviewUpdated, nil)
	}
}
