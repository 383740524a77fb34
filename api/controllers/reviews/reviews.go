package reviews

import (
	"net/http"

	"github.com/storefront-labs/storefront-backend/api/middleware"
	"github.com/storefront-labs/storefront-backend/api/responses"
	"github.com/storefront-labs/storefront-backend/api/validators"
	internalreviews "github.com/storefront-labs/storefront-backend/internal/reviews"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
)

const (
	msgReviewUpdated = "Đã cập nhật đánh giá của bạn"
	msgReviewDeleted = "Đã xóa đánh giá của bạn"

	paramProductID = "productId"
	paramReviewID  = "reviewId"

	listDefaultLimit = 20
	listMaxLimit     = 50
	maxContentLen    = 5000
)

type reviewRequest struct {
	Content string `json:"content"`
	Rating  *int   `json:"rating,omitempty"`
}

func unavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable")
}

// ProductReviews lists approved reviews of a product with aggregate stats.
// ?verified=true narrows to purchase-backed reviews.
func ProductReviews(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		productID, err := validators.URLParamUUID(r, paramProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParsePage(r, listDefaultLimit, listMaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		verified, err := validators.ParseQueryBool(r, "verified")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ListProductReviews(r.Context(), productID, verified, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Submit stores a review. Buyers of the product get a verified review and
// must send a rating; everyone else posts an unverified comment.
func Submit(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		p, err := middleware.PrincipalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.URLParamUUID(r, paramProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		content := validators.SanitizeString(body.Content, maxContentLen)
		result, err := svc.Submit(r.Context(), productID, p.UserID, content, body.Rating)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, result.Message, result)
	}
}

func Update(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		p, err := middleware.PrincipalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := validators.URLParamUUID(r, paramReviewID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		content := validators.SanitizeString(body.Content, maxContentLen)
		window, err := svc.UpdateUserReview(r.Context(), reviewID, p.UserID, content, body.Rating)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgReviewUpdated, window)
	}
}

func Delete(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		p, err := middleware.PrincipalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := validators.URLParamUUID(r, paramReviewID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteUserReview(r.Context(), reviewID, p.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgReviewDeleted, nil)
	}
}

// CanEdit reports whether the caller may still edit the review.
func CanEdit(svc internalreviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		p, err := middleware.PrincipalFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewID, err := validators.URLParamUUID(r, paramReviewID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eligibility, err := svc.CanEdit(r.Context(), reviewID, p.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, eligibility)
	}
}
