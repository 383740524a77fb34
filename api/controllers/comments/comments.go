package comments

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/api/middleware"
	"github.com/storefront-labs/storefront-backend/api/responses"
	"github.com/storefront-labs/storefront-backend/api/validators"
	internalcomments "github.com/storefront-labs/storefront-backend/internal/comments"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
)

const (
	msgCreated = "Comment created"
	msgDeleted = "Comment and its child comments deleted"

	maxContentLen = 5000
)

type createRequest struct {
	Content  string     `json:"content"`
	Rating   *float64   `json:"rating,omitempty"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type commentResponse struct {
	ID        uuid.UUID  `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	UserID    uuid.UUID  `json:"user_id"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Content   string     `json:"content"`
	Rating    *float64   `json:"rating"`
	Verified  bool       `json:"verified"`
	CreatedAt time.Time  `json:"created_at"`
}

func toResponse(c *models.ProductComment) commentResponse {
	return commentResponse{
		ID:        c.ID,
		ProductID: c.ProductID,
		UserID:    c.UserID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		Rating:    c.Rating,
		Verified:  c.Verified,
		CreatedAt: c.CreatedAt,
	}
}

func unavailable() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "comment service unavailable")
}

// Thread returns a product's active comments as reply trees.
func Thread(svc internalcomments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable())
			return
		}
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		nodes, err := svc.ListThread(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if nodes == nil {
			nodes = []*internalcomments.Node{}
		}
		responses.WriteSuccess(w, nodes)
	}
}

func Create(svc internalcomments.Service, logg *logger.Logger) http.HandlerFunc {
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
		productID, err := validators.URLParamUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comment, err := svc.Create(r.Context(), internalcomments.CreateInput{
			ProductID: productID,
			UserID:    p.UserID,
			Content:   validators.SanitizeString(body.Content, maxContentLen),
			Rating:    body.Rating,
			ParentID:  body.ParentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgCreated, toResponse(comment))
	}
}

// Delete soft deletes a comment and every reply beneath it. Owners and admins
// only.
func Delete(svc internalcomments.Service, logg *logger.Logger) http.HandlerFunc {
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
		commentID, err := validators.URLParamUUID(r, "commentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ids, err := svc.Delete(r.Context(), commentID, p.UserID, p.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, msgDeleted, map[string][]uuid.UUID{"deleted_ids": ids})
	}
}
