package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
)

const (
	MsgParentNotFound = "Parent comment not found"

	msgProductNotFound = "Product not found"
	msgCommentNotFound = "Comment not found"
	msgAlreadyDeleted  = "Comment already deleted"
	msgContentRequired = "content is required"
	msgRatingRange     = "rating must be a number between 0 and 5"
	msgForbidden       = "Forbidden"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CreateInput carries a new comment or reply.
type CreateInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	Content   string
	Rating    *float64
	ParentID  *uuid.UUID
}

// Service manages threaded product comments.
type Service interface {
	ListThread(ctx context.Context, productID uuid.UUID) ([]*Node, error)
	Create(ctx context.Context, input CreateInput) (*models.ProductComment, error)
	Delete(ctx context.Context, commentID, actorID uuid.UUID, role enums.Role) ([]uuid.UUID, error)
}

type service struct {
	repo     *Repository
	tx       txRunner
	products productLoader
	logg     *logger.Logger
	metrics  *metrics.CommerceMetrics
}

func NewService(repo *Repository, tx txRunner, products productLoader, logg *logger.Logger, m *metrics.CommerceMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("comment repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, products: products, logg: logg, metrics: m}, nil
}

func (s *service) ListThread(ctx context.Context, productID uuid.UUID) ([]*Node, error) {
	rows, err := s.repo.ListActive(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list comments")
	}
	return BuildTree(rows), nil
}

// ValidateRating accepts nil or a value in [0, 5].
func ValidateRating(rating *float64) error {
	if rating != nil && (*rating < 0 || *rating > 5) {
		return pkgerrors.New(pkgerrors.CodeValidation, msgRatingRange).
			WithDetails(map[string]any{"rating": *rating})
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.ProductComment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgContentRequired)
	}
	if err := ValidateRating(input.Rating); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, input.ProductID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if input.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, MsgParentNotFound)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load parent comment")
		}
	}

	comment := &models.ProductComment{
		ProductID: input.ProductID,
		UserID:    input.UserID,
		ParentID:  input.ParentID,
		Content:   content,
		Rating:    input.Rating,
		Status:    enums.CommentStatusActive,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create comment")
	}
	s.metrics.ReviewCreated("thread_comment")
	return comment, nil
}

// Delete soft deletes the comment and every live descendant, returning the
// affected ids with the target first.
func (s *service) Delete(ctx context.Context, commentID, actorID uuid.UUID, role enums.Role) ([]uuid.UUID, error) {
	comment, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgCommentNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load comment")
	}
	if comment.Status == enums.CommentStatusDeleted {
		return nil, pkgerrors.New(pkgerrors.CodePolicy, msgAlreadyDeleted)
	}
	if comment.UserID != actorID && role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgForbidden)
	}

	var deleted []uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ids, err := collectDescendants(ctx, repo, comment.ID)
		if err != nil {
			return err
		}
		if _, err := repo.MarkDeleted(ctx, ids); err != nil {
			return err
		}
		deleted = ids
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete comment")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"comment_id": comment.ID.String(), "deleted": len(deleted)})
	s.logg.Info(logCtx, "comments.deleted")
	return deleted, nil
}

// collectDescendants walks replies level by level; the visited set guards
// against parent cycles.
func collectDescendants(ctx context.Context, repo *Repository, rootID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{rootID}
	visited := map[uuid.UUID]bool{rootID: true}
	frontier := []uuid.UUID{rootID}
	for len(frontier) > 0 {
		children, err := repo.ChildIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, id := range children {
			if visited[id] {
				continue
			}
			visited[id] = true
			ids = append(ids, id)
			frontier = append(frontier, id)
		}
	}
	return ids, nil
}
