package ratings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/internal/comments"
	"github.com/storefront-labs/storefront-backend/internal/orders"
	product "github.com/storefront-labs/storefront-backend/internal/products"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
)

const (
	MsgRatingSaved = "Rating saved and product(s) updated"

	msgRatingRange     = "rating must be between 1 and 5"
	msgOrderNotFound   = "Order not found"
	msgForbidden       = "Forbidden"
	msgAlreadyRated    = "Order already rated"
	msgNoProducts      = "Order has no products"
	msgProductNotInOrd = "product_id not found in order"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Input is an order level rating. ProductID narrows it to one product of the
// order; Content, when set, is stored as a verified comment per product.
type Input struct {
	OrderID   uuid.UUID
	UserID    uuid.UUID
	Rating    int
	Content   string
	ProductID *uuid.UUID
	ParentID  *uuid.UUID
}

// Result lists the recomputed aggregates.
type Result struct {
	Products []payloads.ProductRating `json:"products"`
}

// Service rates every product of a delivered order in one transaction.
type Service interface {
	RateOrder(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	tx       txRunner
	orders   orders.Repository
	products *product.Repository
	comments *comments.Repository
	outbox   outboxPublisher
	logg     *logger.Logger
	metrics  *metrics.CommerceMetrics
}

func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	products *product.Repository,
	commentRepo *comments.Repository,
	publisher outboxPublisher,
	logg *logger.Logger,
	m *metrics.CommerceMetrics,
) (Service, error) {
	switch {
	case tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case ordersRepo == nil:
		return nil, fmt.Errorf("orders repository required")
	case products == nil:
		return nil, fmt.Errorf("product repository required")
	case commentRepo == nil:
		return nil, fmt.Errorf("comment repository required")
	case publisher == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		orders:   ordersRepo,
		products: products,
		comments: commentRepo,
		outbox:   publisher,
		logg:     logg,
		metrics:  m,
	}, nil
}

func (s *service) RateOrder(ctx context.Context, input Input) (*Result, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgRatingRange).
			WithDetails(map[string]any{"rating": input.Rating})
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodePolicy, msgOrderNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgForbidden)
	}
	if order.Rate {
		return nil, pkgerrors.New(pkgerrors.CodePolicy, msgAlreadyRated)
	}

	productIDs, err := s.orders.DistinctProductIDs(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order products")
	}
	if len(productIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodePolicy, msgNoProducts)
	}
	targets, err := selectTargets(productIDs, input.ProductID)
	if err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if _, err := s.comments.FindByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, comments.MsgParentNotFound)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load parent comment")
		}
	}

	content := strings.TrimSpace(input.Content)
	var updated []payloads.ProductRating
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		commentRepo := s.comments.WithTx(tx)
		updated = make([]payloads.ProductRating, 0, len(targets))

		for _, productID := range targets {
			if content != "" {
				rating := float64(input.Rating)
				comment := &models.ProductComment{
					ProductID: productID,
					UserID:    input.UserID,
					ParentID:  input.ParentID,
					Content:   content,
					Rating:    &rating,
					Verified:  true,
					Status:    enums.CommentStatusActive,
				}
				if err := commentRepo.Create(ctx, comment); err != nil {
					return err
				}
			}

			locked, err := products.FindByIDForUpdate(ctx, productID)
			if err != nil {
				return err
			}
			avg, count := RunningAverage(locked.Rating, locked.Reviews, input.Rating)
			if err := products.UpdateRating(ctx, productID, avg, count); err != nil {
				return err
			}
			updated = append(updated, payloads.ProductRating{ProductID: productID, Rating: avg, Reviews: count})
		}

		changed, err := s.orders.WithTx(tx).MarkRated(ctx, order.ID)
		if err != nil {
			return err
		}
		if changed == 0 {
			return pkgerrors.New(pkgerrors.CodePolicy, msgAlreadyRated)
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: payloads.OrderRatedEvent{
				OrderID:  order.ID,
				UserID:   input.UserID,
				Rating:   input.Rating,
				Products: updated,
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String()}), "ratings.rate_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save rating")
	}

	s.metrics.RatingSubmitted()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"rating":   input.Rating,
		"products": len(updated),
	})
	s.logg.Info(logCtx, "ratings.order_rated")
	return &Result{Products: updated}, nil
}

func selectTargets(orderProducts []uuid.UUID, only *uuid.UUID) ([]uuid.UUID, error) {
	if only == nil {
		return orderProducts, nil
	}
	for _, id := range orderProducts {
		if id == *only {
			return []uuid.UUID{id}, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodePolicy, msgProductNotInOrd).
		WithDetails(map[string]any{"product_id": only.String()})
}
