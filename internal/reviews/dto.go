package reviews

import (
	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

// CreateInput carries a new review. OrderID marks it verified.
type CreateInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	Content   string
	Rating    *int
	OrderID   *uuid.UUID
}

// SubmitResult is returned by the public submission flow.
type SubmitResult struct {
	ReviewID uuid.UUID `json:"review_id"`
	Verified bool      `json:"verified"`
	Message  string    `json:"-"`
}

// AverageRating is the rounded mean over approved verified ratings.
type AverageRating struct {
	Average float64 `json:"average_rating"`
	Count   int64   `json:"review_count"`
}

// Bucket is one star level of the distribution.
type Bucket struct {
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Distribution is keyed by star value 1..5.
type Distribution map[int]Bucket

// Stats accompanies a product review listing.
type Stats struct {
	AverageRating float64      `json:"average_rating"`
	ReviewCount   int64        `json:"review_count"`
	TotalComments int64        `json:"total_comments"`
	Distribution  Distribution `json:"distribution"`
}

// ProductReviews is one page of a product's approved reviews.
type ProductReviews struct {
	Reviews    []ReviewRow     `json:"reviews"`
	Stats      Stats           `json:"stats"`
	Pagination pagination.Meta `json:"pagination"`
}

// ReviewListResult is one page of the admin listing.
type ReviewListResult struct {
	Reviews    []ReviewRow     `json:"reviews"`
	Pagination pagination.Meta `json:"pagination"`
}

// EditWindow reports how far into the edit window a review is.
type EditWindow struct {
	DaysPassed    int `json:"days_passed"`
	DaysRemaining int `json:"days_remaining"`
}

// EditEligibility answers whether the caller may still edit a review.
type EditEligibility struct {
	CanEdit       bool    `json:"can_edit"`
	Reason        *string `json:"reason"`
	DaysPassed    int     `json:"days_passed"`
	DaysRemaining *int    `json:"days_remaining,omitempty"`
}
