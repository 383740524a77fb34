package enums

import "fmt"

// ReviewStatus is the moderation state of a product review.
type ReviewStatus string

const (
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusHidden   ReviewStatus = "hidden"
	ReviewStatusSpam     ReviewStatus = "spam"
)

var validReviewStatuses = []ReviewStatus{
	ReviewStatusApproved,
	ReviewStatusHidden,
	ReviewStatusSpam,
}

func (r ReviewStatus) String() string {
	return string(r)
}

func (r ReviewStatus) IsValid() bool {
	for _, candidate := range validReviewStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReviewStatus converts raw input into a ReviewStatus.
func ParseReviewStatus(value string) (ReviewStatus, error) {
	for _, candidate := range validReviewStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid review status %q", value)
}

// CommentStatus marks product comments as visible or soft deleted.
type CommentStatus string

const (
	CommentStatusActive  CommentStatus = "active"
	CommentStatusDeleted CommentStatus = "deleted"
)

func (c CommentStatus) String() string {
	return string(c)
}
