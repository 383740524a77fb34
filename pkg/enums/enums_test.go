package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCartStatus(t *testing.T) {
	status, err := ParseCartStatus("checked_out")
	require.NoError(t, err)
	assert.Equal(t, CartStatusCheckedOut, status)

	_, err = ParseCartStatus("converted")
	assert.Error(t, err)
}

func TestOrderStatusCancellable(t *testing.T) {
	assert.True(t, OrderStatusPending.Cancellable())
	assert.True(t, OrderStatusConfirmed.Cancellable())
	assert.False(t, OrderStatusShipping.Cancellable())
	assert.False(t, OrderStatusDelivered.Cancellable())
	assert.False(t, OrderStatusCancelled.Cancellable())
}

func TestOrderStatusTransitionsMoveForward(t *testing.T) {
	assert.True(t, OrderStatusPending.CanTransitionTo(OrderStatusConfirmed))
	assert.True(t, OrderStatusConfirmed.CanTransitionTo(OrderStatusShipping))
	assert.True(t, OrderStatusShipping.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusPending))
	assert.False(t, OrderStatusShipping.CanTransitionTo(OrderStatusCancelled))
	assert.False(t, OrderStatusCancelled.CanTransitionTo(OrderStatusConfirmed))
	assert.False(t, OrderStatusPending.CanTransitionTo(OrderStatusDelivered))
}

func TestParseRoleAndReviewStatus(t *testing.T) {
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)
	_, err = ParseRole("root")
	assert.Error(t, err)

	status, err := ParseReviewStatus("spam")
	require.NoError(t, err)
	assert.Equal(t, ReviewStatusSpam, status)
	assert.False(t, ReviewStatus("deleted").IsValid())
}

func TestPaymentStatusValues(t *testing.T) {
	assert.True(t, PaymentStatusRefunded.IsValid())
	_, err := ParsePaymentStatus("settled")
	assert.Error(t, err)
}
