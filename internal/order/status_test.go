package order

import (
	"testing"
	"time"

	"qrmenu/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(status models.OrderStatus) *models.Order {
	return &models.Order{
		ID:            "order-1",
		RestaurantID:  "rest-1",
		OrderNumber:   7,
		Status:        status,
		PaymentStatus: models.PaymentPending,
	}
}

func TestCanTransition_ForwardOnly(t *testing.T) {
	assert.True(t, CanTransition(models.OrderPending, models.OrderConfirmed))
	assert.True(t, CanTransition(models.OrderConfirmed, models.OrderPreparing))
	assert.True(t, CanTransition(models.OrderPreparing, models.OrderReady))
	assert.True(t, CanTransition(models.OrderReady, models.OrderCompleted))

	// Going backwards is never legal.
	assert.False(t, CanTransition(models.OrderConfirmed, models.OrderPending))
	assert.False(t, CanTransition(models.OrderReady, models.OrderPreparing))
	assert.False(t, CanTransition(models.OrderCompleted, models.OrderReady))
}

func TestCanTransition_SkippingAllowed(t *testing.T) {
	// A counter order can be handed over without the intermediate steps.
	assert.True(t, CanTransition(models.OrderPending, models.OrderReady))
	assert.True(t, CanTransition(models.OrderConfirmed, models.OrderCompleted))
	assert.True(t, CanTransition(models.OrderPreparing, models.OrderCompleted))
}

func TestCanTransition_TerminalStatesAreClosed(t *testing.T) {
	for _, terminal := range []models.OrderStatus{models.OrderCompleted, models.OrderCancelled} {
		for _, target := range []models.OrderStatus{
			models.OrderPending, models.OrderConfirmed, models.OrderPreparing,
			models.OrderReady, models.OrderCompleted, models.OrderCancelled,
		} {
			assert.False(t, CanTransition(terminal, target), "%s -> %s must be rejected", terminal, target)
		}
	}
}

func TestApplyTransition_ConfirmedStampsEstimate(t *testing.T) {
	o := newOrder(models.OrderPending)
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	err := ApplyTransition(o, models.OrderConfirmed, now, TransitionOptions{})
	require.NoError(t, err)

	assert.Equal(t, models.OrderConfirmed, o.Status)
	assert.Equal(t, now, o.ConfirmedAt)
	assert.Equal(t, now.Add(ReadyEstimateOffset), o.EstimatedReadyAt)
}

func TestApplyTransition_ConfirmedWithKitchenEstimate(t *testing.T) {
	o := newOrder(models.OrderPending)
	now := time.Now()
	eta := now.Add(45 * time.Minute)

	err := ApplyTransition(o, models.OrderConfirmed, now, TransitionOptions{EstimatedReadyAt: &eta})
	require.NoError(t, err)

	assert.Equal(t, eta, o.EstimatedReadyAt)
}

func TestApplyTransition_TimestampsPerStatus(t *testing.T) {
	o := newOrder(models.OrderPending)
	now := time.Now()

	require.NoError(t, ApplyTransition(o, models.OrderConfirmed, now, TransitionOptions{}))
	require.NoError(t, ApplyTransition(o, models.OrderPreparing, now, TransitionOptions{}))
	require.NoError(t, ApplyTransition(o, models.OrderReady, now, TransitionOptions{}))
	require.NoError(t, ApplyTransition(o, models.OrderCompleted, now, TransitionOptions{}))

	assert.False(t, o.ConfirmedAt.IsZero())
	assert.False(t, o.PreparationStartedAt.IsZero())
	assert.False(t, o.ReadyAt.IsZero())
	assert.False(t, o.CompletedAt.IsZero())
}

func TestApplyTransition_CompletedSettlesUnpaidOrder(t *testing.T) {
	o := newOrder(models.OrderConfirmed)
	now := time.Now()

	err := ApplyTransition(o, models.OrderCompleted, now, TransitionOptions{})
	require.NoError(t, err)

	assert.Equal(t, models.OrderCompleted, o.Status)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, now, o.PaidAt)
}

func TestApplyTransition_CompletedKeepsExistingPaidAt(t *testing.T) {
	o := newOrder(models.OrderReady)
	paidAt := time.Now().Add(-10 * time.Minute)
	o.PaymentStatus = models.PaymentPaid
	o.PaidAt = paidAt

	err := ApplyTransition(o, models.OrderCompleted, time.Now(), TransitionOptions{})
	require.NoError(t, err)

	assert.Equal(t, paidAt, o.PaidAt)
}

func TestApplyTransition_CancelledForcesRefund(t *testing.T) {
	o := newOrder(models.OrderConfirmed)
	o.PaymentStatus = models.PaymentPaid
	now := time.Now()

	err := ApplyTransition(o, models.OrderCancelled, now, TransitionOptions{})
	require.NoError(t, err)

	assert.Equal(t, models.OrderCancelled, o.Status)
	assert.Equal(t, models.PaymentRefunded, o.PaymentStatus)
	assert.Equal(t, now, o.CancelledAt)
}

func TestApplyTransition_CancelRejectedOnceReady(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderReady, models.OrderCompleted} {
		o := newOrder(status)
		err := ApplyTransition(o, models.OrderCancelled, time.Now(), TransitionOptions{})
		assert.ErrorIs(t, err, ErrCancelNotAllowed, "cancel from %s", status)
		assert.Equal(t, status, o.Status, "order must be untouched after a rejected cancel")
	}
}

func TestApplyTransition_IllegalMoveLeavesOrderUntouched(t *testing.T) {
	o := newOrder(models.OrderReady)
	err := ApplyTransition(o, models.OrderPreparing, time.Now(), TransitionOptions{})

	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, models.OrderReady, o.Status)
	assert.True(t, o.PreparationStartedAt.IsZero())
}

func TestApplyTransition_UnknownStatusRejected(t *testing.T) {
	o := newOrder(models.OrderPending)
	err := ApplyTransition(o, models.OrderStatus("shipped"), time.Now(), TransitionOptions{})
	assert.ErrorIs(t, err, ErrUnknownStatus)

	err = ApplyTransition(o, "", time.Now(), TransitionOptions{PaymentStatus: "wired"})
	assert.ErrorIs(t, err, ErrUnknownPaymentStatus)
}

func TestApplyTransition_PaymentOnlyUpdate(t *testing.T) {
	o := newOrder(models.OrderPreparing)
	now := time.Now()

	err := ApplyTransition(o, "", now, TransitionOptions{PaymentStatus: models.PaymentPaid})
	require.NoError(t, err)

	// Status untouched, payment settled.
	assert.Equal(t, models.OrderPreparing, o.Status)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, now, o.PaidAt)
}

func TestApplyTransition_StatusAndPaymentInOneCall(t *testing.T) {
	o := newOrder(models.OrderPending)
	now := time.Now()

	err := ApplyTransition(o, models.OrderConfirmed, now, TransitionOptions{PaymentStatus: models.PaymentPaid})
	require.NoError(t, err)

	assert.Equal(t, models.OrderConfirmed, o.Status)
	assert.Equal(t, models.PaymentPaid, o.PaymentStatus)
}
