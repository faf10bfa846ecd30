package order

import (
	"errors"
	"fmt"
	"time"

	"qrmenu/internal/models"
)

var (
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrUnknownPaymentStatus = errors.New("unknown payment status")
	ErrIllegalTransition    = errors.New("illegal status transition")
	ErrCancelNotAllowed     = errors.New("order can no longer be cancelled")
)

// ReadyEstimateOffset is the flat heuristic applied when a kitchen confirms
// an order without supplying its own estimate.
const ReadyEstimateOffset = 20 * time.Minute

// transitions maps each status to the set of statuses reachable from it.
// Progress is strictly forward; skipping intermediate steps is allowed
// (a counter order can go straight from confirmed to completed). The two
// terminal statuses accept nothing.
var transitions = map[models.OrderStatus]map[models.OrderStatus]bool{
	models.OrderPending: {
		models.OrderConfirmed: true,
		models.OrderPreparing: true,
		models.OrderReady:     true,
		models.OrderCompleted: true,
		models.OrderCancelled: true,
	},
	models.OrderConfirmed: {
		models.OrderPreparing: true,
		models.OrderReady:     true,
		models.OrderCompleted: true,
		models.OrderCancelled: true,
	},
	models.OrderPreparing: {
		models.OrderReady:     true,
		models.OrderCompleted: true,
		models.OrderCancelled: true,
	},
	models.OrderReady: {
		models.OrderCompleted: true,
	},
	models.OrderCompleted: {},
	models.OrderCancelled: {},
}

var validPaymentStatuses = map[models.PaymentStatus]bool{
	models.PaymentPending:  true,
	models.PaymentPaid:     true,
	models.PaymentFailed:   true,
	models.PaymentRefunded: true,
}

// TransitionOptions carries the optional companions of a status transition.
type TransitionOptions struct {
	// Direct payment status update applied in the same operation. Forced
	// overrides (completed, cancelled) win over it.
	PaymentStatus models.PaymentStatus
	// Kitchen-supplied ready estimate used instead of the flat offset.
	EstimatedReadyAt *time.Time
}

// CanTransition reports whether target is reachable from current.
func CanTransition(current, target models.OrderStatus) bool {
	targets, ok := transitions[current]
	if !ok {
		return false
	}
	return targets[target]
}

// ApplyTransition mutates o in place: it moves the order to target, stamps
// the per-status timestamp, and applies payment status side effects. Status
// and payment status are owned by this single operation so the two fields
// can never be torn apart by separate writes.
//
// Passing an empty target applies only the payment status update.
func ApplyTransition(o *models.Order, target models.OrderStatus, now time.Time, opts TransitionOptions) error {
	if opts.PaymentStatus != "" && !validPaymentStatuses[opts.PaymentStatus] {
		return fmt.Errorf("%w: %q", ErrUnknownPaymentStatus, opts.PaymentStatus)
	}

	if target != "" {
		if _, ok := transitions[target]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownStatus, target)
		}
		if !CanTransition(o.Status, target) {
			if target == models.OrderCancelled {
				return fmt.Errorf("%w: status is %q", ErrCancelNotAllowed, o.Status)
			}
			return fmt.Errorf("%w: %q -> %q", ErrIllegalTransition, o.Status, target)
		}
	}

	if opts.PaymentStatus != "" {
		setPaymentStatus(o, opts.PaymentStatus, now)
	}

	switch target {
	case "":
		// Payment-only update.
	case models.OrderConfirmed:
		o.ConfirmedAt = now
		if opts.EstimatedReadyAt != nil {
			o.EstimatedReadyAt = *opts.EstimatedReadyAt
		} else {
			o.EstimatedReadyAt = now.Add(ReadyEstimateOffset)
		}
	case models.OrderPreparing:
		o.PreparationStartedAt = now
	case models.OrderReady:
		o.ReadyAt = now
	case models.OrderCompleted:
		o.CompletedAt = now
		// Cash on completion: an order handed over unpaid is settled at
		// the counter.
		if o.PaymentStatus == models.PaymentPending {
			setPaymentStatus(o, models.PaymentPaid, now)
		}
	case models.OrderCancelled:
		o.CancelledAt = now
		setPaymentStatus(o, models.PaymentRefunded, now)
	}

	if target != "" {
		o.Status = target
	}
	o.UpdatedAt = now
	return nil
}

func setPaymentStatus(o *models.Order, status models.PaymentStatus, now time.Time) {
	o.PaymentStatus = status
	if status == models.PaymentPaid && o.PaidAt.IsZero() {
		o.PaidAt = now
	}
}
