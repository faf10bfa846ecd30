package models

import (
	"time"

	"github.com/uptrace/bun"
)

type AttemptType string

const (
	AttemptOrder        AttemptType = "order"
	AttemptSubscription AttemptType = "subscription"
)

type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptCompleted AttemptStatus = "completed"
	AttemptFailed    AttemptStatus = "failed"
)

// PaymentAttempt records one checkout session handed to a payment provider.
type PaymentAttempt struct {
	bun.BaseModel `bun:"table:payment_attempts"`

	ID           string        `bun:"id,pk" json:"id"`
	Type         AttemptType   `bun:"type,notnull" json:"type"`
	RestaurantID string        `bun:"restaurant_id,notnull" json:"restaurant_id"`
	OrderID      string        `bun:"order_id,nullzero" json:"order_id,omitempty"`
	Amount       float64       `bun:"amount,notnull" json:"amount"`
	SessionID    string        `bun:"session_id,unique,notnull" json:"session_id"`
	Provider     string        `bun:"provider,notnull" json:"provider"`
	Status       AttemptStatus `bun:"status,notnull" json:"status"`
	CreatedAt    time.Time     `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	CompletedAt  time.Time     `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
}

type CheckoutRequest struct {
	Type         AttemptType `json:"type"`
	RestaurantID string      `json:"restaurant_id"`
	OrderID      string      `json:"order_id,omitempty"`
	Amount       float64     `json:"amount"`
}

type CheckoutResponse struct {
	AttemptID   string `json:"attempt_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// ProviderEvent is the webhook / event-stream payload replayed by the
// payment provider after a checkout session settles.
type ProviderEvent struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutFailed    = "checkout.session.failed"
)
