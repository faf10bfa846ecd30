package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID            string        `bun:"id,pk" json:"id"`
	RestaurantID  string        `bun:"restaurant_id,notnull,unique:orders_restaurant_number" json:"restaurant_id"`
	OrderNumber   int           `bun:"order_number,notnull,unique:orders_restaurant_number" json:"order_number"`
	CustomerName  string        `bun:"customer_name,notnull" json:"customer_name"`
	CustomerPhone string        `bun:"customer_phone,notnull" json:"customer_phone"`
	CustomerEmail string        `bun:"customer_email,nullzero" json:"customer_email,omitempty"`
	TableNumber   string        `bun:"table_number,nullzero" json:"table_number,omitempty"`
	TotalAmount   float64       `bun:"total_amount,notnull" json:"total_amount"`
	Status        OrderStatus   `bun:"status,notnull" json:"status"`
	PaymentStatus PaymentStatus `bun:"payment_status,notnull" json:"payment_status"`

	EstimatedReadyAt     time.Time `bun:"estimated_ready_at,nullzero" json:"estimated_ready_at,omitempty"`
	ConfirmedAt          time.Time `bun:"confirmed_at,nullzero" json:"confirmed_at,omitempty"`
	PreparationStartedAt time.Time `bun:"preparation_started_at,nullzero" json:"preparation_started_at,omitempty"`
	ReadyAt              time.Time `bun:"ready_at,nullzero" json:"ready_at,omitempty"`
	CompletedAt          time.Time `bun:"completed_at,nullzero" json:"completed_at,omitempty"`
	CancelledAt          time.Time `bun:"cancelled_at,nullzero" json:"cancelled_at,omitempty"`
	PaidAt               time.Time `bun:"paid_at,nullzero" json:"paid_at,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`

	Items []*OrderLineItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
}

type OrderLineItem struct {
	bun.BaseModel `bun:"table:order_line_items"`

	ID         string `bun:"id,pk" json:"id"`
	OrderID    string `bun:"order_id,notnull" json:"order_id"`
	MenuItemID string `bun:"menu_item_id,notnull" json:"menu_item_id"`
	ItemName   string `bun:"item_name,notnull" json:"item_name"`
	Quantity   int    `bun:"quantity,notnull" json:"quantity"`
	// Unit price captured at order time, never recomputed from the catalog.
	UnitPrice          float64 `bun:"unit_price,notnull" json:"unit_price"`
	Customizations     string  `bun:"customizations,nullzero" json:"customizations,omitempty"`
	CustomizationPrice float64 `bun:"customization_price,notnull" json:"customization_price"`
	Instructions       string  `bun:"instructions,nullzero" json:"instructions,omitempty"`
}

type OrderItemRequest struct {
	MenuItemID     string              `json:"menu_item_id"`
	Quantity       int                 `json:"quantity"`
	Customizations map[string][]string `json:"customizations,omitempty"`
	Instructions   string              `json:"instructions,omitempty"`
}

type OrderRequest struct {
	RestaurantID  string             `json:"restaurant_id"`
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	TableNumber   string             `json:"table_number,omitempty"`
	Items         []OrderItemRequest `json:"items"`
}

// StatusUpdateRequest carries a requested status transition together with the
// optional payment status update accepted by the same operation.
type StatusUpdateRequest struct {
	Status           OrderStatus   `json:"status"`
	PaymentStatus    PaymentStatus `json:"payment_status,omitempty"`
	EstimatedReadyAt *time.Time    `json:"estimated_ready_at,omitempty"`
}
