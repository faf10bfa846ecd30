package order

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qrmenu/internal/config"
	"qrmenu/internal/customization"
	"qrmenu/internal/logger"
	"qrmenu/internal/models"
	"qrmenu/internal/order/db"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrValidation    = errors.New("validation failed")
	ErrOrderLocked   = errors.New("order is being updated by another request")
)

// orderNumberRetries bounds how often PlaceOrder re-reads the order number
// sequence after losing a concurrent-creation race.
const orderNumberRetries = 3

// SelectionError carries the per-category customization error map for one
// offending line item.
type SelectionError struct {
	MenuItemID string
	Fields     map[string]string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("invalid customization selection for item %s", e.MenuItemID)
}

func (e *SelectionError) Unwrap() error { return ErrValidation }

type DBLayer interface {
	CreateOrder(order *models.Order, items []*models.OrderLineItem) error
	GetOrderByID(id string) (*models.Order, error)
	ListOrders(restaurantID string, status models.OrderStatus, limit int) ([]*models.Order, error)
	UpdateOrder(order models.Order) error
	NextOrderNumber(restaurantID string) (int, error)
}

// Catalog is the slice of the menu service the order flow needs.
type Catalog interface {
	GetItemWithCustomizations(id string) (*models.MenuItem, error)
}

type Locker interface {
	Acquire(orderID, token string) (bool, error)
	Release(orderID, token string) error
}

type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

// Notifier feeds live order events to dashboard listeners.
type Notifier interface {
	NotifyOrder(order *models.Order)
}

type OrderService struct {
	DB      DBLayer
	Catalog Catalog
	Locks   Locker
	Kafka   Publisher
	Feed    Notifier
	Topics  config.TopicConfig
	Logger  *logger.Logger
}

func NewOrderService(db DBLayer, catalog Catalog, locks Locker, kafka Publisher, feed Notifier, topics config.TopicConfig, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:      db,
		Catalog: catalog,
		Locks:   locks,
		Kafka:   kafka,
		Feed:    feed,
		Topics:  topics,
		Logger:  log,
	}
}

// PlaceOrder builds an order from a customer cart. Unit prices and item
// names are captured at order time so later catalog edits never change what
// the customer agreed to pay.
func (s *OrderService) PlaceOrder(req models.OrderRequest) (*models.Order, error) {
	if req.RestaurantID == "" {
		return nil, fmt.Errorf("%w: restaurant_id is required", ErrValidation)
	}
	if req.CustomerName == "" || req.CustomerPhone == "" {
		return nil, fmt.Errorf("%w: customer name and phone are required", ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	now := time.Now()
	orderID := uuid.NewString()

	var lineItems []*models.OrderLineItem
	var total float64

	for _, itemReq := range req.Items {
		if itemReq.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for item %s", ErrValidation, itemReq.MenuItemID)
		}

		item, err := s.Catalog.GetItemWithCustomizations(itemReq.MenuItemID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: menu item %s not found", ErrValidation, itemReq.MenuItemID)
			}
			return nil, fmt.Errorf("failed to load menu item %s: %w", itemReq.MenuItemID, err)
		}
		if !item.Available {
			return nil, fmt.Errorf("%w: menu item %q is not available", ErrValidation, item.Name)
		}

		sel := customization.Selection(itemReq.Customizations)
		if fieldErrs := customization.Validate(item.Customizations, sel); len(fieldErrs) > 0 {
			return nil, &SelectionError{MenuItemID: item.ID, Fields: fieldErrs}
		}
		delta := customization.PriceDelta(item.Customizations, sel)

		var selJSON string
		if len(sel) > 0 {
			raw, err := json.Marshal(sel)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize customizations: %w", err)
			}
			selJSON = string(raw)
		}

		lineItems = append(lineItems, &models.OrderLineItem{
			ID:                 uuid.NewString(),
			OrderID:            orderID,
			MenuItemID:         item.ID,
			ItemName:           item.Name,
			Quantity:           itemReq.Quantity,
			UnitPrice:          item.Price,
			Customizations:     selJSON,
			CustomizationPrice: delta,
			Instructions:       itemReq.Instructions,
		})
		total += float64(itemReq.Quantity) * (item.Price + delta)
	}

	order := &models.Order{
		ID:            orderID,
		RestaurantID:  req.RestaurantID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		TableNumber:   req.TableNumber,
		TotalAmount:   total,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
	}

	// Two customers ordering at once can read the same sequence value; the
	// unique constraint on (restaurant_id, order_number) turns the loser into
	// a retry with a fresh number.
	createErr := db.ErrDuplicateOrderNumber
	for attempt := 0; attempt < orderNumberRetries && errors.Is(createErr, db.ErrDuplicateOrderNumber); attempt++ {
		number, err := s.DB.NextOrderNumber(req.RestaurantID)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate order number: %w", err)
		}
		order.OrderNumber = number
		createErr = s.DB.CreateOrder(order, lineItems)
	}
	if createErr != nil {
		return nil, fmt.Errorf("failed to create order: %w", createErr)
	}
	order.Items = lineItems

	s.Logger.LogOrder("CREATE", order.ID, fmt.Sprintf("order #%d placed for restaurant %s, total %.2f", order.OrderNumber, order.RestaurantID, order.TotalAmount))

	s.publish(s.Topics.OrderCreated, order)
	s.notify(order)

	return order, nil
}

func (s *OrderService) GetOrder(id string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListOrders(restaurantID string, status models.OrderStatus, limit int) ([]*models.Order, error) {
	if restaurantID == "" {
		return nil, fmt.Errorf("%w: restaurant_id is required", ErrValidation)
	}
	return s.DB.ListOrders(restaurantID, status, limit)
}

// UpdateStatus runs one atomic transition: status move, timestamp stamping
// and payment status update all happen under the per-order lock.
func (s *OrderService) UpdateStatus(id string, req models.StatusUpdateRequest) (*models.Order, error) {
	token := uuid.NewString()
	ok, err := s.Locks.Acquire(id, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOrderLocked, id)
	}
	defer func() {
		if err := s.Locks.Release(id, token); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("failed to release lock for order %s: %v", id, err))
		}
	}()

	order, err := s.GetOrder(id)
	if err != nil {
		return nil, err
	}

	opts := TransitionOptions{
		PaymentStatus:    req.PaymentStatus,
		EstimatedReadyAt: req.EstimatedReadyAt,
	}
	if err := ApplyTransition(order, req.Status, time.Now(), opts); err != nil {
		return nil, err
	}

	if err := s.DB.UpdateOrder(*order); err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}

	s.Logger.LogOrder("STATUS", order.ID, fmt.Sprintf("order #%d moved to %s (payment %s)", order.OrderNumber, order.Status, order.PaymentStatus))

	topic := s.Topics.OrderStatus
	if order.Status == models.OrderCancelled {
		topic = s.Topics.OrderCancelled
	}
	s.publish(topic, order)
	s.notify(order)

	return order, nil
}

// CancelOrder is the DELETE semantics: a soft cancel through the state
// machine, rejected once the order is ready or completed.
func (s *OrderService) CancelOrder(id string) (*models.Order, error) {
	return s.UpdateStatus(id, models.StatusUpdateRequest{Status: models.OrderCancelled})
}

// MarkPaid is the payment cascade entry point: a settled checkout session
// forces the order's payment status to paid without touching its status.
func (s *OrderService) MarkPaid(id string) (*models.Order, error) {
	return s.UpdateStatus(id, models.StatusUpdateRequest{PaymentStatus: models.PaymentPaid})
}

// publish is best-effort: a dead broker must not fail the order flow.
func (s *OrderService) publish(topic string, order *models.Order) {
	if s.Kafka == nil {
		return
	}
	value, err := json.Marshal(order)
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to marshal order %s: %v", order.ID, err))
		return
	}
	if err := s.Kafka.Publish(topic, order.ID, value); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("publish to %s failed for order %s: %v", topic, order.ID, err))
	}
}

func (s *OrderService) notify(order *models.Order) {
	if s.Feed != nil {
		s.Feed.NotifyOrder(order)
	}
}
