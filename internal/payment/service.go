package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qrmenu/internal/logger"
	"qrmenu/internal/models"
	"qrmenu/internal/payment/storage"
	"qrmenu/internal/utils"
)

var (
	ErrAttemptNotFound = errors.New("payment attempt not found")
	ErrValidation      = errors.New("validation failed")
)

// CheckoutProvider abstracts where the money actually moves. The simulator is
// the default; a real gateway slots in behind the same two calls.
type CheckoutProvider interface {
	Name() string
	// CreateSession opens a checkout session for the attempt and returns the
	// provider session ID plus the URL the customer is sent to.
	CreateSession(attempt *models.PaymentAttempt) (sessionID, checkoutURL string, err error)
	// Poll reports the provider-side status of a pending attempt.
	Poll(attempt *models.PaymentAttempt, now time.Time) (models.AttemptStatus, error)
}

// OrderPayments is the slice of the order service the cascade needs.
type OrderPayments interface {
	MarkPaid(orderID string) (*models.Order, error)
}

// SubscriptionActivator extends a restaurant's subscription after a
// subscription checkout settles.
type SubscriptionActivator interface {
	ActivateSubscription(restaurantID string) (*models.Restaurant, error)
}

type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

type Service struct {
	Store         storage.Store
	Provider      CheckoutProvider
	Orders        OrderPayments
	Subscriptions SubscriptionActivator
	Kafka         Publisher
	Topic         string
	Logger        *logger.Logger
}

// CreateCheckoutSession validates the request, opens a provider session and
// stores the pending attempt.
func (s *Service) CreateCheckoutSession(req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	attempt := &models.PaymentAttempt{
		ID:           utils.GeneratePaymentID(),
		Type:         req.Type,
		RestaurantID: req.RestaurantID,
		OrderID:      req.OrderID,
		Amount:       req.Amount,
		Provider:     s.Provider.Name(),
		Status:       models.AttemptPending,
		CreatedAt:    time.Now(),
	}

	sessionID, checkoutURL, err := s.Provider.CreateSession(attempt)
	if err != nil {
		s.Logger.Error("PAYMENT", fmt.Sprintf("provider %s failed to open session: %v", s.Provider.Name(), err))
		return nil, fmt.Errorf("failed to open checkout session: %w", err)
	}
	attempt.SessionID = sessionID

	if err := s.Store.SaveAttempt(attempt); err != nil {
		return nil, fmt.Errorf("failed to persist payment attempt: %w", err)
	}

	s.Logger.LogPayment("CHECKOUT", attempt.ID,
		fmt.Sprintf("opened %s session %s for %s (%.2f)", attempt.Provider, sessionID, attempt.Type, attempt.Amount))

	return &models.CheckoutResponse{
		AttemptID:   attempt.ID,
		SessionID:   sessionID,
		CheckoutURL: checkoutURL,
	}, nil
}

// CheckAttempt returns the attempt, first asking the provider whether a
// pending session has settled. Polling the simulator is what flips attempts
// to completed once the configured delay has passed.
func (s *Service) CheckAttempt(id string) (*models.PaymentAttempt, error) {
	attempt, err := s.Store.GetAttempt(id)
	if err != nil {
		if errors.Is(err, storage.ErrAttemptNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}

	if attempt.Status != models.AttemptPending {
		return attempt, nil
	}

	status, err := s.Provider.Poll(attempt, time.Now())
	if err != nil {
		s.Logger.Warn("PAYMENT", fmt.Sprintf("poll failed for attempt %s: %v", attempt.ID, err))
		return attempt, nil
	}
	if status == models.AttemptPending {
		return attempt, nil
	}

	if err := s.settle(attempt, status); err != nil {
		return nil, err
	}
	return attempt, nil
}

// ListAttempts returns a restaurant's attempts, newest first.
func (s *Service) ListAttempts(restaurantID string, limit, offset int) ([]*models.PaymentAttempt, error) {
	if restaurantID == "" {
		return nil, fmt.Errorf("%w: restaurant_id is required", ErrValidation)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Store.ListAttempts(restaurantID, limit, offset)
}

// HandleProviderEvent applies a settled-checkout event delivered by webhook
// or replayed off the payment events topic. Terminal attempts are left
// untouched so redelivery is harmless.
func (s *Service) HandleProviderEvent(event models.ProviderEvent) error {
	if event.SessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrValidation)
	}

	attempt, err := s.Store.GetAttemptBySession(event.SessionID)
	if err != nil {
		if errors.Is(err, storage.ErrAttemptNotFound) {
			return ErrAttemptNotFound
		}
		return err
	}

	if attempt.Status != models.AttemptPending {
		s.Logger.Info("PAYMENT", fmt.Sprintf("ignoring %s for settled attempt %s", event.Type, attempt.ID))
		return nil
	}

	switch event.Type {
	case models.EventCheckoutCompleted:
		return s.settle(attempt, models.AttemptCompleted)
	case models.EventCheckoutFailed:
		return s.settle(attempt, models.AttemptFailed)
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrValidation, event.Type)
	}
}

// settle moves a pending attempt to a terminal status and, on completion,
// runs the cascade: orders are marked paid, subscriptions extended.
func (s *Service) settle(attempt *models.PaymentAttempt, status models.AttemptStatus) error {
	attempt.Status = status
	attempt.CompletedAt = time.Now()

	if err := s.Store.UpdateAttempt(attempt); err != nil {
		return fmt.Errorf("failed to update payment attempt: %w", err)
	}

	s.Logger.LogPayment("SETTLE", attempt.ID, fmt.Sprintf("attempt settled as %s", status))

	if status == models.AttemptCompleted {
		switch attempt.Type {
		case models.AttemptOrder:
			if _, err := s.Orders.MarkPaid(attempt.OrderID); err != nil {
				s.Logger.Error("PAYMENT", fmt.Sprintf("failed to mark order %s paid: %v", attempt.OrderID, err))
			}
		case models.AttemptSubscription:
			if _, err := s.Subscriptions.ActivateSubscription(attempt.RestaurantID); err != nil {
				s.Logger.Error("PAYMENT", fmt.Sprintf("failed to activate subscription for %s: %v", attempt.RestaurantID, err))
			}
		}
	}

	s.publishEvent(attempt, status)
	return nil
}

func (s *Service) publishEvent(attempt *models.PaymentAttempt, status models.AttemptStatus) {
	if s.Kafka == nil {
		return
	}

	eventType := models.EventCheckoutCompleted
	if status == models.AttemptFailed {
		eventType = models.EventCheckoutFailed
	}

	payload, err := json.Marshal(models.ProviderEvent{
		Type:      eventType,
		SessionID: attempt.SessionID,
		Timestamp: time.Now(),
	})
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("failed to marshal payment event: %v", err))
		return
	}

	if err := s.Kafka.Publish(s.Topic, attempt.ID, payload); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("failed to publish payment event for %s: %v", attempt.ID, err))
	}
}

func validateCheckout(req models.CheckoutRequest) error {
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if req.RestaurantID == "" {
		return fmt.Errorf("%w: restaurant_id is required", ErrValidation)
	}
	switch req.Type {
	case models.AttemptOrder:
		if req.OrderID == "" {
			return fmt.Errorf("%w: order_id is required for order checkouts", ErrValidation)
		}
	case models.AttemptSubscription:
		// Restaurant ID already checked above.
	default:
		return fmt.Errorf("%w: unknown checkout type %q", ErrValidation, req.Type)
	}
	return nil
}
