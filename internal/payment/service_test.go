package payment

import (
	"errors"
	"testing"
	"time"

	"qrmenu/internal/logger"
	"qrmenu/internal/models"
	"qrmenu/internal/payment/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations for testing

type MockStore struct {
	attempts     map[string]*models.PaymentAttempt
	bySession    map[string]*models.PaymentAttempt
	shouldFailOn string
	errorMsg     string
}

func NewMockStore() *MockStore {
	return &MockStore{
		attempts:  make(map[string]*models.PaymentAttempt),
		bySession: make(map[string]*models.PaymentAttempt),
	}
}

func (m *MockStore) SaveAttempt(attempt *models.PaymentAttempt) error {
	if m.shouldFailOn == "SaveAttempt" {
		return errors.New(m.errorMsg)
	}
	m.attempts[attempt.ID] = attempt
	m.bySession[attempt.SessionID] = attempt
	return nil
}

func (m *MockStore) GetAttempt(id string) (*models.PaymentAttempt, error) {
	attempt, exists := m.attempts[id]
	if !exists {
		return nil, storage.ErrAttemptNotFound
	}
	return attempt, nil
}

func (m *MockStore) GetAttemptBySession(sessionID string) (*models.PaymentAttempt, error) {
	attempt, exists := m.bySession[sessionID]
	if !exists {
		return nil, storage.ErrAttemptNotFound
	}
	return attempt, nil
}

func (m *MockStore) UpdateAttempt(attempt *models.PaymentAttempt) error {
	if m.shouldFailOn == "UpdateAttempt" {
		return errors.New(m.errorMsg)
	}
	m.attempts[attempt.ID] = attempt
	m.bySession[attempt.SessionID] = attempt
	return nil
}

func (m *MockStore) ListAttempts(restaurantID string, limit, offset int) ([]*models.PaymentAttempt, error) {
	var out []*models.PaymentAttempt
	for _, a := range m.attempts {
		if a.RestaurantID == restaurantID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockStore) Close() error       { return nil }
func (m *MockStore) HealthCheck() error { return nil }

type MockOrders struct {
	paid []string
}

func (m *MockOrders) MarkPaid(orderID string) (*models.Order, error) {
	m.paid = append(m.paid, orderID)
	return &models.Order{ID: orderID, PaymentStatus: models.PaymentPaid}, nil
}

type MockSubscriptions struct {
	activated []string
}

func (m *MockSubscriptions) ActivateSubscription(restaurantID string) (*models.Restaurant, error) {
	m.activated = append(m.activated, restaurantID)
	return &models.Restaurant{ID: restaurantID, SubscriptionStatus: models.SubscriptionActive}, nil
}

type MockPublisher struct {
	published map[string][][]byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{published: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(topic string, key string, value []byte) error {
	m.published[topic] = append(m.published[topic], value)
	return nil
}

func newTestService(provider CheckoutProvider) (*Service, *MockStore, *MockOrders, *MockSubscriptions, *MockPublisher) {
	store := NewMockStore()
	orders := &MockOrders{}
	subs := &MockSubscriptions{}
	pub := NewMockPublisher()

	svc := &Service{
		Store:         store,
		Provider:      provider,
		Orders:        orders,
		Subscriptions: subs,
		Kafka:         pub,
		Topic:         "qrmenu.payment.events",
		Logger:        logger.NewLogger(),
	}
	return svc, store, orders, subs, pub
}

func TestCreateCheckoutSession_OrderPayment(t *testing.T) {
	svc, store, _, _, _ := newTestService(NewSimulator("http://localhost:8080", time.Minute))

	resp, err := svc.CreateCheckoutSession(models.CheckoutRequest{
		Type:         models.AttemptOrder,
		RestaurantID: "rest-1",
		OrderID:      "order-1",
		Amount:       27.00,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AttemptID)
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.CheckoutURL, resp.SessionID)

	saved := store.attempts[resp.AttemptID]
	require.NotNil(t, saved)
	assert.Equal(t, models.AttemptPending, saved.Status)
	assert.Equal(t, "simulated", saved.Provider)
}

func TestCreateCheckoutSession_Validation(t *testing.T) {
	svc, _, _, _, _ := newTestService(NewSimulator("http://localhost:8080", time.Minute))

	cases := []models.CheckoutRequest{
		{Type: models.AttemptOrder, RestaurantID: "rest-1", OrderID: "o", Amount: 0},
		{Type: models.AttemptOrder, OrderID: "o", Amount: 10},
		{Type: models.AttemptOrder, RestaurantID: "rest-1", Amount: 10},
		{Type: "loyalty-points", RestaurantID: "rest-1", Amount: 10},
	}
	for _, req := range cases {
		_, err := svc.CreateCheckoutSession(req)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestCheckAttempt_SimulatorSettlesAfterDelay(t *testing.T) {
	svc, store, orders, _, _ := newTestService(NewSimulator("http://localhost:8080", 50*time.Millisecond))

	resp, err := svc.CreateCheckoutSession(models.CheckoutRequest{
		Type:         models.AttemptOrder,
		RestaurantID: "rest-1",
		OrderID:      "order-1",
		Amount:       27.00,
	})
	require.NoError(t, err)

	// Backdate the attempt so the simulated delay has elapsed.
	store.attempts[resp.AttemptID].CreatedAt = time.Now().Add(-time.Minute)

	attempt, err := svc.CheckAttempt(resp.AttemptID)
	require.NoError(t, err)

	assert.Equal(t, models.AttemptCompleted, attempt.Status)
	assert.False(t, attempt.CompletedAt.IsZero())
	assert.Equal(t, []string{"order-1"}, orders.paid, "Settling an order checkout marks the order paid")
}

func TestCheckAttempt_StillPendingBeforeDelay(t *testing.T) {
	svc, _, orders, _, _ := newTestService(NewSimulator("http://localhost:8080", time.Hour))

	resp, err := svc.CreateCheckoutSession(models.CheckoutRequest{
		Type:         models.AttemptOrder,
		RestaurantID: "rest-1",
		OrderID:      "order-1",
		Amount:       27.00,
	})
	require.NoError(t, err)

	attempt, err := svc.CheckAttempt(resp.AttemptID)
	require.NoError(t, err)

	assert.Equal(t, models.AttemptPending, attempt.Status)
	assert.Empty(t, orders.paid)
}

func TestCheckAttempt_NotFound(t *testing.T) {
	svc, _, _, _, _ := newTestService(NewSimulator("http://localhost:8080", time.Minute))

	_, err := svc.CheckAttempt("ghost")
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestHandleProviderEvent_CompletesOrderAttempt(t *testing.T) {
	svc, store, orders, _, pub := newTestService(NewSimulator("http://localhost:8080", time.Hour))

	store.SaveAttempt(&models.PaymentAttempt{
		ID:           "pay-1",
		Type:         models.AttemptOrder,
		RestaurantID: "rest-1",
		OrderID:      "order-1",
		Amount:       27.00,
		SessionID:    "cs_test_1",
		Status:       models.AttemptPending,
		CreatedAt:    time.Now(),
	})

	err := svc.HandleProviderEvent(models.ProviderEvent{
		Type:      models.EventCheckoutCompleted,
		SessionID: "cs_test_1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.AttemptCompleted, store.attempts["pay-1"].Status)
	assert.Equal(t, []string{"order-1"}, orders.paid)
	assert.Len(t, pub.published["qrmenu.payment.events"], 1)
}

func TestHandleProviderEvent_SubscriptionCascade(t *testing.T) {
	svc, store, _, subs, _ := newTestService(NewSimulator("http://localhost:8080", time.Hour))

	store.SaveAttempt(&models.PaymentAttempt{
		ID:           "pay-1",
		Type:         models.AttemptSubscription,
		RestaurantID: "rest-1",
		Amount:       29.00,
		SessionID:    "cs_test_1",
		Status:       models.AttemptPending,
		CreatedAt:    time.Now(),
	})

	err := svc.HandleProviderEvent(models.ProviderEvent{
		Type:      models.EventCheckoutCompleted,
		SessionID: "cs_test_1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"rest-1"}, subs.activated)
}

func TestHandleProviderEvent_FailedCheckout(t *testing.T) {
	svc, store, orders, _, _ := newTestService(NewSimulator("http://localhost:8080", time.Hour))

	store.SaveAttempt(&models.PaymentAttempt{
		ID:           "pay-1",
		Type:         models.AttemptOrder,
		RestaurantID: "rest-1",
		OrderID:      "order-1",
		SessionID:    "cs_test_1",
		Status:       models.AttemptPending,
		CreatedAt:    time.Now(),
	})

	err := svc.HandleProviderEvent(models.ProviderEvent{
		Type:      models.EventCheckoutFailed,
		SessionID: "cs_test_1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.AttemptFailed, store.attempts["pay-1"].Status)
	assert.Empty(t, orders.paid, "A failed checkout must not mark the order paid")
}

func TestHandleProviderEvent_IdempotentOnRedelivery(t *testing.T) {
	svc, store, orders, _, _ := newTestService(NewSimulator("http://localhost:8080", time.Hour))

	store.SaveAttempt(&models.PaymentAttempt{
		ID:           "pay-1",
		Type:         models.AttemptOrder,
		RestaurantID: "rest-1",
		OrderID:      "order-1",
		SessionID:    "cs_test_1",
		Status:       models.AttemptPending,
		CreatedAt:    time.Now(),
	})

	event := models.ProviderEvent{Type: models.EventCheckoutCompleted, SessionID: "cs_test_1"}
	require.NoError(t, svc.HandleProviderEvent(event))
	require.NoError(t, svc.HandleProviderEvent(event))
	require.NoError(t, svc.HandleProviderEvent(event))

	assert.Len(t, orders.paid, 1, "Redelivered events must not re-run the cascade")
}

func TestHandleProviderEvent_Validation(t *testing.T) {
	svc, store, _, _, _ := newTestService(NewSimulator("http://localhost:8080", time.Hour))

	err := svc.HandleProviderEvent(models.ProviderEvent{Type: models.EventCheckoutCompleted})
	assert.ErrorIs(t, err, ErrValidation)

	err = svc.HandleProviderEvent(models.ProviderEvent{Type: models.EventCheckoutCompleted, SessionID: "ghost"})
	assert.ErrorIs(t, err, ErrAttemptNotFound)

	store.SaveAttempt(&models.PaymentAttempt{
		ID: "pay-1", SessionID: "cs_test_1", Status: models.AttemptPending,
	})
	err = svc.HandleProviderEvent(models.ProviderEvent{Type: "checkout.session.teleported", SessionID: "cs_test_1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListAttempts_ClampsLimit(t *testing.T) {
	svc, _, _, _, _ := newTestService(NewSimulator("http://localhost:8080", time.Hour))

	_, err := svc.ListAttempts("", 10, 0)
	assert.ErrorIs(t, err, ErrValidation)

	attempts, err := svc.ListAttempts("rest-1", -5, 0)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestSimulator_PollHonorsDelay(t *testing.T) {
	sim := NewSimulator("http://localhost:8080", 5*time.Minute)
	created := time.Now()
	attempt := &models.PaymentAttempt{ID: "pay-1", CreatedAt: created}

	status, err := sim.Poll(attempt, created.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.AttemptPending, status)

	status, err = sim.Poll(attempt, created.Add(6*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.AttemptCompleted, status)
}
