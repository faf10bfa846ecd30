package payment

import (
	"errors"
	"fmt"
	"time"

	"qrmenu/internal/logger"
	"qrmenu/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

// StripeProvider runs checkouts through Stripe hosted checkout sessions.
// Selected with PAYMENT_PROVIDER=stripe; completion still arrives through the
// webhook, polling only catches sessions the webhook missed.
type StripeProvider struct {
	client  *client.API
	baseURL string
	log     *logger.Logger
}

func NewStripeProvider(secretKey, baseURL string, log *logger.Logger) (*StripeProvider, error) {
	if secretKey == "" {
		log.Error("PAYMENT", "STRIPE_SECRET_KEY not configured")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	if sc == nil {
		log.Error("PAYMENT", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("PAYMENT", "Stripe client initialized successfully")
	return &StripeProvider{client: sc, baseURL: baseURL, log: log}, nil
}

func (p *StripeProvider) Name() string {
	return "stripe"
}

func (p *StripeProvider) CreateSession(attempt *models.PaymentAttempt) (string, string, error) {
	description := "Order payment"
	if attempt.Type == models.AttemptSubscription {
		description = "Subscription renewal"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.baseURL + "/pay/success"),
		CancelURL:  stripe.String(p.baseURL + "/pay/cancelled"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
					// Stripe amounts are in the smallest currency unit.
					UnitAmount: stripe.Int64(int64(attempt.Amount * 100)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"attempt_id":    attempt.ID,
			"restaurant_id": attempt.RestaurantID,
			"order_id":      attempt.OrderID,
		},
	}

	sess, err := p.client.CheckoutSessions.New(params)
	if err != nil {
		p.log.Error("PAYMENT", fmt.Sprintf("Failed to create Stripe checkout session: %v", err))
		return "", "", fmt.Errorf("stripe checkout session: %w", err)
	}

	p.log.Info("PAYMENT", fmt.Sprintf("Stripe checkout session created: %s", sess.ID))
	return sess.ID, sess.URL, nil
}

func (p *StripeProvider) Poll(attempt *models.PaymentAttempt, _ time.Time) (models.AttemptStatus, error) {
	sess, err := p.client.CheckoutSessions.Get(attempt.SessionID, nil)
	if err != nil {
		return models.AttemptPending, fmt.Errorf("stripe session lookup: %w", err)
	}

	switch {
	case sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return models.AttemptCompleted, nil
	case sess.Status == stripe.CheckoutSessionStatusExpired:
		return models.AttemptFailed, nil
	default:
		return models.AttemptPending, nil
	}
}
