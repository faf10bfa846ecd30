package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"qrmenu/internal/logger"
	"qrmenu/internal/models"
	"qrmenu/internal/payment"
	"qrmenu/internal/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler exposes the checkout API as a gin sub-router mounted under
// the main chi mux.
type PaymentHandler struct {
	payments *payment.Service
	logger   *logger.Logger
}

func NewPaymentHandler(payments *payment.Service, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   log,
	}
}

// Routes builds the gin engine for the authenticated checkout API.
func (h *PaymentHandler) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/checkout", h.CreateCheckout)
	r.GET("/attempts/:attemptId", h.GetAttempt)
	r.GET("/attempts", h.ListAttempts)

	return r
}

// WebhookRoutes builds the engine for the unauthenticated provider webhook,
// mounted outside the OIDC group.
func (h *PaymentHandler) WebhookRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/payment", h.Webhook)

	return r
}

// CreateCheckout opens a checkout session for an order or a subscription
// renewal.
func (h *PaymentHandler) CreateCheckout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	resp, err := h.payments.CreateCheckoutSession(req)
	if err != nil {
		if errors.Is(err, payment.ErrValidation) {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", err.Error()))
			return
		}
		h.logger.Error("PAYMENT", fmt.Sprintf("checkout failed: %v", err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Checkout failed", "internal server error"))
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("checkout session created", resp))
}

// GetAttempt polls a payment attempt. For simulated checkouts this is the
// call that settles the attempt once the delay has passed.
func (h *PaymentHandler) GetAttempt(c *gin.Context) {
	attempt, err := h.payments.CheckAttempt(c.Param("attemptId"))
	if err != nil {
		if errors.Is(err, payment.ErrAttemptNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Not found", err.Error()))
			return
		}
		h.logger.Error("PAYMENT", fmt.Sprintf("attempt lookup failed: %v", err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Lookup failed", "internal server error"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("", attempt))
}

// ListAttempts returns a restaurant's payment history.
func (h *PaymentHandler) ListAttempts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	attempts, err := h.payments.ListAttempts(c.Query("restaurant_id"), limit, offset)
	if err != nil {
		if errors.Is(err, payment.ErrValidation) {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", err.Error()))
			return
		}
		h.logger.Error("PAYMENT", fmt.Sprintf("attempt listing failed: %v", err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Listing failed", "internal server error"))
		return
	}
	if attempts == nil {
		attempts = []*models.PaymentAttempt{}
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("", attempts))
}

// Webhook receives settled-checkout events from the provider.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var event models.ProviderEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid event payload", err.Error()))
		return
	}

	if err := h.payments.HandleProviderEvent(event); err != nil {
		switch {
		case errors.Is(err, payment.ErrValidation):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid event", err.Error()))
		case errors.Is(err, payment.ErrAttemptNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Not found", err.Error()))
		default:
			h.logger.Error("PAYMENT", fmt.Sprintf("webhook processing failed: %v", err))
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Webhook failed", "internal server error"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("event processed", nil))
}
