package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"qrmenu/internal/logger"
	"qrmenu/internal/models"
	"qrmenu/internal/order"
	"qrmenu/internal/sse"
	"qrmenu/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	OrderService *order.OrderService
	Feed         *sse.OrderFeed
	Logger       *logger.Logger
}

func NewHandler(orderService *order.OrderService, feed *sse.OrderFeed, log *logger.Logger) *Handler {
	return &Handler{
		OrderService: orderService,
		Feed:         feed,
		Logger:       log,
	}
}

// CreateOrder accepts a customer cart from the public menu page.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateOrder: failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := h.OrderService.PlaceOrder(req)
	if err != nil {
		h.writeOrderError(w, "CreateOrder", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, "order placed", created)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	h.Logger.Info("API", fmt.Sprintf("GetOrder: orderId=%s", orderID))

	orderData, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		h.writeOrderError(w, "GetOrder", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "", orderData)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.URL.Query().Get("restaurant_id")
	status := models.OrderStatus(r.URL.Query().Get("status"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.WriteError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = parsed
	}

	orders, err := h.OrderService.ListOrders(restaurantID, status, limit)
	if err != nil {
		h.writeOrderError(w, "ListOrders", err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	utils.WriteSuccess(w, http.StatusOK, "", orders)
}

// UpdateOrder applies a status transition and/or a payment status update.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req models.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateOrder: failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Status == "" && req.PaymentStatus == "" {
		utils.WriteError(w, http.StatusBadRequest, "status or payment_status is required")
		return
	}

	updated, err := h.OrderService.UpdateStatus(orderID, req)
	if err != nil {
		h.writeOrderError(w, "UpdateOrder", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "order updated", updated)
}

// DeleteOrder soft-cancels; orders are never removed.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	h.Logger.Info("API", fmt.Sprintf("DeleteOrder: orderId=%s", orderID))

	cancelled, err := h.OrderService.CancelOrder(orderID)
	if err != nil {
		h.writeOrderError(w, "DeleteOrder", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "order cancelled", cancelled)
}

// StreamOrders pushes live order events for one restaurant over SSE.
func (h *Handler) StreamOrders(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantId")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := h.Feed.Subscribe(r.Context(), restaurantID)
	h.Logger.Info("SSE", fmt.Sprintf("dashboard subscribed to orders for restaurant %s", restaurantID))

	// Heartbeat keeps proxies from closing the idle stream.
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case ord, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ord)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to marshal order event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: order\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (h *Handler) writeOrderError(w http.ResponseWriter, op string, err error) {
	var selErr *order.SelectionError
	switch {
	case errors.As(err, &selErr):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Error:     selErr.Error(),
			Data:      selErr.Fields,
			Timestamp: time.Now(),
		})
	case errors.Is(err, order.ErrValidation),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, order.ErrUnknownPaymentStatus),
		errors.Is(err, order.ErrIllegalTransition),
		errors.Is(err, order.ErrCancelNotAllowed):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrOrderNotFound):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrOrderLocked):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
