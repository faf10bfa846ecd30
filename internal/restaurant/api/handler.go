package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"qrmenu/internal/auth"
	"qrmenu/internal/logger"
	"qrmenu/internal/models"
	"qrmenu/internal/qr"
	"qrmenu/internal/restaurant"
	"qrmenu/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Restaurants *restaurant.Service
	QR          *qr.Generator
	Cards       *qr.TableCardGenerator
	Logger      *logger.Logger
}

func NewHandler(restaurants *restaurant.Service, qrGen *qr.Generator, cards *qr.TableCardGenerator, log *logger.Logger) *Handler {
	return &Handler{
		Restaurants: restaurants,
		QR:          qrGen,
		Cards:       cards,
		Logger:      log,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	var req models.RestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	created, err := h.Restaurants.Register(ownerID, req)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, "restaurant registered", created)
}

// GetMine resolves the caller's restaurant from the OIDC subject.
func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	found, err := h.Restaurants.GetByOwner(ownerID)
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "", found)
}

func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "restaurantId")

	found, err := h.Restaurants.GetByID(id)
	if err != nil {
		h.writeError(w, "GetRestaurant", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "", found)
}

func (h *Handler) UpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "restaurantId")

	var req models.RestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	updated, err := h.Restaurants.Update(id, req)
	if err != nil {
		h.writeError(w, "UpdateRestaurant", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "restaurant updated", updated)
}

// QRCode renders the QR code pointing at the public menu page, either as a
// raw PNG or as a printable table card when format=pdf.
func (h *Handler) QRCode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "restaurantId")

	found, err := h.Restaurants.GetByID(id)
	if err != nil {
		h.writeError(w, "QRCode", err)
		return
	}

	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "invalid size parameter")
			return
		}
	}

	opts := qr.CodeOptions{
		Table:  r.URL.Query().Get("table"),
		MenuID: r.URL.Query().Get("menu_id"),
		Size:   size,
	}

	png, err := h.QR.MenuCode(found.Slug, opts)
	if err != nil {
		h.Logger.Error("QR", fmt.Sprintf("QRCode: generation failed for %s: %v", id, err))
		utils.WriteError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	if r.URL.Query().Get("format") == "pdf" {
		card, err := h.Cards.Generate(qr.TableCard{
			RestaurantName: found.Name,
			Table:          opts.Table,
			MenuURL:        h.QR.MenuURL(found.Slug, opts),
		}, png)
		if err != nil {
			h.Logger.Error("QR", fmt.Sprintf("QRCode: table card render failed for %s: %v", id, err))
			utils.WriteError(w, http.StatusInternalServerError, "failed to render table card")
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(card); err != nil {
			h.Logger.Error("QR", fmt.Sprintf("QRCode: failed to write PDF: %v", err))
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("QR", fmt.Sprintf("QRCode: failed to write image: %v", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, restaurant.ErrValidation):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, restaurant.ErrDuplicate):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, restaurant.ErrRestaurantNotFound):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusNotFound, err.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
