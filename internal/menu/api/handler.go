package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"qrmenu/internal/logger"
	"qrmenu/internal/menu"
	"qrmenu/internal/models"
	"qrmenu/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Menus  *menu.Service
	Logger *logger.Logger
}

func NewHandler(menus *menu.Service, log *logger.Logger) *Handler {
	return &Handler{Menus: menus, Logger: log}
}

// ReorderRequest is the body of a drag-and-drop reorder.
type ReorderRequest struct {
	RestaurantID string                      `json:"restaurant_id"`
	Updates      []models.DisplayOrderUpdate `json:"updates"`
}

// ---------------- MENUS ----------------

func (h *Handler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	var req models.Menu
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.Menus.CreateMenu(&req)
	if err != nil {
		h.writeError(w, "CreateMenu", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "menu created", created)
}

func (h *Handler) ListMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.Menus.ListMenus(r.URL.Query().Get("restaurant_id"))
	if err != nil {
		h.writeError(w, "ListMenus", err)
		return
	}
	if menus == nil {
		menus = []*models.Menu{}
	}
	utils.WriteSuccess(w, http.StatusOK, "", menus)
}

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	found, err := h.Menus.GetMenu(chi.URLParam(r, "menuId"))
	if err != nil {
		h.writeError(w, "GetMenu", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", found)
}

func (h *Handler) UpdateMenu(w http.ResponseWriter, r *http.Request) {
	var req models.Menu
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.Menus.UpdateMenu(chi.URLParam(r, "menuId"), req)
	if err != nil {
		h.writeError(w, "UpdateMenu", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "menu updated", updated)
}

func (h *Handler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	if err := h.Menus.DeleteMenu(chi.URLParam(r, "menuId")); err != nil {
		h.writeError(w, "DeleteMenu", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "menu deleted", nil)
}

// ---------------- CATEGORIES ----------------

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.Category
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.Menus.CreateCategory(&req)
	if err != nil {
		h.writeError(w, "CreateCategory", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "category created", created)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	categories, err := h.Menus.ListCategories(
		q.Get("restaurant_id"),
		q.Get("menu_id"),
		q.Get("include_items") == "true",
	)
	if err != nil {
		h.writeError(w, "ListCategories", err)
		return
	}
	if categories == nil {
		categories = []*models.Category{}
	}
	utils.WriteSuccess(w, http.StatusOK, "", categories)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req models.Category
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.Menus.UpdateCategory(chi.URLParam(r, "categoryId"), req)
	if err != nil {
		h.writeError(w, "UpdateCategory", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "category updated", updated)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Menus.DeleteCategory(chi.URLParam(r, "categoryId")); err != nil {
		h.writeError(w, "DeleteCategory", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "category deleted", nil)
}

func (h *Handler) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Menus.ReorderCategories(req.RestaurantID, req.Updates); err != nil {
		h.writeError(w, "ReorderCategories", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "categories reordered", nil)
}

// ---------------- ITEMS ----------------

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.MenuItem
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.Menus.CreateItem(&req)
	if err != nil {
		h.writeError(w, "CreateItem", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "item created", created)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Menus.ListItems(r.URL.Query().Get("category_id"))
	if err != nil {
		h.writeError(w, "ListItems", err)
		return
	}
	if items == nil {
		items = []*models.MenuItem{}
	}
	utils.WriteSuccess(w, http.StatusOK, "", items)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	found, err := h.Menus.GetItem(chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeError(w, "GetItem", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", found)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req models.MenuItem
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.Menus.UpdateItem(chi.URLParam(r, "itemId"), req)
	if err != nil {
		h.writeError(w, "UpdateItem", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "item updated", updated)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Menus.DeleteItem(chi.URLParam(r, "itemId")); err != nil {
		h.writeError(w, "DeleteItem", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "item deleted", nil)
}

func (h *Handler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Menus.ReorderItems(req.RestaurantID, req.Updates); err != nil {
		h.writeError(w, "ReorderItems", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "items reordered", nil)
}

// ---------------- CUSTOMIZATIONS ----------------

func (h *Handler) CreateCustomization(w http.ResponseWriter, r *http.Request) {
	var req models.CustomizationCategory
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.Menus.AddCustomizationCategory(&req)
	if err != nil {
		h.writeError(w, "CreateCustomization", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "customization created", created)
}

func (h *Handler) UpdateCustomization(w http.ResponseWriter, r *http.Request) {
	var req models.CustomizationCategory
	if !h.decode(w, r, &req) {
		return
	}
	updated, err := h.Menus.UpdateCustomizationCategory(chi.URLParam(r, "customizationId"), req)
	if err != nil {
		h.writeError(w, "UpdateCustomization", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "customization updated", updated)
}

func (h *Handler) DeleteCustomization(w http.ResponseWriter, r *http.Request) {
	if err := h.Menus.DeleteCustomizationCategory(chi.URLParam(r, "customizationId")); err != nil {
		h.writeError(w, "DeleteCustomization", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "customization deleted", nil)
}

func (h *Handler) CreateOption(w http.ResponseWriter, r *http.Request) {
	var req models.CustomizationOption
	if !h.decode(w, r, &req) {
		return
	}
	req.CustomizationCategoryID = chi.URLParam(r, "customizationId")
	created, err := h.Menus.AddCustomizationOption(&req)
	if err != nil {
		h.writeError(w, "CreateOption", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "option created", created)
}

func (h *Handler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	var req models.CustomizationOption
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Menus.UpdateCustomizationOption(chi.URLParam(r, "optionId"), req); err != nil {
		h.writeError(w, "UpdateOption", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "option updated", nil)
}

func (h *Handler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	if err := h.Menus.DeleteCustomizationOption(chi.URLParam(r, "optionId")); err != nil {
		h.writeError(w, "DeleteOption", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "option deleted", nil)
}

// ---------------- PUBLIC ----------------

// PublicMenu serves the customer-facing menu page data by restaurant slug.
func (h *Handler) PublicMenu(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	public, err := h.Menus.PublicMenu(slug)
	if err != nil {
		h.writeError(w, "PublicMenu", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "", public)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, menu.ErrValidation):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, menu.ErrMenuNotFound),
		errors.Is(err, menu.ErrCategoryNotFound),
		errors.Is(err, menu.ErrItemNotFound),
		errors.Is(err, menu.ErrCustomizationNotFound),
		errors.Is(err, menu.ErrRestaurantNotFound):
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusNotFound, err.Error())
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
