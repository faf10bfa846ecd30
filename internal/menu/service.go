package menu

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qrmenu/internal/logger"
	"qrmenu/internal/models"

	"github.com/google/uuid"
)

var (
	ErrMenuNotFound          = errors.New("menu not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrItemNotFound          = errors.New("menu item not found")
	ErrCustomizationNotFound = errors.New("customization not found")
	ErrRestaurantNotFound    = errors.New("restaurant not found")
	ErrValidation            = errors.New("validation failed")
)

type DBLayer interface {
	CreateMenu(menu *models.Menu) error
	GetMenuByID(id string) (*models.Menu, error)
	ListMenus(restaurantID string) ([]*models.Menu, error)
	UpdateMenu(menu models.Menu) error
	DeleteMenu(id string) error

	CreateCategory(category *models.Category) error
	GetCategoryByID(id string) (*models.Category, error)
	ListCategories(restaurantID, menuID string, includeItems bool) ([]*models.Category, error)
	UpdateCategory(category models.Category) error
	DeleteCategory(id string) error

	CreateItem(item *models.MenuItem) error
	GetItemByID(id string) (*models.MenuItem, error)
	GetItemWithCustomizations(id string) (*models.MenuItem, error)
	ListItems(categoryID string) ([]*models.MenuItem, error)
	UpdateItem(item models.MenuItem) error
	DeleteItem(id string) error

	UpdateCategoryOrder(updates []models.DisplayOrderUpdate) error
	UpdateItemOrder(updates []models.DisplayOrderUpdate) error

	CreateCustomizationCategory(cat *models.CustomizationCategory) error
	GetCustomizationCategoryByID(id string) (*models.CustomizationCategory, error)
	UpdateCustomizationCategory(cat models.CustomizationCategory) error
	DeleteCustomizationCategory(id string) error
	CreateCustomizationOption(opt *models.CustomizationOption) error
	UpdateCustomizationOption(opt models.CustomizationOption) error
	DeleteCustomizationOption(id string) error
}

// RestaurantDirectory is the slice of the restaurant service the catalog needs.
type RestaurantDirectory interface {
	GetByID(id string) (*models.Restaurant, error)
	GetBySlug(slug string) (*models.Restaurant, error)
}

type MenuCache interface {
	Get(restaurantID string) (*models.PublicMenu, error)
	Set(restaurantID string, m *models.PublicMenu) error
	Invalidate(restaurantID string) error
}

type Service struct {
	DB          DBLayer
	Restaurants RestaurantDirectory
	Cache       MenuCache
	Logger      *logger.Logger
}

func NewService(db DBLayer, restaurants RestaurantDirectory, cache MenuCache, log *logger.Logger) *Service {
	return &Service{
		DB:          db,
		Restaurants: restaurants,
		Cache:       cache,
		Logger:      log,
	}
}

// ---------------- MENUS ----------------

func (s *Service) CreateMenu(menu *models.Menu) (*models.Menu, error) {
	if menu.RestaurantID == "" || menu.Name == "" {
		return nil, fmt.Errorf("%w: restaurant_id and name are required", ErrValidation)
	}
	menu.ID = uuid.NewString()
	menu.CreatedAt = time.Now()
	if err := s.DB.CreateMenu(menu); err != nil {
		return nil, fmt.Errorf("failed to create menu: %w", err)
	}
	s.invalidate(menu.RestaurantID)
	return menu, nil
}

func (s *Service) GetMenu(id string) (*models.Menu, error) {
	menu, err := s.DB.GetMenuByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrMenuNotFound, id)
		}
		return nil, err
	}
	return menu, nil
}

func (s *Service) ListMenus(restaurantID string) ([]*models.Menu, error) {
	if restaurantID == "" {
		return nil, fmt.Errorf("%w: restaurant_id is required", ErrValidation)
	}
	return s.DB.ListMenus(restaurantID)
}

func (s *Service) UpdateMenu(id string, update models.Menu) (*models.Menu, error) {
	menu, err := s.GetMenu(id)
	if err != nil {
		return nil, err
	}

	menu.Name = update.Name
	menu.Description = update.Description
	menu.AvailableFrom = update.AvailableFrom
	menu.AvailableUntil = update.AvailableUntil
	menu.AvailableDays = update.AvailableDays
	menu.Active = update.Active
	menu.UpdatedAt = time.Now()

	if menu.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.DB.UpdateMenu(*menu); err != nil {
		return nil, fmt.Errorf("failed to update menu %s: %w", id, err)
	}
	s.invalidate(menu.RestaurantID)
	return menu, nil
}

func (s *Service) DeleteMenu(id string) error {
	menu, err := s.GetMenu(id)
	if err != nil {
		return err
	}
	if err := s.DB.DeleteMenu(id); err != nil {
		return fmt.Errorf("failed to delete menu %s: %w", id, err)
	}
	s.invalidate(menu.RestaurantID)
	return nil
}

// ---------------- CATEGORIES ----------------

func (s *Service) CreateCategory(category *models.Category) (*models.Category, error) {
	if category.RestaurantID == "" || category.Name == "" {
		return nil, fmt.Errorf("%w: restaurant_id and name are required", ErrValidation)
	}
	category.ID = uuid.NewString()
	category.CreatedAt = time.Now()
	if err := s.DB.CreateCategory(category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	s.invalidate(category.RestaurantID)
	return category, nil
}

func (s *Service) GetCategory(id string) (*models.Category, error) {
	category, err := s.DB.GetCategoryByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
		}
		return nil, err
	}
	return category, nil
}

func (s *Service) ListCategories(restaurantID, menuID string, includeItems bool) ([]*models.Category, error) {
	if restaurantID == "" {
		return nil, fmt.Errorf("%w: restaurant_id is required", ErrValidation)
	}
	return s.DB.ListCategories(restaurantID, menuID, includeItems)
}

func (s *Service) UpdateCategory(id string, update models.Category) (*models.Category, error) {
	category, err := s.GetCategory(id)
	if err != nil {
		return nil, err
	}

	category.Name = update.Name
	category.MenuID = update.MenuID
	category.DisplayOrder = update.DisplayOrder
	category.Active = update.Active

	if category.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.DB.UpdateCategory(*category); err != nil {
		return nil, fmt.Errorf("failed to update category %s: %w", id, err)
	}
	s.invalidate(category.RestaurantID)
	return category, nil
}

// DeleteCategory removes a category and everything under it. The dashboard
// warns first; the cascade here is the authoritative one.
func (s *Service) DeleteCategory(id string) error {
	category, err := s.GetCategory(id)
	if err != nil {
		return err
	}
	if err := s.DB.DeleteCategory(id); err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	s.invalidate(category.RestaurantID)
	return nil
}

// ---------------- ITEMS ----------------

func (s *Service) CreateItem(item *models.MenuItem) (*models.MenuItem, error) {
	if item.RestaurantID == "" || item.CategoryID == "" || item.Name == "" {
		return nil, fmt.Errorf("%w: restaurant_id, category_id and name are required", ErrValidation)
	}
	if item.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if _, err := s.GetCategory(item.CategoryID); err != nil {
		return nil, err
	}
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now()
	if err := s.DB.CreateItem(item); err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	s.invalidate(item.RestaurantID)
	return item, nil
}

func (s *Service) GetItem(id string) (*models.MenuItem, error) {
	item, err := s.DB.GetItemWithCustomizations(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return nil, err
	}
	return item, nil
}

// GetItemWithCustomizations satisfies the order service's catalog interface.
// The raw sql.ErrNoRows is preserved so the caller can distinguish a missing
// item inside a cart from an infrastructure failure.
func (s *Service) GetItemWithCustomizations(id string) (*models.MenuItem, error) {
	return s.DB.GetItemWithCustomizations(id)
}

func (s *Service) ListItems(categoryID string) ([]*models.MenuItem, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("%w: category_id is required", ErrValidation)
	}
	return s.DB.ListItems(categoryID)
}

func (s *Service) UpdateItem(id string, update models.MenuItem) (*models.MenuItem, error) {
	item, err := s.DB.GetItemByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return nil, err
	}

	if update.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if update.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	item.Name = update.Name
	item.Description = update.Description
	item.Price = update.Price
	item.Available = update.Available
	item.ImageURL = update.ImageURL
	item.DisplayOrder = update.DisplayOrder
	item.Customizable = update.Customizable
	if update.CategoryID != "" {
		item.CategoryID = update.CategoryID
	}
	item.UpdatedAt = time.Now()

	if err := s.DB.UpdateItem(*item); err != nil {
		return nil, fmt.Errorf("failed to update menu item %s: %w", id, err)
	}
	s.invalidate(item.RestaurantID)
	return item, nil
}

func (s *Service) DeleteItem(id string) error {
	item, err := s.DB.GetItemByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		return err
	}
	if err := s.DB.DeleteItem(id); err != nil {
		return fmt.Errorf("failed to delete menu item %s: %w", id, err)
	}
	s.invalidate(item.RestaurantID)
	return nil
}

// ---------------- REORDERING ----------------

func (s *Service) ReorderCategories(restaurantID string, updates []models.DisplayOrderUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: no reorder entries supplied", ErrValidation)
	}
	if err := s.DB.UpdateCategoryOrder(updates); err != nil {
		return fmt.Errorf("failed to reorder categories: %w", err)
	}
	s.invalidate(restaurantID)
	return nil
}

func (s *Service) ReorderItems(restaurantID string, updates []models.DisplayOrderUpdate) error {
	if len(updates) == 0 {
		return fmt.Errorf("%w: no reorder entries supplied", ErrValidation)
	}
	if err := s.DB.UpdateItemOrder(updates); err != nil {
		return fmt.Errorf("failed to reorder items: %w", err)
	}
	s.invalidate(restaurantID)
	return nil
}

// ---------------- CUSTOMIZATIONS ----------------

func (s *Service) AddCustomizationCategory(cat *models.CustomizationCategory) (*models.CustomizationCategory, error) {
	if cat.MenuItemID == "" || cat.Name == "" {
		return nil, fmt.Errorf("%w: menu_item_id and name are required", ErrValidation)
	}
	if cat.MinSelections < 0 || cat.MaxSelections < 0 {
		return nil, fmt.Errorf("%w: selection counts must not be negative", ErrValidation)
	}
	if cat.MaxSelections > 0 && cat.MinSelections > cat.MaxSelections {
		return nil, fmt.Errorf("%w: min_selections exceeds max_selections", ErrValidation)
	}

	item, err := s.DB.GetItemByID(cat.MenuItemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, cat.MenuItemID)
		}
		return nil, err
	}

	cat.ID = uuid.NewString()
	if err := s.DB.CreateCustomizationCategory(cat); err != nil {
		return nil, fmt.Errorf("failed to create customization category: %w", err)
	}
	s.invalidate(item.RestaurantID)
	return cat, nil
}

func (s *Service) UpdateCustomizationCategory(id string, update models.CustomizationCategory) (*models.CustomizationCategory, error) {
	cat, err := s.getCustomizationCategory(id)
	if err != nil {
		return nil, err
	}

	cat.Name = update.Name
	cat.Required = update.Required
	cat.MinSelections = update.MinSelections
	cat.MaxSelections = update.MaxSelections
	cat.DisplayOrder = update.DisplayOrder

	if cat.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if cat.MaxSelections > 0 && cat.MinSelections > cat.MaxSelections {
		return nil, fmt.Errorf("%w: min_selections exceeds max_selections", ErrValidation)
	}
	if err := s.DB.UpdateCustomizationCategory(*cat); err != nil {
		return nil, fmt.Errorf("failed to update customization category %s: %w", id, err)
	}
	s.invalidateForItem(cat.MenuItemID)
	return cat, nil
}

func (s *Service) DeleteCustomizationCategory(id string) error {
	cat, err := s.getCustomizationCategory(id)
	if err != nil {
		return err
	}
	if err := s.DB.DeleteCustomizationCategory(id); err != nil {
		return fmt.Errorf("failed to delete customization category %s: %w", id, err)
	}
	s.invalidateForItem(cat.MenuItemID)
	return nil
}

func (s *Service) AddCustomizationOption(opt *models.CustomizationOption) (*models.CustomizationOption, error) {
	if opt.CustomizationCategoryID == "" || opt.Name == "" {
		return nil, fmt.Errorf("%w: customization_category_id and name are required", ErrValidation)
	}
	cat, err := s.getCustomizationCategory(opt.CustomizationCategoryID)
	if err != nil {
		return nil, err
	}

	opt.ID = uuid.NewString()
	if err := s.DB.CreateCustomizationOption(opt); err != nil {
		return nil, fmt.Errorf("failed to create customization option: %w", err)
	}
	s.invalidateForItem(cat.MenuItemID)
	return opt, nil
}

func (s *Service) UpdateCustomizationOption(id string, update models.CustomizationOption) error {
	update.ID = id
	if update.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.DB.UpdateCustomizationOption(update); err != nil {
		return fmt.Errorf("failed to update customization option %s: %w", id, err)
	}
	if update.CustomizationCategoryID != "" {
		if cat, err := s.getCustomizationCategory(update.CustomizationCategoryID); err == nil {
			s.invalidateForItem(cat.MenuItemID)
		}
	}
	return nil
}

func (s *Service) DeleteCustomizationOption(id string) error {
	if err := s.DB.DeleteCustomizationOption(id); err != nil {
		return fmt.Errorf("failed to delete customization option %s: %w", id, err)
	}
	return nil
}

func (s *Service) getCustomizationCategory(id string) (*models.CustomizationCategory, error) {
	cat, err := s.DB.GetCustomizationCategoryByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCustomizationNotFound, id)
		}
		return nil, err
	}
	return cat, nil
}

// ---------------- PUBLIC MENU ----------------

// PublicMenu assembles the full tree served to a customer who scanned a
// restaurant's QR code. Results are cached; catalog mutations invalidate.
func (s *Service) PublicMenu(slug string) (*models.PublicMenu, error) {
	restaurant, err := s.Restaurants.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRestaurantNotFound, slug)
		}
		return nil, err
	}

	if s.Cache != nil {
		cached, err := s.Cache.Get(restaurant.ID)
		if err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("public menu cache read failed for %s: %v", restaurant.ID, err))
		} else if cached != nil {
			return cached, nil
		}
	}

	allMenus, err := s.DB.ListMenus(restaurant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}
	now := time.Now()
	menus := make([]*models.Menu, 0, len(allMenus))
	for _, m := range allMenus {
		if m.AvailableAt(now) {
			menus = append(menus, m)
		}
	}

	allCategories, err := s.DB.ListCategories(restaurant.ID, "", true)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	categories := make([]*models.Category, 0, len(allCategories))
	for _, c := range allCategories {
		if !c.Active {
			continue
		}
		items := make([]*models.MenuItem, 0, len(c.Items))
		for _, it := range c.Items {
			if !it.Available {
				continue
			}
			if it.Customizable {
				full, err := s.DB.GetItemWithCustomizations(it.ID)
				if err == nil {
					it = full
				} else {
					s.Logger.Warn("DATABASE", fmt.Sprintf("failed to load customizations for item %s: %v", it.ID, err))
				}
			}
			items = append(items, it)
		}
		c.Items = items
		categories = append(categories, c)
	}

	public := &models.PublicMenu{
		Restaurant: restaurant,
		Menus:      menus,
		Categories: categories,
	}

	if s.Cache != nil {
		if err := s.Cache.Set(restaurant.ID, public); err != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("public menu cache write failed for %s: %v", restaurant.ID, err))
		}
	}

	return public, nil
}

// invalidate drops the cached public menu. Failures are logged only; the
// cache entry expires on its own TTL anyway.
func (s *Service) invalidate(restaurantID string) {
	if s.Cache == nil || restaurantID == "" {
		return
	}
	if err := s.Cache.Invalidate(restaurantID); err != nil {
		s.Logger.Warn("REDIS", fmt.Sprintf("public menu cache invalidation failed for %s: %v", restaurantID, err))
	}
}

func (s *Service) invalidateForItem(menuItemID string) {
	item, err := s.DB.GetItemByID(menuItemID)
	if err != nil {
		return
	}
	s.invalidate(item.RestaurantID)
}
