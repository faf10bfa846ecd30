package restaurant

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"qrmenu/internal/logger"
	"qrmenu/internal/models"
	"qrmenu/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrDuplicate          = errors.New("restaurant with this email or name already exists")
	ErrValidation         = errors.New("validation failed")
)

// defaultCategories are seeded for every new restaurant so the dashboard
// never starts from a blank page.
var defaultCategories = []string{"Starters", "Mains", "Desserts", "Drinks"}

type DBLayer interface {
	CreateRestaurant(restaurant *models.Restaurant) error
	GetByID(id string) (*models.Restaurant, error)
	GetBySlug(slug string) (*models.Restaurant, error)
	GetByOwner(ownerID string) (*models.Restaurant, error)
	CountByEmailOrSlug(email, slug string) (int, error)
	UpdateRestaurant(restaurant models.Restaurant) error
	UpdateSubscription(restaurant models.Restaurant) error
}

// CategorySeeder writes the default categories; the menu db layer provides it.
type CategorySeeder interface {
	CreateCategories(categories []*models.Category) error
}

type Service struct {
	DB         DBLayer
	Seeder     CategorySeeder
	Logger     *logger.Logger
	SubPeriod  time.Duration
	TrialGrace time.Duration
}

func NewService(db DBLayer, seeder CategorySeeder, log *logger.Logger, subPeriod time.Duration) *Service {
	return &Service{
		DB:        db,
		Seeder:    seeder,
		Logger:    log,
		SubPeriod: subPeriod,
	}
}

// Register creates a restaurant for the authenticated owner and seeds its
// default categories. Seeding failures are logged, never rolled back: a
// restaurant without starter categories is usable, a failed signup is not.
func (s *Service) Register(ownerID string, req models.RestaurantRequest) (*models.Restaurant, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner identity missing", ErrValidation)
	}
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	if !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	slug := utils.Slugify(req.Name)
	if slug == "" {
		return nil, fmt.Errorf("%w: name must contain at least one letter or digit", ErrValidation)
	}

	count, err := s.DB.CountByEmailOrSlug(req.Email, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicate
	}

	now := time.Now()
	restaurant := &models.Restaurant{
		ID:                 uuid.NewString(),
		OwnerID:            ownerID,
		Name:               req.Name,
		Slug:               slug,
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            req.Address,
		LogoURL:            req.LogoURL,
		SubscriptionStatus: models.SubscriptionTrial,
		CreatedAt:          now,
	}

	if err := s.DB.CreateRestaurant(restaurant); err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}

	s.seedDefaultCategories(restaurant.ID)

	s.Logger.Info("RESTAURANT", fmt.Sprintf("registered %q (%s) for owner %s", restaurant.Name, restaurant.ID, ownerID))
	return restaurant, nil
}

func (s *Service) seedDefaultCategories(restaurantID string) {
	categories := make([]*models.Category, len(defaultCategories))
	now := time.Now()
	for i, name := range defaultCategories {
		categories[i] = &models.Category{
			ID:           uuid.NewString(),
			RestaurantID: restaurantID,
			Name:         name,
			DisplayOrder: i,
			Active:       true,
			CreatedAt:    now,
		}
	}
	if err := s.Seeder.CreateCategories(categories); err != nil {
		s.Logger.Error("RESTAURANT", fmt.Sprintf("failed to seed default categories for %s: %v", restaurantID, err))
	}
}

func (s *Service) GetByID(id string) (*models.Restaurant, error) {
	restaurant, err := s.DB.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRestaurantNotFound, id)
		}
		return nil, err
	}
	return restaurant, nil
}

func (s *Service) GetBySlug(slug string) (*models.Restaurant, error) {
	return s.DB.GetBySlug(slug)
}

func (s *Service) GetByOwner(ownerID string) (*models.Restaurant, error) {
	restaurant, err := s.DB.GetByOwner(ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: owner %s", ErrRestaurantNotFound, ownerID)
		}
		return nil, err
	}
	return restaurant, nil
}

func (s *Service) Update(id string, req models.RestaurantRequest) (*models.Restaurant, error) {
	restaurant, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		restaurant.Name = req.Name
	}
	restaurant.Phone = req.Phone
	restaurant.Address = req.Address
	if req.LogoURL != "" {
		restaurant.LogoURL = req.LogoURL
	}
	restaurant.UpdatedAt = time.Now()

	if err := s.DB.UpdateRestaurant(*restaurant); err != nil {
		return nil, fmt.Errorf("failed to update restaurant %s: %w", id, err)
	}
	return restaurant, nil
}

// ActivateSubscription is the payment cascade target for subscription
// checkouts: it activates or extends the paid window by one period.
func (s *Service) ActivateSubscription(id string) (*models.Restaurant, error) {
	restaurant, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	base := now
	if restaurant.SubscriptionStatus == models.SubscriptionActive && restaurant.SubscriptionExpiresAt.After(now) {
		base = restaurant.SubscriptionExpiresAt
	}

	restaurant.SubscriptionStatus = models.SubscriptionActive
	restaurant.SubscriptionExpiresAt = base.Add(s.SubPeriod)
	restaurant.UpdatedAt = now

	if err := s.DB.UpdateSubscription(*restaurant); err != nil {
		return nil, fmt.Errorf("failed to activate subscription for %s: %w", id, err)
	}

	s.Logger.Info("RESTAURANT", fmt.Sprintf("subscription for %s active until %s", id, restaurant.SubscriptionExpiresAt.Format(time.RFC3339)))
	return restaurant, nil
}
