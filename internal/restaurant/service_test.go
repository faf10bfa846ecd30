package restaurant

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"qrmenu/internal/logger"
	"qrmenu/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations for testing

type MockRestaurantDB struct {
	restaurants  map[string]*models.Restaurant
	shouldFailOn string
	errorMsg     string
}

func NewMockRestaurantDB() *MockRestaurantDB {
	return &MockRestaurantDB{restaurants: make(map[string]*models.Restaurant)}
}

func (m *MockRestaurantDB) CreateRestaurant(restaurant *models.Restaurant) error {
	if m.shouldFailOn == "CreateRestaurant" {
		return errors.New(m.errorMsg)
	}
	m.restaurants[restaurant.ID] = restaurant
	return nil
}

func (m *MockRestaurantDB) GetByID(id string) (*models.Restaurant, error) {
	r, exists := m.restaurants[id]
	if !exists {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *MockRestaurantDB) GetBySlug(slug string) (*models.Restaurant, error) {
	for _, r := range m.restaurants {
		if r.Slug == slug {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockRestaurantDB) GetByOwner(ownerID string) (*models.Restaurant, error) {
	for _, r := range m.restaurants {
		if r.OwnerID == ownerID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockRestaurantDB) CountByEmailOrSlug(email, slug string) (int, error) {
	if m.shouldFailOn == "CountByEmailOrSlug" {
		return 0, errors.New(m.errorMsg)
	}
	count := 0
	for _, r := range m.restaurants {
		if r.Email == email || r.Slug == slug {
			count++
		}
	}
	return count, nil
}

func (m *MockRestaurantDB) UpdateRestaurant(restaurant models.Restaurant) error {
	if m.shouldFailOn == "UpdateRestaurant" {
		return errors.New(m.errorMsg)
	}
	m.restaurants[restaurant.ID] = &restaurant
	return nil
}

func (m *MockRestaurantDB) UpdateSubscription(restaurant models.Restaurant) error {
	if m.shouldFailOn == "UpdateSubscription" {
		return errors.New(m.errorMsg)
	}
	m.restaurants[restaurant.ID] = &restaurant
	return nil
}

type MockSeeder struct {
	seeded       []*models.Category
	shouldFailOn string
	errorMsg     string
}

func (m *MockSeeder) CreateCategories(categories []*models.Category) error {
	if m.shouldFailOn == "CreateCategories" {
		return errors.New(m.errorMsg)
	}
	m.seeded = append(m.seeded, categories...)
	return nil
}

func newTestService() (*Service, *MockRestaurantDB, *MockSeeder) {
	db := NewMockRestaurantDB()
	seeder := &MockSeeder{}
	svc := NewService(db, seeder, logger.NewLogger(), 30*24*time.Hour)
	return svc, db, seeder
}

func TestRegister_CreatesRestaurantWithSlugAndTrial(t *testing.T) {
	svc, db, seeder := newTestService()

	created, err := svc.Register("owner-1", models.RestaurantRequest{
		Name:  "Niko's Harbor Grill",
		Email: "niko@example.com",
		Phone: "555-0101",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "niko-s-harbor-grill", created.Slug)
	assert.Equal(t, models.SubscriptionTrial, created.SubscriptionStatus)
	assert.Contains(t, db.restaurants, created.ID)

	require.Len(t, seeder.seeded, 4, "Default categories are seeded on signup")
	assert.Equal(t, "Starters", seeder.seeded[0].Name)
	assert.Equal(t, created.ID, seeder.seeded[0].RestaurantID)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register("", models.RestaurantRequest{Name: "X", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register("owner-1", models.RestaurantRequest{Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register("owner-1", models.RestaurantRequest{Name: "X", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register("owner-1", models.RestaurantRequest{Name: "!!!", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRegister_RejectsDuplicates(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register("owner-1", models.RestaurantRequest{Name: "Taverna", Email: "a@example.com"})
	require.NoError(t, err)

	// Same name produces the same slug.
	_, err = svc.Register("owner-2", models.RestaurantRequest{Name: "Taverna", Email: "b@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	// Same email, different name.
	_, err = svc.Register("owner-3", models.RestaurantRequest{Name: "Other Place", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRegister_SeedingFailureIsTolerated(t *testing.T) {
	svc, db, seeder := newTestService()
	seeder.shouldFailOn = "CreateCategories"
	seeder.errorMsg = "database unavailable"

	created, err := svc.Register("owner-1", models.RestaurantRequest{
		Name:  "Taverna",
		Email: "a@example.com",
	})
	require.NoError(t, err, "A failed seed must not fail the signup")
	assert.Contains(t, db.restaurants, created.ID)
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, db, _ := newTestService()
	db.restaurants["rest-1"] = &models.Restaurant{
		ID: "rest-1", OwnerID: "owner-1", Name: "Taverna",
		Slug: "taverna", Email: "a@example.com", Phone: "555-0101",
	}

	updated, err := svc.Update("rest-1", models.RestaurantRequest{
		Address: "12 Harbor St",
	})
	require.NoError(t, err)

	assert.Equal(t, "Taverna", updated.Name, "Empty name leaves the old one")
	assert.Equal(t, "12 Harbor St", updated.Address)
	assert.Empty(t, updated.Phone, "Phone is replaced wholesale")
	assert.Equal(t, "taverna", updated.Slug, "Slug never changes after signup")
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Update("ghost", models.RestaurantRequest{Name: "X"})
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestActivateSubscription_FromTrial(t *testing.T) {
	svc, db, _ := newTestService()
	db.restaurants["rest-1"] = &models.Restaurant{
		ID: "rest-1", SubscriptionStatus: models.SubscriptionTrial,
	}

	before := time.Now()
	updated, err := svc.ActivateSubscription("rest-1")
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionActive, updated.SubscriptionStatus)
	assert.WithinDuration(t, before.Add(svc.SubPeriod), updated.SubscriptionExpiresAt, 2*time.Second)
}

func TestActivateSubscription_ExtendsFromCurrentExpiry(t *testing.T) {
	svc, db, _ := newTestService()
	expiry := time.Now().Add(10 * 24 * time.Hour)
	db.restaurants["rest-1"] = &models.Restaurant{
		ID:                    "rest-1",
		SubscriptionStatus:    models.SubscriptionActive,
		SubscriptionExpiresAt: expiry,
	}

	updated, err := svc.ActivateSubscription("rest-1")
	require.NoError(t, err)

	assert.WithinDuration(t, expiry.Add(svc.SubPeriod), updated.SubscriptionExpiresAt, time.Second,
		"An active subscription extends from its current expiry, not from now")
}

func TestActivateSubscription_LapsedRestartsFromNow(t *testing.T) {
	svc, db, _ := newTestService()
	db.restaurants["rest-1"] = &models.Restaurant{
		ID:                    "rest-1",
		SubscriptionStatus:    models.SubscriptionActive,
		SubscriptionExpiresAt: time.Now().Add(-24 * time.Hour),
	}

	before := time.Now()
	updated, err := svc.ActivateSubscription("rest-1")
	require.NoError(t, err)

	assert.WithinDuration(t, before.Add(svc.SubPeriod), updated.SubscriptionExpiresAt, 2*time.Second,
		"A lapsed subscription restarts from now")
}

func TestActivateSubscription_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.ActivateSubscription("ghost")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}
