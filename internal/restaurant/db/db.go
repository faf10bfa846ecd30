package db

import (
	"context"

	"qrmenu/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateRestaurant(restaurant *models.Restaurant) error {
	_, err := d.Bun.NewInsert().Model(restaurant).Exec(context.Background())
	return err
}

func (d *DB) GetByID(id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := d.Bun.NewSelect().
		Model(&restaurant).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (d *DB) GetBySlug(slug string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := d.Bun.NewSelect().
		Model(&restaurant).
		Where("slug = ?", slug).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func (d *DB) GetByOwner(ownerID string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	err := d.Bun.NewSelect().
		Model(&restaurant).
		Where("owner_id = ?", ownerID).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// CountByEmailOrSlug backs the duplicate check on registration.
func (d *DB) CountByEmailOrSlug(email, slug string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Restaurant)(nil)).
		Where("email = ? OR slug = ?", email, slug).
		Count(context.Background())
}

func (d *DB) UpdateRestaurant(restaurant models.Restaurant) error {
	_, err := d.Bun.NewUpdate().
		Model(&restaurant).
		Column("name", "phone", "address", "logo_url", "updated_at").
		Where("id = ?", restaurant.ID).
		Exec(context.Background())
	return err
}

func (d *DB) UpdateSubscription(restaurant models.Restaurant) error {
	_, err := d.Bun.NewUpdate().
		Model(&restaurant).
		Column("subscription_status", "subscription_expires_at", "updated_at").
		Where("id = ?", restaurant.ID).
		Exec(context.Background())
	return err
}
