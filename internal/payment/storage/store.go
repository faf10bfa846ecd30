package storage

import (
	"qrmenu/internal/models"
)

type Store interface {
	// Attempt operations
	SaveAttempt(attempt *models.PaymentAttempt) error
	GetAttempt(id string) (*models.PaymentAttempt, error)
	GetAttemptBySession(sessionID string) (*models.PaymentAttempt, error)
	UpdateAttempt(attempt *models.PaymentAttempt) error
	ListAttempts(restaurantID string, limit, offset int) ([]*models.PaymentAttempt, error)

	// Health and maintenance
	Close() error
	HealthCheck() error
}
