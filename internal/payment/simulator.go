package payment

import (
	"fmt"
	"time"

	"qrmenu/internal/models"
	"qrmenu/internal/utils"
)

// Simulator is the default checkout provider. It never talks to a gateway:
// every session settles as completed once Delay has elapsed, which is enough
// to exercise the full paid-order and subscription cascades end to end.
type Simulator struct {
	// BaseURL is where the fake hosted checkout page would live.
	BaseURL string
	// Delay is how long a session stays pending before it completes.
	Delay time.Duration
}

func NewSimulator(baseURL string, delay time.Duration) *Simulator {
	return &Simulator{BaseURL: baseURL, Delay: delay}
}

func (s *Simulator) Name() string {
	return "simulated"
}

func (s *Simulator) CreateSession(attempt *models.PaymentAttempt) (string, string, error) {
	sessionID := utils.GenerateSessionID()
	return sessionID, fmt.Sprintf("%s/pay/%s", s.BaseURL, sessionID), nil
}

func (s *Simulator) Poll(attempt *models.PaymentAttempt, now time.Time) (models.AttemptStatus, error) {
	if now.Sub(attempt.CreatedAt) >= s.Delay {
		return models.AttemptCompleted, nil
	}
	return models.AttemptPending, nil
}
