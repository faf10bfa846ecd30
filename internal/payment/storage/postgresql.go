package storage

import (
	"database/sql"
	"fmt"
	"time"

	"qrmenu/internal/config"
	"qrmenu/internal/logger"
	"qrmenu/internal/models"

	_ "github.com/lib/pq"
)

var ErrAttemptNotFound = fmt.Errorf("payment attempt not found")

type PostgreSQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgreSQLStoreWithDB creates a payment store on an existing connection.
func NewPostgreSQLStoreWithDB(db *sql.DB, log *logger.Logger) (*PostgreSQLStore, error) {
	log.Info("DATABASE", "Creating payment storage with existing database connection")

	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize payment tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize payment tables: %w", err)
	}

	log.Info("DATABASE", "Payment storage initialized successfully with existing connection")
	return store, nil
}

func NewPostgreSQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*PostgreSQLStore, error) {
	log.LogDatabase("CONNECT", "postgresql", fmt.Sprintf("Connecting to PostgreSQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open PostgreSQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping PostgreSQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "postgresql", "PostgreSQL connection established and tables initialized")
	return store, nil
}

func (s *PostgreSQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "postgresql", "Creating payment_attempts table if not exists")

	attemptsQuery := `
    CREATE TABLE IF NOT EXISTS payment_attempts (
        id VARCHAR(64) PRIMARY KEY,
        type VARCHAR(20) NOT NULL,
        restaurant_id VARCHAR(36) NOT NULL,
        order_id VARCHAR(36),
        amount DECIMAL(10,2) NOT NULL,
        session_id VARCHAR(128) NOT NULL UNIQUE,
        provider VARCHAR(30) NOT NULL,
        status VARCHAR(20) NOT NULL,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        completed_at TIMESTAMP
    );
    `

	if _, err := s.db.Exec(attemptsQuery); err != nil {
		return fmt.Errorf("failed to create payment_attempts table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_payment_attempts_restaurant_id ON payment_attempts(restaurant_id);",
		"CREATE INDEX IF NOT EXISTS idx_payment_attempts_order_id ON payment_attempts(order_id);",
		"CREATE INDEX IF NOT EXISTS idx_payment_attempts_status ON payment_attempts(status);",
	}

	for _, indexQuery := range indexes {
		if _, err := s.db.Exec(indexQuery); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	s.log.LogDatabase("SUCCESS", "postgresql", "Payment tables and indexes ready")
	return nil
}

// SaveAttempt persists a new payment attempt.
func (s *PostgreSQLStore) SaveAttempt(attempt *models.PaymentAttempt) error {
	s.log.LogDatabase("INSERT", "postgresql", fmt.Sprintf("Saving payment attempt %s", attempt.ID))

	query := `
    INSERT INTO payment_attempts (
        id, type, restaurant_id, order_id, amount, session_id, provider, status, created_at
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `

	_, err := s.db.Exec(query,
		attempt.ID, attempt.Type, attempt.RestaurantID, nullable(attempt.OrderID),
		attempt.Amount, attempt.SessionID, attempt.Provider, attempt.Status, attempt.CreatedAt,
	)

	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save payment attempt %s: %s", attempt.ID, err.Error()))
		return fmt.Errorf("failed to save payment attempt: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Payment attempt %s saved successfully", attempt.ID))
	return nil
}

// GetAttempt retrieves a payment attempt by ID.
func (s *PostgreSQLStore) GetAttempt(id string) (*models.PaymentAttempt, error) {
	s.log.LogDatabase("SELECT", "postgresql", fmt.Sprintf("Fetching payment attempt %s", id))

	query := selectColumns + ` WHERE id = $1`
	return s.scanOne(s.db.QueryRow(query, id), id)
}

// GetAttemptBySession retrieves a payment attempt by provider session ID.
func (s *PostgreSQLStore) GetAttemptBySession(sessionID string) (*models.PaymentAttempt, error) {
	s.log.LogDatabase("SELECT", "postgresql", fmt.Sprintf("Fetching payment attempt for session %s", sessionID))

	query := selectColumns + ` WHERE session_id = $1`
	return s.scanOne(s.db.QueryRow(query, sessionID), sessionID)
}

// UpdateAttempt writes back status and completion time.
func (s *PostgreSQLStore) UpdateAttempt(attempt *models.PaymentAttempt) error {
	s.log.LogDatabase("UPDATE", "postgresql", fmt.Sprintf("Updating payment attempt %s", attempt.ID))

	query := `
    UPDATE payment_attempts SET
        status = $1, completed_at = $2
    WHERE id = $3
    `

	_, err := s.db.Exec(query, attempt.Status, nullableTime(attempt.CompletedAt), attempt.ID)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update payment attempt %s: %s", attempt.ID, err.Error()))
		return fmt.Errorf("failed to update payment attempt: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Payment attempt %s updated successfully", attempt.ID))
	return nil
}

// ListAttempts retrieves attempts for a restaurant, newest first.
func (s *PostgreSQLStore) ListAttempts(restaurantID string, limit, offset int) ([]*models.PaymentAttempt, error) {
	s.log.LogDatabase("SELECT", "postgresql", fmt.Sprintf("Listing payment attempts for restaurant %s (limit: %d, offset: %d)", restaurantID, limit, offset))

	query := selectColumns + `
    WHERE restaurant_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
    `

	rows, err := s.db.Query(query, restaurantID, limit, offset)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to list payment attempts: %s", err.Error()))
		return nil, fmt.Errorf("failed to list payment attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*models.PaymentAttempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			s.log.Error("DATABASE", fmt.Sprintf("Failed to scan payment attempt row: %s", err.Error()))
			return nil, fmt.Errorf("failed to scan payment attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}

	if err = rows.Err(); err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Row iteration error: %s", err.Error()))
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "postgresql", fmt.Sprintf("Listed %d payment attempts for restaurant %s", len(attempts), restaurantID))
	return attempts, nil
}

func (s *PostgreSQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "postgresql", "Closing PostgreSQL connection")
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}

const selectColumns = `
    SELECT id, type, restaurant_id, order_id, amount, session_id, provider, status, created_at, completed_at
    FROM payment_attempts`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *PostgreSQLStore) scanOne(row rowScanner, key string) (*models.PaymentAttempt, error) {
	attempt, err := scanAttempt(row)
	if err != nil {
		if err == sql.ErrNoRows {
			s.log.LogDatabase("NOT_FOUND", "postgresql", fmt.Sprintf("Payment attempt %s not found", key))
			return nil, ErrAttemptNotFound
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get payment attempt %s: %s", key, err.Error()))
		return nil, fmt.Errorf("failed to get payment attempt: %w", err)
	}
	return attempt, nil
}

func scanAttempt(row rowScanner) (*models.PaymentAttempt, error) {
	attempt := &models.PaymentAttempt{}
	var orderID sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&attempt.ID, &attempt.Type, &attempt.RestaurantID, &orderID, &attempt.Amount,
		&attempt.SessionID, &attempt.Provider, &attempt.Status, &attempt.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	attempt.OrderID = orderID.String
	if completedAt.Valid {
		attempt.CompletedAt = completedAt.Time
	}
	return attempt, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
