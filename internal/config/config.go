package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Auth         AuthConfig
	Payment      PaymentConfig
	QR           QRConfig
	Subscription SubscriptionConfig
}

type ServerConfig struct {
	Port        string
	ReadTimeout time.Duration
	IdleTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
	// How long a public menu snapshot stays cached.
	MenuCacheTTL time.Duration
	// TTL on the per-order mutation lock.
	OrderLockTTL time.Duration
}

type KafkaConfig struct {
	Brokers []string
	GroupID string
	Enabled bool
	Topics  TopicConfig
}

type TopicConfig struct {
	OrderCreated   string
	OrderStatus    string
	OrderCancelled string
	PaymentEvents  string
}

type AuthConfig struct {
	OIDCIssuer string
}

type PaymentConfig struct {
	// "simulated" or "stripe"
	Provider string
	// Wall-clock delay before a simulated checkout session completes.
	SimulatedDelay time.Duration
	StripeKey      string
}

type QRConfig struct {
	// Base URL embedded in generated QR codes, e.g. https://menu.example.com
	PublicBaseURL string
	ImageSize     int
	// TTF font used on printable table cards.
	FontPath string
}

type SubscriptionConfig struct {
	// Length of one paid subscription period.
	Period time.Duration
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", ":8080"),
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "qrmenu_user"),
			Password:     getEnv("DB_PASSWORD", "qrmenu_pass"),
			Database:     getEnv("DB_NAME", "qrmenu"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			MenuCacheTTL: time.Duration(getEnvInt("MENU_CACHE_TTL_SECONDS", 60)) * time.Second,
			OrderLockTTL: time.Duration(getEnvInt("ORDER_LOCK_TTL_SECONDS", 10)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			GroupID: getEnv("KAFKA_GROUP_ID", "qrmenu-group"),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				OrderCreated:   getEnv("KAFKA_TOPIC_ORDER_CREATED", "qrmenu.order.created"),
				OrderStatus:    getEnv("KAFKA_TOPIC_ORDER_STATUS", "qrmenu.order.status"),
				OrderCancelled: getEnv("KAFKA_TOPIC_ORDER_CANCELLED", "qrmenu.order.cancelled"),
				PaymentEvents:  getEnv("KAFKA_TOPIC_PAYMENT_EVENTS", "qrmenu.payment.events"),
			},
		},
		Auth: AuthConfig{
			OIDCIssuer: getEnv("OIDC_ISSUER", ""),
		},
		Payment: PaymentConfig{
			Provider:       getEnv("PAYMENT_PROVIDER", "simulated"),
			SimulatedDelay: time.Duration(getEnvInt("PAYMENT_SIM_DELAY_SECONDS", 30)) * time.Second,
			StripeKey:      getEnv("STRIPE_SECRET_KEY", ""),
		},
		QR: QRConfig{
			PublicBaseURL: getEnv("QR_PUBLIC_BASE_URL", "http://localhost:8080"),
			ImageSize:     getEnvInt("QR_IMAGE_SIZE", 256),
			FontPath:      getEnv("QR_CARD_FONT_PATH", "./fonts/DejaVuSans.ttf"),
		},
		Subscription: SubscriptionConfig{
			Period: time.Duration(getEnvInt("SUBSCRIPTION_PERIOD_DAYS", 30)) * 24 * time.Hour,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
