package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"qrmenu/internal/auth"
	"qrmenu/internal/config"
	"qrmenu/internal/database/migrations"
	"qrmenu/internal/kafka"
	"qrmenu/internal/logger"
	"qrmenu/internal/menu"
	menu_api "qrmenu/internal/menu/api"
	menudb "qrmenu/internal/menu/db"
	"qrmenu/internal/models"
	"qrmenu/internal/order"
	orderdb "qrmenu/internal/order/db"
	"qrmenu/internal/order/order_api"
	rediswrap "qrmenu/internal/order/redis"
	"qrmenu/internal/payment"
	payment_api "qrmenu/internal/payment/handler"
	"qrmenu/internal/payment/storage"
	"qrmenu/internal/qr"
	"qrmenu/internal/restaurant"
	restaurant_api "qrmenu/internal/restaurant/api"
	restaurantdb "qrmenu/internal/restaurant/db"
	"qrmenu/internal/sse"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Username, cfg.Database.Password, cfg.Database.Database)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return bunDB, redisClient
}

// consumePaymentEvents replays settled-checkout events off the payment topic
// so attempts settle even when the webhook never lands.
func consumePaymentEvents(ctx context.Context, cfg *config.Config, payments *payment.Service, logger *logger.Logger) {
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.PaymentEvents, cfg.Kafka.GroupID)

	go func() {
		defer consumer.Close()
		logger.LogKafka("CONSUME", cfg.Kafka.Topics.PaymentEvents, "Payment events consumer started")

		err := consumer.Start(ctx, func(key, value []byte) error {
			var event models.ProviderEvent
			if err := json.Unmarshal(value, &event); err != nil {
				logger.Error("KAFKA", fmt.Sprintf("Failed to decode payment event: %v", err))
				return nil
			}

			if err := payments.HandleProviderEvent(event); err != nil {
				// Attempts created by other instances may not have landed yet.
				if errors.Is(err, payment.ErrAttemptNotFound) {
					logger.Warn("PAYMENT", fmt.Sprintf("No attempt for session %s, skipping event", event.SessionID))
					return nil
				}
				return err
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("KAFKA", fmt.Sprintf("Payment events consumer stopped: %v", err))
		}
	}()
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting QR Menu service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), logger)
	if err := runner.RunMigrations(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to run migrations: %v", err))
	}

	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		kafkaProducer = kafka.NewProducer(cfg.Kafka.Brokers)
		logger.Info("KAFKA", "Kafka producer initialized successfully")

		requiredTopics := []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.OrderStatus,
			cfg.Kafka.Topics.OrderCancelled,
			cfg.Kafka.Topics.PaymentEvents,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
		defer kafkaProducer.Close()
	} else {
		logger.Warn("KAFKA", "Kafka disabled, order and payment events will not be published")
	}

	paymentStore, err := storage.NewPostgreSQLStoreWithDB(bunDB.DB, logger)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to initialize payment storage: %v", err))
	}

	menuDB := &menudb.DB{Bun: bunDB}
	restaurantDB := &restaurantdb.DB{Bun: bunDB}
	orderDB := &orderdb.DB{Bun: bunDB}

	restaurantService := restaurant.NewService(restaurantDB, menuDB, logger, cfg.Subscription.Period)
	menuService := menu.NewService(menuDB, restaurantDB, menu.NewCache(redisClient, cfg.Redis.MenuCacheTTL), logger)

	feed := sse.NewOrderFeed()

	var orderPublisher order.Publisher
	var paymentPublisher payment.Publisher
	if kafkaProducer != nil {
		orderPublisher = kafkaProducer
		paymentPublisher = kafkaProducer
	}

	orderService := order.NewOrderService(
		orderDB,
		menuService,
		rediswrap.NewLocker(redisClient, cfg.Redis.OrderLockTTL),
		orderPublisher,
		feed,
		cfg.Kafka.Topics,
		logger,
	)

	var provider payment.CheckoutProvider
	switch cfg.Payment.Provider {
	case "stripe":
		provider, err = payment.NewStripeProvider(cfg.Payment.StripeKey, cfg.QR.PublicBaseURL, logger)
		if err != nil {
			logger.Fatal("PAYMENT", fmt.Sprintf("Failed to initialize Stripe provider: %v", err))
		}
	default:
		provider = payment.NewSimulator(cfg.QR.PublicBaseURL, cfg.Payment.SimulatedDelay)
	}
	logger.Info("PAYMENT", fmt.Sprintf("Checkout provider: %s", provider.Name()))

	paymentService := &payment.Service{
		Store:         paymentStore,
		Provider:      provider,
		Orders:        orderService,
		Subscriptions: restaurantService,
		Kafka:         paymentPublisher,
		Topic:         cfg.Kafka.Topics.PaymentEvents,
		Logger:        logger,
	}

	restaurantHandler := restaurant_api.NewHandler(
		restaurantService,
		qr.NewGenerator(cfg.QR.PublicBaseURL, cfg.QR.ImageSize),
		qr.NewTableCardGenerator(cfg.QR.FontPath),
		logger,
	)
	menuHandler := menu_api.NewHandler(menuService, logger)
	orderHandler := order_api.NewHandler(orderService, feed, logger)
	paymentHandler := payment_api.NewPaymentHandler(paymentService, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/public/restaurants/{slug}/menu", menuHandler.PublicMenu)
	r.Post("/public/orders", orderHandler.CreateOrder)
	r.Get("/public/orders/{orderId}", orderHandler.GetOrder)
	r.Mount("/webhooks", http.StripPrefix("/webhooks", paymentHandler.WebhookRoutes()))
	logger.Info("ROUTER", "Public menu, order and webhook endpoints registered")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.OIDCIssuer, auth.NewVerifiedTokenCache(redisClient)))
		logger.Info("AUTH", "OIDC middleware applied to protected API routes")

		r.Route("/api", func(r chi.Router) {
			r.Route("/restaurants", func(r chi.Router) {
				r.Post("/", restaurantHandler.Register)
				r.Get("/mine", restaurantHandler.GetMine)
				r.Get("/{restaurantId}", restaurantHandler.GetRestaurant)
				r.Put("/{restaurantId}", restaurantHandler.UpdateRestaurant)
				r.Get("/{restaurantId}/qrcode", restaurantHandler.QRCode)
				r.Get("/{restaurantId}/orders/stream", orderHandler.StreamOrders)
			})
			logger.Info("ROUTER", "Restaurant routes registered under /api/restaurants")

			r.Route("/menus", func(r chi.Router) {
				r.Post("/", menuHandler.CreateMenu)
				r.Get("/", menuHandler.ListMenus)
				r.Get("/{menuId}", menuHandler.GetMenu)
				r.Put("/{menuId}", menuHandler.UpdateMenu)
				r.Delete("/{menuId}", menuHandler.DeleteMenu)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", menuHandler.CreateCategory)
				r.Get("/", menuHandler.ListCategories)
				r.Post("/reorder", menuHandler.ReorderCategories)
				r.Put("/{categoryId}", menuHandler.UpdateCategory)
				r.Delete("/{categoryId}", menuHandler.DeleteCategory)
			})

			r.Route("/items", func(r chi.Router) {
				r.Post("/", menuHandler.CreateItem)
				r.Get("/", menuHandler.ListItems)
				r.Post("/reorder", menuHandler.ReorderItems)
				r.Get("/{itemId}", menuHandler.GetItem)
				r.Put("/{itemId}", menuHandler.UpdateItem)
				r.Delete("/{itemId}", menuHandler.DeleteItem)
			})

			r.Route("/customizations", func(r chi.Router) {
				r.Post("/", menuHandler.CreateCustomization)
				r.Put("/{customizationId}", menuHandler.UpdateCustomization)
				r.Delete("/{customizationId}", menuHandler.DeleteCustomization)
				r.Post("/{customizationId}/options", menuHandler.CreateOption)
				r.Put("/options/{optionId}", menuHandler.UpdateOption)
				r.Delete("/options/{optionId}", menuHandler.DeleteOption)
			})
			logger.Info("ROUTER", "Menu catalog routes registered under /api")

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.ListOrders)
				r.Get("/{orderId}", orderHandler.GetOrder)
				r.Put("/{orderId}", orderHandler.UpdateOrder)
				r.Delete("/{orderId}", orderHandler.DeleteOrder)
			})
			logger.Info("ROUTER", "Order routes registered under /api/orders")

			r.Mount("/payments", http.StripPrefix("/api/payments", paymentHandler.Routes()))
			logger.Info("ROUTER", "Payment routes registered under /api/payments")
		})
	})

	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		// No WriteTimeout: the order stream holds responses open indefinitely.
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	if cfg.Kafka.Enabled {
		consumePaymentEvents(ctx, cfg, paymentService, logger)
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 QR Menu service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ QR Menu service shutdown complete")
	}
}
