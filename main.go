package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"shaadibiyah/internal/analytics"
	analytics_api "shaadibiyah/internal/analytics/api"
	"shaadibiyah/internal/auth"
	"shaadibiyah/internal/booking"
	"shaadibiyah/internal/booking/booking_api"
	booking_db "shaadibiyah/internal/booking/db"
	"shaadibiyah/internal/chat"
	"shaadibiyah/internal/chat/chat_api"
	chat_db "shaadibiyah/internal/chat/db"
	"shaadibiyah/internal/config"
	"shaadibiyah/internal/database/migrations"
	"shaadibiyah/internal/email"
	"shaadibiyah/internal/kafka"
	"shaadibiyah/internal/logger"
	notification_db "shaadibiyah/internal/notification/db"
	"shaadibiyah/internal/notification/notification_api"
	"shaadibiyah/internal/sse"
	"shaadibiyah/internal/vendors"
	vendor_db "shaadibiyah/internal/vendors/db"
	"shaadibiyah/internal/vendors/vendor_api"
	"shaadibiyah/internal/verification"
	verification_db "shaadibiyah/internal/verification/db"
	"shaadibiyah/internal/verification/verification_api"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting ShaadiBiyah Marketplace initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := runner.Run(); err != nil {
		log.Warn("DATABASE", fmt.Sprintf("Migrations did not complete: %v", err))
	} else {
		log.Info("DATABASE", "Schema migrations applied")
	}

	// Leave the interfaces nil when Kafka is off so the services skip publishing
	var bookingKafka booking.KafkaPublisher
	var verificationKafka verification.KafkaPublisher
	if cfg.Kafka.Enabled {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer kafkaProducer.Close()
		bookingKafka = kafkaProducer
		verificationKafka = kafkaProducer
		log.Info("KAFKA", "Kafka producer initialized successfully")

		requiredTopics := []string{
			cfg.Kafka.Topics.BookingCreated,
			cfg.Kafka.Topics.BookingStatus,
			cfg.Kafka.Topics.VendorVerified,
			cfg.Kafka.Topics.PaymentSuccess,
			cfg.Kafka.Topics.PaymentFailed,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, booking and payment events will not be streamed")
	}

	emailSender := email.NewSender(cfg.Email, log)
	relay := sse.NewRelay()
	notificationDB := &notification_db.DB{Bun: bunDB}

	bookingService := booking.NewService(
		&booking_db.DB{Bun: bunDB},
		notificationDB,
		emailSender,
		bookingKafka,
		relay,
		booking.Topics{
			BookingCreated: cfg.Kafka.Topics.BookingCreated,
			BookingStatus:  cfg.Kafka.Topics.BookingStatus,
		},
		log,
	)

	vendorService := vendor.NewService(&vendor_db.DB{Bun: bunDB}, log)

	verificationService := verification.NewService(
		&verification_db.DB{Bun: bunDB},
		notificationDB,
		emailSender,
		verificationKafka,
		cfg.Kafka.Topics.VendorVerified,
		cfg.Server.PublicURL,
		cfg.Verification.TokenTTL,
		log,
	)

	chatService := chat.NewService(&chat_db.DB{Bun: bunDB}, notificationDB, relay, log)
	analyticsService := analytics.NewService(bunDB)

	bookingHandler := booking_api.NewHandler(bookingService, log)
	analyticsHandler := analytics_api.NewHandler(analyticsService, log)
	vendorHandler := vendor_api.NewHandler(vendorService, log)
	verificationHandler := verification_api.NewHandler(verificationService, log)
	chatHandler := chat_api.NewHandler(chatService, relay, log)
	notificationHandler := notification_api.NewHandler(notificationDB, log)

	// Payment outcomes arrive asynchronously from the payment service
	if cfg.Kafka.Enabled {
		for _, topic := range []string{cfg.Kafka.Topics.PaymentSuccess, cfg.Kafka.Topics.PaymentFailed} {
			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.GroupID)
			defer consumer.Close()
			go consumer.Start(ctx, func(key, value []byte) error {
				return bookingService.HandlePaymentEvent(ctx, key, value)
			})
			log.Info("KAFKA", fmt.Sprintf("Payment event consumer started for topic %s", topic))
		}
	}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Route("/api", func(r chi.Router) {
		// Signing links are opened from email, the token is the credential
		verificationHandler.RegisterPublicRoutes(r)
	})
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	log.Info("ROUTER", "Public signing routes registered under /api/verification/sign")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		log.Info("AUTH", "JWT middleware applied to protected API routes")

		r.Route("/api", func(r chi.Router) {
			bookingHandler.RegisterRoutes(r)
			log.Info("ROUTER", "Booking routes registered under /api/bookings")

			vendorHandler.RegisterRoutes(r)
			log.Info("ROUTER", "Vendor routes registered under /api/vendors")

			verificationHandler.RegisterRoutes(r)
			log.Info("ROUTER", "Verification routes registered under /api/verification")

			chatHandler.RegisterRoutes(r)
			log.Info("ROUTER", "Chat routes registered under /api/chat")

			notificationHandler.RegisterRoutes(r)
			log.Info("ROUTER", "Notification routes registered under /api/notifications")

			analyticsHandler.RegisterRoutes(r)
			log.Info("ROUTER", "Analytics routes registered under /api/analytics")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 ShaadiBiyah Marketplace running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Marketplace shutdown complete")
	}
}
