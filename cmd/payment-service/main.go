package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"shaadibiyah/internal/config"
	"shaadibiyah/internal/kafka"
	"shaadibiyah/internal/logger"
	handlers "shaadibiyah/internal/payment/handler"
	paymentredis "shaadibiyah/internal/payment/redis"
	"shaadibiyah/internal/payment/services"
	"shaadibiyah/internal/payment/storage"
)

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting ShaadiBiyah Payment Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	store, err := storage.NewPostgreSQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to initialize payment storage: %v", err))
	}
	defer store.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	defer redisClient.Close()
	log.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer kafkaProducer.Close()
	paymentTopics := []string{cfg.Kafka.Topics.PaymentSuccess, cfg.Kafka.Topics.PaymentFailed}
	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, paymentTopics); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	stripeService, err := services.NewStripeService(log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Failed to initialize Stripe service: %v", err))
	}

	handler := handlers.NewStripeHandler(
		stripeService,
		store,
		paymentredis.NewRedis(redisClient),
		kafkaProducer,
		handlers.Topics{
			PaymentSuccess: cfg.Kafka.Topics.PaymentSuccess,
			PaymentFailed:  cfg.Kafka.Topics.PaymentFailed,
		},
		log,
	)

	router := gin.Default()

	api := router.Group("/api/payments")
	{
		api.POST("/process", handler.ProcessPayment)
		api.POST("/validate-card", handler.ValidateCard)
		api.POST("/webhook", handler.HandleWebhook)
		api.GET("/booking/:bookingId", handler.GetPaymentByBooking)
	}

	router.GET("/health", func(c *gin.Context) {
		if err := store.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	port := os.Getenv("PAYMENT_PORT")
	if port == "" {
		port = ":8086"
	}

	server := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Payment Service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Payment Service shutdown complete")
	}
}
