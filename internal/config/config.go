package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig
	Email        EmailConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Database     DatabaseConfig
	Verification VerificationConfig
}

type ServerConfig struct {
	Port         string
	PublicURL    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers  []string
	GroupID  string
	Topics   TopicConfig
	MockMode bool
	Enabled  bool
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

type TopicConfig struct {
	BookingCreated string
	BookingStatus  string
	VendorVerified string
	PaymentSuccess string
	PaymentFailed  string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromAddress  string
}

type VerificationConfig struct {
	// TokenTTL bounds how long a signing link stays valid.
	TokenTTL time.Duration
}

func Load() *Config {
	kafkaEnabled := getEnvBool("KAFKA_ENABLED", true)
	mockMode := getEnvBool("KAFKA_MOCK_MODE", false)

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8085"),
			PublicURL:    getEnv("PUBLIC_URL", "http://localhost:8085"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromAddress:  getEnv("SMTP_FROM", "no-reply@shaadibiyah.com"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "shaadi_user"),
			Password:     getEnv("DB_PASSWORD", "shaadi_pass"),
			Database:     getEnv("DB_NAME", "shaadibiyah"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			GroupID:  getEnv("KAFKA_GROUP_ID", "shaadibiyah-marketplace"),
			Enabled:  kafkaEnabled,
			MockMode: mockMode,
			Topics: TopicConfig{
				BookingCreated: getEnv("KAFKA_TOPIC_BOOKING_CREATED", "shaadibiyah.booking.created"),
				BookingStatus:  getEnv("KAFKA_TOPIC_BOOKING_STATUS", "shaadibiyah.booking.status"),
				VendorVerified: getEnv("KAFKA_TOPIC_VENDOR_VERIFIED", "shaadibiyah.vendor.verified"),
				PaymentSuccess: getEnv("KAFKA_TOPIC_PAYMENT_SUCCESS", "payment-success"),
				PaymentFailed:  getEnv("KAFKA_TOPIC_PAYMENT_FAILED", "payment-failed"),
			},
		},
		Verification: VerificationConfig{
			TokenTTL: time.Duration(getEnvInt("VERIFICATION_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
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
