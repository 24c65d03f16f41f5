package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/stablebook/service-booking/pkg/database"
)

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret          string
	AccessDuration  time.Duration
	RefreshDuration time.Duration
}

// KafkaConfig holds event bus settings.
type KafkaConfig struct {
	Brokers []string
	GroupID string
}

// SweepConfig holds background sweep settings.
type SweepConfig struct {
	Interval          time.Duration
	ReminderLookahead time.Duration
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port              string
	AppEnv            string
	DB                database.PostgresConfig
	JWT               JWTConfig
	Kafka             KafkaConfig
	Sweep             SweepConfig
	RedisAddr         string
	CommissionPercent float64
	WebhookSecret     string
	MigrationsDir     string
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_ACCESS_DURATION", "15m")
	v.SetDefault("JWT_REFRESH_DURATION", "168h")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_ID", "service-booking")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("COMMISSION_PERCENT", 15.0)
	v.SetDefault("SWEEP_INTERVAL", "1m")
	v.SetDefault("REMINDER_LOOKAHEAD", "24h")
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	accessDur, err := time.ParseDuration(v.GetString("JWT_ACCESS_DURATION"))
	if err != nil {
		return nil, err
	}
	refreshDur, err := time.ParseDuration(v.GetString("JWT_REFRESH_DURATION"))
	if err != nil {
		return nil, err
	}
	sweepInterval, err := time.ParseDuration(v.GetString("SWEEP_INTERVAL"))
	if err != nil {
		return nil, err
	}
	lookahead, err := time.ParseDuration(v.GetString("REMINDER_LOOKAHEAD"))
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{
		Port:   v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DB: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessDuration:  accessDur,
			RefreshDuration: refreshDur,
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupID: v.GetString("KAFKA_GROUP_ID"),
		},
		Sweep: SweepConfig{
			Interval:          sweepInterval,
			ReminderLookahead: lookahead,
		},
		RedisAddr:         v.GetString("REDIS_ADDR"),
		CommissionPercent: v.GetFloat64("COMMISSION_PERCENT"),
		WebhookSecret:     v.GetString("PAYMENT_WEBHOOK_SECRET"),
		MigrationsDir:     v.GetString("MIGRATIONS_DIR"),
	}, nil
}
