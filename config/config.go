package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"lifeloop/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type DatabaseConfig struct {
	URI                 string        `validate:"required_if=Driver mongo"`
	Driver              string        `validate:"oneof=mongo memory"`
	DatabaseName        string        `validate:"required"`
	ItemsCollection     string        `validate:"required"`
	AnalyticsCollection string        `validate:"required"`
	EventsCollection    string        `validate:"required"`
	MaxPoolSize         uint64        `validate:"gtefield=MinPoolSize"`
	MinPoolSize         uint64
	MaxConnIdleTime     time.Duration
	RetryWrites         bool
}

type SweepConfig struct {
	Workers     int           `validate:"min=1,max=256"`
	ItemTimeout time.Duration `validate:"gt=0"`
	LockTTL     time.Duration `validate:"gt=0"`
}

type Config struct {
	Port              string `validate:"required,numeric"`
	Timezone          string `validate:"required,timezone"`
	RedisURL          string
	JWTSecret         string
	TriggerSecret     string
	AnalyticsCacheTTL time.Duration `validate:"gte=0"`
	Database          DatabaseConfig
	Sweep             SweepConfig
}

// LoadDotEnv reads .env when present. Outside of tests a missing file is
// only logged, the process environment still applies.
func LoadDotEnv() {
	if os.Getenv("GO_ENV") == "test" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:              utils.GetEnvAsString("PORT", "8080"),
		Timezone:          utils.GetEnvAsString("TIMEZONE", "UTC"),
		RedisURL:          utils.GetEnvAsString("REDIS_URL", ""),
		JWTSecret:         utils.GetEnvAsString("JWT_SECRET_KEY", ""),
		TriggerSecret:     utils.GetEnvAsString("TRIGGER_SECRET", ""),
		AnalyticsCacheTTL: utils.GetEnvAsDuration("ANALYTICS_CACHE_TTL", 5*time.Minute),
		Database: DatabaseConfig{
			URI:                 utils.GetEnvAsString("MONGO_URI", "mongodb://localhost:27017"),
			Driver:              utils.GetEnvAsString("STORE_DRIVER", "mongo"),
			DatabaseName:        utils.GetEnvAsString("MONGO_DB", "lifeloop"),
			ItemsCollection:     utils.GetEnvAsString("ITEMS_COLLECTION", "items"),
			AnalyticsCollection: utils.GetEnvAsString("ANALYTICS_COLLECTION", "analytics"),
			EventsCollection:    utils.GetEnvAsString("EVENTS_COLLECTION", "events"),
			MaxPoolSize:         utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", 100),
			MinPoolSize:         utils.GetEnvAsUint64("MONGO_MIN_POOL_SIZE", 10),
			MaxConnIdleTime:     utils.GetEnvAsDuration("MONGO_MAX_CONN_IDLE_TIME", 60*time.Second),
			RetryWrites:         utils.GetEnvAsBool("MONGO_RETRY_WRITES", true),
		},
		Sweep: SweepConfig{
			Workers:     utils.GetEnvAsInt("SWEEP_WORKERS", 8),
			ItemTimeout: utils.GetEnvAsDuration("SWEEP_ITEM_TIMEOUT", 10*time.Second),
			LockTTL:     utils.GetEnvAsDuration("LOCK_TTL", 30*time.Second),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MongoOptions adapts the database section for utils.ConnectMongo.
func (c *Config) MongoOptions() utils.MongoOptions {
	return utils.MongoOptions{
		URI:             c.Database.URI,
		MaxPoolSize:     c.Database.MaxPoolSize,
		MinPoolSize:     c.Database.MinPoolSize,
		MaxConnIdleTime: c.Database.MaxConnIdleTime,
		RetryWrites:     c.Database.RetryWrites,
	}
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
