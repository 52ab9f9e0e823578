package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	SinkMemory = "memory"
	SinkKafka  = "kafka"
	SinkRedis  = "redis"
)

// Config is the process-wide configuration, read once at startup.
type Config struct {
	HTTPAddr        string        `env:"LEDGER_HTTP_ADDR" envDefault:":8080"`
	LogMode         string        `env:"LEDGER_LOG_MODE" envDefault:"dev"`
	AdminID         string        `env:"LEDGER_ADMIN_ID,required,notEmpty"`
	ShutdownTimeout time.Duration `env:"LEDGER_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Store       string `env:"LEDGER_STORE" envDefault:"memory"`
	PostgresDSN string `env:"LEDGER_POSTGRES_DSN"`

	EventSink    string   `env:"LEDGER_EVENT_SINK" envDefault:"memory"`
	KafkaBrokers []string `env:"LEDGER_KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTopic   string   `env:"LEDGER_KAFKA_TOPIC" envDefault:"idea_events"`
	RedisAddr    string   `env:"LEDGER_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisStream  string   `env:"LEDGER_REDIS_STREAM" envDefault:"idea_events"`

	// AmountScale is the number of minor units digits, e.g. 2 for cents.
	AmountScale int32 `env:"LEDGER_AMOUNT_SCALE" envDefault:"2"`
}

// Load reads envFile (when present) into the environment and parses Config.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("LEDGER_POSTGRES_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	switch c.EventSink {
	case SinkMemory, SinkRedis:
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("LEDGER_KAFKA_BROKERS is required for the kafka sink")
		}
	default:
		return fmt.Errorf("unknown event sink %q", c.EventSink)
	}

	if c.AmountScale < 0 {
		return fmt.Errorf("amount scale must not be negative, got %d", c.AmountScale)
	}
	return nil
}
