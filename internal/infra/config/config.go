package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/subosito/gotenv"

	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/money"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                string
	HTTPAddr           string
	StorageMode        string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaGroupID       string
	KafkaCalendarTopic string
	KafkaEventsTopic   string
	CalendarDebounce   time.Duration
	ICalFetchTimeout   time.Duration
	OutboxRelayEvery   time.Duration
	QuoteSessionTTL    time.Duration
	ServiceFeeRate     decimal.Decimal
	ServiceFeeBase     pricing.FeeBase
	ListingsFixtures   string
	MetricsEnabled     bool
	ShutdownTimeout    time.Duration
}

// LoadDotEnv reads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		err := gotenv.Load(p)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			continue
		}
		return fmt.Errorf("load %s: %w", p, err)
	}
	return nil
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		StorageMode:        strings.ToLower(getEnv("STORAGE_MODE", StorageMemory)),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "stayquote"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "stayquote-calendar"),
		KafkaCalendarTopic: getEnv("KAFKA_CALENDAR_TOPIC", "calendar.updated"),
		KafkaEventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "stayquote.events"),
		ListingsFixtures:   os.Getenv("LISTINGS_FIXTURES"),
	}
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.CalendarDebounce, err = parseDurationEnv("CALENDAR_DEBOUNCE", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.ICalFetchTimeout, err = parseDurationEnv("ICAL_FETCH_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.OutboxRelayEvery, err = parseDurationEnv("OUTBOX_RELAY_INTERVAL", 500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.QuoteSessionTTL, err = parseDurationEnv("QUOTE_SESSION_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MetricsEnabled, err = parseBoolEnv("METRICS_ENABLED", true); err != nil {
		return Config{}, err
	}

	cfg.ServiceFeeRate = pricing.DefaultServiceFeeRate
	if raw := os.Getenv("SERVICE_FEE_RATE"); raw != "" {
		rate, err := money.ParseRate(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVICE_FEE_RATE: %w", err)
		}
		cfg.ServiceFeeRate = rate
	}
	if cfg.ServiceFeeBase, err = pricing.ParseFeeBase(os.Getenv("SERVICE_FEE_BASE")); err != nil {
		return Config{}, fmt.Errorf("invalid SERVICE_FEE_BASE: %w", err)
	}

	switch cfg.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE %q", cfg.StorageMode)
	}
	return cfg, nil
}

// PricingPolicy is the calculator policy described by the configuration.
func (c Config) PricingPolicy() pricing.Policy {
	p := pricing.DefaultPolicy()
	p.ServiceFeeRate = c.ServiceFeeRate
	p.ServiceFeeBase = c.ServiceFeeBase
	return p
}

// CalendarSyncEnabled reports whether the Kafka feed consumer should run.
func (c Config) CalendarSyncEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaCalendarTopic != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
