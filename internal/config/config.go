package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Service    Service    `envconfig:"SERVICE"`
	Log        Log        `envconfig:"LOG"`
	Apify      Apify      `envconfig:"APIFY"`
	Actor      Actor      `envconfig:"ACTOR"`
	State      State      `envconfig:"STATE"`
	Redis      Redis      `envconfig:"REDIS"`
	SQS        SQS        `envconfig:"SQS"`
	ClickHouse ClickHouse `envconfig:"CLICKHOUSE"`
	Consumer   Consumer   `envconfig:"CONSUMER"`
}

type Service struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	Host        string `envconfig:"HOST" default:"localhost:8080"`
	APIPort     string `envconfig:"API_PORT" default:"8080"`
}

type Log struct {
	File string `envconfig:"FILE"`
}

// Apify holds the hosted storage API settings.
type Apify struct {
	Token             string  `envconfig:"TOKEN" required:"true"`
	APIBaseURL        string  `envconfig:"API_BASE_URL" default:"https://api.apify.com"`
	ConsoleURL        string  `envconfig:"CONSOLE_URL" default:"https://console.apify.com"`
	TimeoutSec        int     `envconfig:"TIMEOUT_SEC" default:"30"`
	MaxRetries        int     `envconfig:"MAX_RETRIES" default:"4"`
	RequestsPerSecond float64 `envconfig:"REQUESTS_PER_SECOND" default:"30"`
}

// Actor describes the current run. RunID namespaces the full and error datasets.
type Actor struct {
	RunID                  string `envconfig:"RUN_ID"`
	DefaultDatasetID       string `envconfig:"DEFAULT_DATASET_ID"`
	DefaultKeyValueStoreID string `envconfig:"DEFAULT_KEY_VALUE_STORE_ID"`
}

// State selects where the validation stats are persisted. StoreName is the
// hosted key-value store used when no default store id is provided.
type State struct {
	Backend   string `envconfig:"BACKEND" default:"apify"`
	Key       string `envconfig:"KEY" default:"VALIDATION_STATS"`
	StoreName string `envconfig:"STORE_NAME" default:"dataset-validation-state"`
}

type Redis struct {
	Host      string `envconfig:"HOST" default:"localhost"`
	Port      string `envconfig:"PORT" default:"6379"`
	Password  string `envconfig:"PASSWORD"`
	DB        int    `envconfig:"DB" default:"0"`
	KeyPrefix string `envconfig:"KEY_PREFIX" default:"dataset-validation"`
}

type SQS struct {
	Endpoint string `envconfig:"ENDPOINT"`
	QueueURL string `envconfig:"QUEUE_URL"`
	Region   string `envconfig:"REGION" default:"eu-central-1"`
}

type ClickHouse struct {
	Enabled         bool   `envconfig:"ENABLED" default:"false"`
	Host            string `envconfig:"HOST" default:"localhost"`
	Port            string `envconfig:"PORT" default:"9000"`
	Database        string `envconfig:"DB" default:"default"`
	User            string `envconfig:"USER" default:""`
	Password        string `envconfig:"PASSWORD" default:""`
	UseTLS          bool   `envconfig:"USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// Consumer tunes the queue pipeline. A failed push makes its messages visible
// again after RetryDelaySec; a message received more than MaxReceiveCount
// times is dropped.
type Consumer struct {
	BatchSizeMax         int    `envconfig:"BATCH_SIZE_MAX" default:"500"`
	BatchTimeoutSec      int    `envconfig:"BATCH_TIMEOUT_SEC" default:"10"`
	VisibilityTimeoutSec int    `envconfig:"VISIBILITY_TIMEOUT_SEC" default:"120"`
	RetryDelaySec        int    `envconfig:"RETRY_DELAY_SEC" default:"30"`
	MaxReceiveCount      int    `envconfig:"MAX_RECEIVE_COUNT" default:"5"`
	HealthCheckPort      string `envconfig:"HEALTH_CHECK_PORT" default:"8081"`
}

const (
	StateBackendApify = "apify"
	StateBackendRedis = "redis"
)

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Actor.RunID == "" {
		cfg.Actor.RunID = uuid.NewString()
	}

	switch cfg.State.Backend {
	case StateBackendApify, StateBackendRedis:
	default:
		return nil, fmt.Errorf("unsupported state backend: %s (supported: apify, redis)", cfg.State.Backend)
	}

	return &cfg, nil
}

// Addr returns the host:port pair of the Redis server.
func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}
