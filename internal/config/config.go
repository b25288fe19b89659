package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"datagen"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string   `envconfig:"DATAGEN_ADDRESS" default:":8080"`
	MetricsAddress  string   `envconfig:"DATAGEN_METRICS_ADDRESS" default:":8081"`
	BaseUrl         string   `envconfig:"DATAGEN_BASE_URL" default:"https://localhost:8080"`
	LogLevel        string   `envconfig:"DATAGEN_LOG_LEVEL" default:"info"`
	CorsOrigins     []string `envconfig:"DATAGEN_CORS_ORIGINS" default:"https://app.synthmesh.io"`
	MigrationFolder string   `envconfig:"DATAGEN_MIGRATIONS_FOLDER" default:""`
	PipelineUrl     string   `envconfig:"DATAGEN_PIPELINE_URL" default:""`
	Auth            Auth
	RateLimit       RateLimit
	Webhook         Webhook
}

type Auth struct {
	AuthenticationType string `envconfig:"DATAGEN_AUTH" default:""`
	JwkCertURL         string `envconfig:"DATAGEN_JWK_URL" default:""`
}

type RateLimit struct {
	RedisAddr     string `envconfig:"DATAGEN_REDIS_ADDR" default:""`
	RedisPassword string `envconfig:"DATAGEN_REDIS_PASSWORD" default:""`
	JobsPerMinute int    `envconfig:"DATAGEN_JOBS_PER_MINUTE" default:"30"`
}

type Webhook struct {
	DeliveryTimeout time.Duration `envconfig:"DATAGEN_WEBHOOK_DELIVERY_TIMEOUT" default:"10s"`
	MaxAttempts     int           `envconfig:"DATAGEN_WEBHOOK_MAX_ATTEMPTS" default:"5"`
	MaxWorkers      int           `envconfig:"DATAGEN_WEBHOOK_MAX_WORKERS" default:"4"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config backed by an in-memory sqlite database.
// Used by the test suites; never reads the environment.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: "sqlite",
			Name: ":memory:",
		},
		Service: &svcConfig{
			Address:        ":8080",
			MetricsAddress: ":8081",
			BaseUrl:        "https://localhost:8080",
			LogLevel:       "info",
			RateLimit:      RateLimit{JobsPerMinute: 30},
			Webhook: Webhook{
				DeliveryTimeout: 10 * time.Second,
				MaxAttempts:     5,
				MaxWorkers:      4,
			},
		},
	}
}
