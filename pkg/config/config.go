package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the full runtime configuration for the metadata extractor.
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Records   RecordStoreConfig
	Notify    NotifyConfig
	Kafka     KafkaConfig
	Processor ProcessorConfig
	Tracing   TracingConfig
	Metrics   MetricsConfig
}

type AppConfig struct {
	Name        string `env:"APP_NAME" envDefault:"imagemeta-extractor"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Version     string `env:"APP_VERSION" envDefault:"0.1.0"`
	LogLevel    string `env:"APP_LOG_LEVEL" envDefault:"info"`
	// Trigger selects how upload batches arrive: "lambda" or "http".
	Trigger string `env:"APP_TRIGGER" envDefault:"lambda"`
}

type HTTPConfig struct {
	Addr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	// MaxBodyBytes caps the size of a notification payload accepted on the webhook.
	MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
}

type StorageConfig struct {
	Provider       string `env:"STORAGE_PROVIDER" envDefault:"s3"`
	Endpoint       string `env:"STORAGE_ENDPOINT"`
	Region         string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	AccessKey      string `env:"STORAGE_ACCESS_KEY"`
	SecretKey      string `env:"STORAGE_SECRET_KEY"`
	UseSSL         bool   `env:"STORAGE_USE_SSL" envDefault:"true"`
	ForcePathStyle bool   `env:"STORAGE_FORCE_PATH_STYLE" envDefault:"false"`
}

type RecordStoreConfig struct {
	Provider string `env:"RECORDS_PROVIDER" envDefault:"dynamodb"`
	// Table is the DynamoDB table, Redis key prefix or Postgres table name.
	Table       string `env:"RECORDS_TABLE"`
	Endpoint    string `env:"RECORDS_ENDPOINT"`
	Region      string `env:"RECORDS_REGION" envDefault:"us-east-1"`
	RedisAddr   string `env:"RECORDS_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int    `env:"RECORDS_REDIS_DB" envDefault:"0"`
	PostgresDSN string `env:"RECORDS_POSTGRES_DSN"`
}

type NotifyConfig struct {
	Provider string `env:"NOTIFY_PROVIDER" envDefault:"sns"`
	// Channel is the SNS topic ARN, Kafka topic or NATS subject.
	Channel  string `env:"NOTIFY_CHANNEL"`
	Endpoint string `env:"NOTIFY_ENDPOINT"`
	Region   string `env:"NOTIFY_REGION" envDefault:"us-east-1"`
	NATSURL  string `env:"NOTIFY_NATS_URL" envDefault:"nats://127.0.0.1:4222"`
}

type KafkaConfig struct {
	Brokers          []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Retries          int           `env:"KAFKA_RETRIES" envDefault:"3"`
	CompressionCodec string        `env:"KAFKA_COMPRESSION_CODEC" envDefault:"snappy"`
	BatchSize        int           `env:"KAFKA_BATCH_SIZE" envDefault:"1"`
	BatchTimeout     time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"10ms"`
}

type ProcessorConfig struct {
	Concurrency    int   `env:"PROCESSOR_CONCURRENCY" envDefault:"1"`
	MaxObjectBytes int64 `env:"PROCESSOR_MAX_OBJECT_BYTES" envDefault:"52428800"`
}

type TracingConfig struct {
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
	ResourceAttr string  `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"service.namespace=imagemeta"`
}

type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"false"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
