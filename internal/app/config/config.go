package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env            string               `yaml:"env" env:"ENV" env-default:"local"`
	ServiceName    string               `yaml:"service_name" env:"SERVICE_NAME" env-default:"adoption_service"`
	HTTPServer     HTTPServerConfig     `yaml:"http_server"`
	GRPCServer     GRPCServerConfig     `yaml:"grpc_server"`
	MongoDB        MongoDBConfig        `yaml:"mongo"`
	Redis          RedisConfig          `yaml:"redis"`
	NATS           NATSConfig           `yaml:"nats"`
	Logger         LoggerConfig         `yaml:"logger"`
	Auth           AuthConfig           `yaml:"auth"`
	Basket         BasketConfig         `yaml:"basket"`
	ListingCache   ListingCacheConfig   `yaml:"listing_cache"`
	Checkout       CheckoutConfig       `yaml:"checkout"`
	Stripe         StripeConfig         `yaml:"stripe"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	SMTP           SMTPConfig           `yaml:"smtp"`
	Tracing        TracingConfig        `yaml:"tracing"`
}

type HTTPServerConfig struct {
	Port            string        `yaml:"port" env:"HTTP_PORT_ADOPTION_SERVICE" env-default:"8085"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"30s"`
	TimeoutGraceful time.Duration `yaml:"timeout_graceful_shutdown" env-default:"15s"`
}

type GRPCServerConfig struct {
	Port              string        `yaml:"port" env:"GRPC_PORT_ADOPTION_SERVICE" env-default:"50057"`
	MaxConnectionIdle time.Duration `yaml:"max_connection_idle" env-default:"15m"`
	TimeoutGraceful   time.Duration `yaml:"timeout_graceful_shutdown" env-default:"15s"`
}

type MongoDBConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	User     string `yaml:"user" env:"MONGO_USER"`
	Password string `yaml:"password" env:"MONGO_PASSWORD"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"adoption_service_db"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// NATSConfig with an empty URL disables event publishing.
type NATSConfig struct {
	URL string `yaml:"url" env:"NATS_URL" env-default:"nats://localhost:4222"`
}

type LoggerConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding   string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
	TimeFormat string `yaml:"time_format" env:"LOG_TIME_FORMAT" env-default:"2006-01-02T15:04:05.000Z07:00"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AdminRole string `yaml:"admin_role" env:"ADMIN_ROLE" env-default:"admin"`
}

type BasketConfig struct {
	TTL time.Duration `yaml:"ttl" env:"BASKET_TTL" env-default:"720h"`
}

type ListingCacheConfig struct {
	TTL time.Duration `yaml:"ttl" env:"LISTING_CACHE_TTL" env-default:"5m"`
}

type CheckoutConfig struct {
	Currency          string  `yaml:"currency" env:"STRIPE_CURRENCY" env-default:"usd"`
	ProcessingFee     float64 `yaml:"processing_fee" env:"CHECKOUT_PROCESSING_FEE" env-default:"40"`
	ShippingFee       float64 `yaml:"shipping_fee" env:"CHECKOUT_SHIPPING_FEE" env-default:"40"`
	ExclusiveListings bool    `yaml:"exclusive_listings" env:"CHECKOUT_EXCLUSIVE_LISTINGS" env-default:"false"`
}

type StripeConfig struct {
	SecretKey    string        `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	BaseURL      string        `yaml:"base_url" env:"STRIPE_BASE_URL" env-default:"https://api.stripe.com"`
	Timeout      time.Duration `yaml:"timeout" env:"STRIPE_TIMEOUT" env-default:"15s"`
	RetryCount   int           `yaml:"retry_count" env:"STRIPE_RETRY_COUNT" env-default:"2"`
	RetryWait    time.Duration `yaml:"retry_wait" env:"STRIPE_RETRY_WAIT" env-default:"500ms"`
	RetryMaxWait time.Duration `yaml:"retry_max_wait" env:"STRIPE_RETRY_MAX_WAIT" env-default:"3s"`
}

type ReconciliationConfig struct {
	// Interval of 0 disables the background reconciler.
	Interval            time.Duration `yaml:"interval" env:"RECONCILE_INTERVAL" env-default:"10m"`
	BackfillOnEmptyRead bool          `yaml:"backfill_on_empty_read" env:"RECONCILE_BACKFILL_ON_EMPTY_READ" env-default:"true"`
	SagaStallAfter      time.Duration `yaml:"saga_stall_after" env:"RECONCILE_SAGA_STALL_AFTER" env-default:"15m"`
}

// SMTPConfig is optional: receipts are not mailed when Host is empty.
type SMTPConfig struct {
	Host         string        `yaml:"host" env:"SMTP_HOST"`
	Port         int           `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username     string        `yaml:"username" env:"SMTP_USERNAME"`
	Password     string        `yaml:"password" env:"SMTP_PASSWORD"`
	SenderEmail  string        `yaml:"sender_email" env:"SMTP_SENDER_EMAIL"`
	Encryption   string        `yaml:"encryption" env:"SMTP_ENCRYPTION" env-default:"tls"`
	ServerName   string        `yaml:"server_name" env:"SMTP_SERVER_NAME"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SMTP_WRITE_TIMEOUT" env-default:"10s"`
}

type TracingConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
		log.Printf("config file %s not found, reading environment only", path)
		if errEnv := cleanenv.ReadEnv(&cfg); errEnv != nil {
			return nil, errEnv
		}
	}
	return &cfg, nil
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH_ADOPTION_SERVICE")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := LoadConfig(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}
	return cfg
}
