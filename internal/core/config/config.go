package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the API server.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`
	// PortalURL is linked from customer notification emails.
	PortalURL string `mapstructure:"PORTAL_URL" default:"http://localhost:3000"`

	// Database holds the shipment/user store configuration.
	Database DatabaseConfig `mapstructure:",squash"`
	// Cache holds the optional Redis read cache configuration.
	Cache CacheConfig `mapstructure:",squash"`
	// Events holds the optional Kafka event stream configuration.
	Events EventsConfig `mapstructure:",squash"`
	// Queue holds the optional RabbitMQ mail queue configuration.
	Queue QueueConfig `mapstructure:",squash"`
	// Auth holds token signing and bootstrap account settings.
	Auth AuthConfig `mapstructure:",squash"`
	// Uploads holds the document upload backend settings.
	Uploads UploadsConfig `mapstructure:",squash"`
}

// DatabaseConfig holds database connection details.
type DatabaseConfig struct {
	// Driver is the database/sql driver name: "sqlite" or "postgres".
	Driver string `mapstructure:"DB_DRIVER" default:"sqlite"`
	// DSN is the driver specific connection string.
	DSN string `mapstructure:"DB_DSN" default:"freightdesk.db"`
}

// CacheConfig holds the Redis cache settings. An empty URL disables caching.
type CacheConfig struct {
	RedisURL   string `mapstructure:"REDIS_URL"`
	TTLSeconds int    `mapstructure:"CACHE_TTL_SECONDS" default:"300"`
}

// EventsConfig holds the Kafka settings. Empty brokers disable publishing.
type EventsConfig struct {
	// KafkaBrokers is a comma separated list of host:port pairs.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC" default:"shipment-events"`
}

// QueueConfig holds the RabbitMQ settings. An empty URL makes the API
// dispatch mail directly instead of queueing it.
type QueueConfig struct {
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	MailQueue   string `mapstructure:"MAIL_QUEUE" default:"mail-dispatch"`
}

// AuthConfig holds bearer token and bootstrap admin settings.
type AuthConfig struct {
	// JWTSecret signs access tokens (HS256).
	JWTSecret string `mapstructure:"JWT_SECRET" required:"true"`
	// TTLMinutes is the access token lifetime.
	TTLMinutes int `mapstructure:"JWT_TTL_MINUTES" default:"720"`
	// AdminEmail and AdminPassword seed the first admin account when both are set.
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

// UploadsConfig holds the document storage settings.
type UploadsConfig struct {
	Dir           string `mapstructure:"UPLOAD_DIR" default:"uploads"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
}

// CacheTTL returns the cache entry lifetime.
func (c CacheConfig) CacheTTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Brokers splits KafkaBrokers into a clean list.
func (c EventsConfig) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// TokenTTL returns the access token lifetime.
func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	processTags(v, &config)

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %q", config.Database.Driver)
	}

	return &config, nil
}

// processTags walks the struct fields, binding env keys and registering defaults in Viper.
func processTags(v *viper.Viper, config interface{}) {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			processTags(v, val.Field(i).Addr().Interface())
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			_ = v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		if field.Tag.Get("required") == "true" && val.Field(i).IsZero() {
			return fmt.Errorf("missing required configuration: %s", field.Tag.Get("mapstructure"))
		}
	}
	return nil
}
