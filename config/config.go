package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address"`
	SwaggerDir  string   `yaml:"swagger_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig with an empty Addr disables the destination cache and the
// shared booking lock; the service then locks in-process.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
	Audience  string `yaml:"audience"`
}

type BookingConfig struct {
	ConfirmationPrefix      string `yaml:"confirmation_prefix"`
	DefaultCurrency         string `yaml:"default_currency"`
	LockTTLSeconds          int    `yaml:"lock_ttl_seconds"`
	LockWaitMillis          int    `yaml:"lock_wait_millis"`
	DestinationsCacheTTL    int    `yaml:"destinations_cache_ttl_seconds"`
	AvailabilityRetries     int    `yaml:"availability_retries"`
	ConfirmationCodeRetries int    `yaml:"confirmation_code_retries"`
}

func (b BookingConfig) LockTTL() time.Duration {
	return time.Duration(b.LockTTLSeconds) * time.Second
}

func (b BookingConfig) LockWait() time.Duration {
	return time.Duration(b.LockWaitMillis) * time.Millisecond
}

func (b BookingConfig) CacheTTL() time.Duration {
	return time.Duration(b.DestinationsCacheTTL) * time.Second
}

// WorkerConfig.CompletionSweepMinutes of zero leaves confirmed bookings
// alone; completion then only happens through the admin API.
type WorkerConfig struct {
	CompletionSweepMinutes int `yaml:"completion_sweep_minutes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv lets secrets stay out of the YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":3001"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":50051"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "travel-app"
	}
	if c.Auth.Audience == "" {
		c.Auth.Audience = "travel-app-users"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "travel-notifications"
	}
	if c.Booking.ConfirmationPrefix == "" {
		c.Booking.ConfirmationPrefix = "TRV"
	}
	if c.Booking.DefaultCurrency == "" {
		c.Booking.DefaultCurrency = "USD"
	}
	if c.Booking.LockTTLSeconds == 0 {
		c.Booking.LockTTLSeconds = 10
	}
	if c.Booking.LockWaitMillis == 0 {
		c.Booking.LockWaitMillis = 3000
	}
	if c.Booking.DestinationsCacheTTL == 0 {
		c.Booking.DestinationsCacheTTL = 60
	}
	if c.Booking.AvailabilityRetries == 0 {
		c.Booking.AvailabilityRetries = 3
	}
	if c.Booking.ConfirmationCodeRetries == 0 {
		c.Booking.ConfirmationCodeRetries = 3
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if len(c.Booking.DefaultCurrency) != 3 {
		return errors.New("booking.default_currency must be a 3-letter code")
	}
	if c.Worker.CompletionSweepMinutes < 0 {
		return errors.New("worker.completion_sweep_minutes cannot be negative")
	}
	return nil
}
