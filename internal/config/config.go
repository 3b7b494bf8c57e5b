package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Consul   ConsulConfig   `mapstructure:"consul"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type RabbitMQConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	IncomingQueue string        `mapstructure:"incoming_queue"`
	DLQ           string        `mapstructure:"dlq"`
	MessageTTL    time.Duration `mapstructure:"message_ttl"`
	Prefetch      int           `mapstructure:"prefetch"`
}

// RedisConfig drives the status-change notifier. An empty addr disables it.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ConsulConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Load reads configuration from the given yaml file (or ./configs/config.yaml
// when path is empty) with ORDERSVC_* environment overrides. Missing files are
// fine; defaults cover local use.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "order-service")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("http.port", 8082)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "orders")
	v.SetDefault("postgres.password", "orders")
	v.SetDefault("postgres.dbname", "orders")
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.incoming_queue", "orders.created")
	v.SetDefault("rabbitmq.dlq", "orders.created.dlq")
	v.SetDefault("rabbitmq.message_ttl", 5*time.Minute)
	v.SetDefault("rabbitmq.prefetch", 1)

	v.SetEnvPrefix("ORDERSVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields without usable defaults.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.RabbitMQ.IncomingQueue == "" {
		return fmt.Errorf("rabbitmq.incoming_queue is required")
	}
	if c.RabbitMQ.DLQ == "" {
		return fmt.Errorf("rabbitmq.dlq is required")
	}
	if c.HTTP.Port <= 0 {
		return fmt.Errorf("http.port must be positive")
	}
	return nil
}
