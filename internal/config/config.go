// Package config конфигурация сервиса из TOML-файла
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config полная конфигурация сервиса
type Config struct {
	Server         ServerConfig      `toml:"server"`
	Database       DatabaseConfig    `toml:"database"`
	Logs           LogsConfig        `toml:"logs"`
	Metrics        MetricsConfig     `toml:"metrics"`
	Lifecycle      LifecycleConfig   `toml:"lifecycle"`
	PaymentGateway IntegrationConfig `toml:"payment_gateway"`
	NotifyService  IntegrationConfig `toml:"notify_service"`
	PayoutService  IntegrationConfig `toml:"payout_service"`
}

// ServerConfig настройки HTTP-сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN собирает строку подключения
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки Prometheus-метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// LifecycleConfig тайминги жизненного цикла бронирования
type LifecycleConfig struct {
	HoldTTLMinutes              int `toml:"hold_ttl_minutes"`
	PendingProviderTimeoutHours int `toml:"pending_provider_timeout_hours"`
	SweepIntervalSeconds        int `toml:"sweep_interval_seconds"`
	LogRetentionDays            int `toml:"log_retention_days"`
	EffectRetryBackoffSeconds   int `toml:"effect_retry_backoff_seconds"`
	PayoutDelayDays             int `toml:"payout_delay_days"`
}

// IntegrationConfig настройки внешнего сервиса-коллаборатора
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// Load читает конфигурацию из TOML-файла и применяет значения по умолчанию
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}

	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}

	if c.Logs.File == "" {
		c.Logs.File = "lifecycle-service.log"
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "lifecycle-service"
	}

	if c.Lifecycle.HoldTTLMinutes == 0 {
		c.Lifecycle.HoldTTLMinutes = 10
	}
	if c.Lifecycle.PendingProviderTimeoutHours == 0 {
		c.Lifecycle.PendingProviderTimeoutHours = 24
	}
	if c.Lifecycle.SweepIntervalSeconds == 0 {
		c.Lifecycle.SweepIntervalSeconds = 60
	}
	if c.Lifecycle.LogRetentionDays == 0 {
		c.Lifecycle.LogRetentionDays = 365
	}
	if c.Lifecycle.EffectRetryBackoffSeconds == 0 {
		c.Lifecycle.EffectRetryBackoffSeconds = 120
	}
	if c.Lifecycle.PayoutDelayDays == 0 {
		c.Lifecycle.PayoutDelayDays = 3
	}

	if c.PaymentGateway.Timeout == 0 {
		c.PaymentGateway.Timeout = 5
	}
	if c.NotifyService.Timeout == 0 {
		c.NotifyService.Timeout = 5
	}
	if c.PayoutService.Timeout == 0 {
		c.PayoutService.Timeout = 5
	}
}

func (c *Config) validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.dbname is required")
	}
	return nil
}
