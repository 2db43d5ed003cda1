// Package config содержит логику чтения конфигурации сервиса rentadash.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса rentadash.
type Config struct {
	RunAddress           string        `env:"RUN_ADDRESS"`
	DatabaseURI          string        `env:"DATABASE_URI"`
	BinanceWSURL         string        `env:"BINANCE_WS_URL"`
	BinanceAPIURL        string        `env:"BINANCE_API_URL"`
	RatesPublishInterval time.Duration `env:"RATES_PUBLISH_INTERVAL"`
	AuthSecret           string        `env:"AUTH_SECRET"`
	AllowedLogins        string        `env:"ALLOWED_LOGINS"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envBinanceWSURL := cfg.BinanceWSURL
	envBinanceAPIURL := cfg.BinanceAPIURL
	envInterval := cfg.RatesPublishInterval
	envAuthSecret := cfg.AuthSecret
	envAllowedLogins := cfg.AllowedLogins

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.BinanceWSURL, "w", "", "binance websocket stream base URL")
	flag.StringVar(&cfg.BinanceAPIURL, "b", "", "binance REST API base URL")
	flag.DurationVar(&cfg.RatesPublishInterval, "i", 500*time.Millisecond, "rates publish interval")
	flag.StringVar(&cfg.AuthSecret, "s", "rentadash-secret", "secret key for auth cookies")
	flag.StringVar(&cfg.AllowedLogins, "l", "", "comma-separated list of logins allowed to register")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envBinanceWSURL != "" {
		cfg.BinanceWSURL = envBinanceWSURL
	}
	if envBinanceAPIURL != "" {
		cfg.BinanceAPIURL = envBinanceAPIURL
	}
	if envInterval != 0 {
		cfg.RatesPublishInterval = envInterval
	}
	if envAuthSecret != "" {
		cfg.AuthSecret = envAuthSecret
	}
	if envAllowedLogins != "" {
		cfg.AllowedLogins = envAllowedLogins
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}

// AllowedLoginList возвращает список логинов, которым разрешена регистрация.
// Пустой список означает, что регистрация закрыта для всех.
func (c *Config) AllowedLoginList() []string {
	if c.AllowedLogins == "" {
		return nil
	}

	parts := strings.Split(c.AllowedLogins, ",")
	logins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			logins = append(logins, trimmed)
		}
	}
	return logins
}
