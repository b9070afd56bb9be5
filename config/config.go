package config

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/jtbgroup/immocare-sub000/lease"
	"github.com/jtbgroup/immocare-sub000/logging"
	"github.com/jtbgroup/immocare-sub000/rent"
)

// Config represents the application configuration.
type Config struct {
	App    AppConfig    `yaml:"app"`
	HTTP   HTTPConfig   `yaml:"http"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Rent   RentConfig   `yaml:"rent"`
	Lease  LeaseConfig  `yaml:"lease"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if err := c.Rent.Validate(); err != nil {
		return fmt.Errorf("rent: %w", err)
	}
	if err := c.Lease.Validate(); err != nil {
		return fmt.Errorf("lease: %w", err)
	}
	return nil
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Env, validation.Required, validation.In("dev", "prod")),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "warning", "error")),
	)
}

// Logging returns the logger configuration.
func (c *AppConfig) Logging() logging.Config {
	return logging.Config{Env: c.Env, Level: c.LogLevel, Service: "immocare"}
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RentConfig bounds rent start dates.
type RentConfig struct {
	MaxFutureYears int `yaml:"max_future_years"`
}

func (c *RentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxFutureYears, validation.Min(0), validation.Max(10)),
	)
}

// Ledger converts to the rent package configuration.
func (c *RentConfig) Ledger() rent.Config {
	return rent.Config{MaxFutureYears: c.MaxFutureYears}
}

// LeaseConfig holds the lease defaults.
type LeaseConfig struct {
	IndexationNoticeDays int            `yaml:"indexation_notice_days"`
	NoticeMonths         map[string]int `yaml:"notice_months"`
	FallbackNoticeMonths int            `yaml:"fallback_notice_months"`
}

func (c *LeaseConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.IndexationNoticeDays, validation.Min(0), validation.Max(366)),
		validation.Field(&c.FallbackNoticeMonths, validation.Required, validation.Min(1)),
	); err != nil {
		return err
	}
	for name, months := range c.NoticeMonths {
		if !knownLeaseType(name) {
			return fmt.Errorf("notice_months: unknown lease type %q", name)
		}
		if months < 1 {
			return fmt.Errorf("notice_months: %s must be at least 1", name)
		}
	}
	return nil
}

// Service converts to the lease package configuration.
func (c *LeaseConfig) Service() lease.Config {
	cfg := lease.DefaultConfig()
	cfg.DefaultIndexationNoticeDays = c.IndexationNoticeDays
	cfg.FallbackNoticeMonths = c.FallbackNoticeMonths
	for name, months := range c.NoticeMonths {
		cfg.NoticeMonthsByType[lease.Type(strings.ToUpper(name))] = months
	}
	return cfg
}

func knownLeaseType(name string) bool {
	for _, t := range lease.Types {
		if strings.EqualFold(string(t), name) {
			return true
		}
	}
	return false
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	defaults := lease.DefaultConfig()
	notice := make(map[string]int, len(defaults.NoticeMonthsByType))
	for t, months := range defaults.NoticeMonthsByType {
		notice[string(t)] = months
	}

	return &Config{
		App: AppConfig{
			Env:      "dev",
			LogLevel: "info",
		},
		HTTP: HTTPConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:4200", "http://localhost:8080"},
		},
		SQLite: SQLiteConfig{
			Path: "./immocare.db",
		},
		Rent: RentConfig{
			MaxFutureYears: 1,
		},
		Lease: LeaseConfig{
			IndexationNoticeDays: defaults.DefaultIndexationNoticeDays,
			NoticeMonths:         notice,
			FallbackNoticeMonths: defaults.FallbackNoticeMonths,
		},
	}
}
