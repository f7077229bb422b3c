// Package config loads runtime configuration from environment variables.
// A .env file, when present, is loaded by cmd/server before Load runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/clock"
)

// Store drivers.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.
type Config struct {
	Env         string // APP_ENV, e.g. development or production
	Port        string // APP_PORT
	StoreDriver string // STORE_DRIVER: mysql (default) or memory

	DBUser string
	DBPass string // may be empty
	DBHost string
	DBPort string
	DBName string

	JWTSecret  string
	AccessTTL  time.Duration // ACCESS_TOKEN_TTL_MIN
	RefreshTTL time.Duration // REFRESH_TOKEN_TTL_DAYS
	BcryptCost int

	TheaterOffset  time.Duration // THEATER_UTC_OFFSET, default +07:00
	LogLevel       string
	RequestTimeout time.Duration

	RabbitURL     string // empty disables publishing and the booking log consumer
	BookingLogDir string

	BootstrapOwnerEmail    string
	BootstrapOwnerPassword string
	BootstrapOwnerName     string
}

// loader collects every missing or malformed variable so one run reports
// them all.
type loader struct {
	errs []error
}

func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		l.errs = append(l.errs, fmt.Errorf("missing required env var: %s", key))
	}
	return strings.TrimSpace(v)
}

func (l *loader) mustInt(key string) int {
	s := l.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}

// Load reads the configuration. The returned error lists every problem found.
func Load() (Config, error) {
	var l loader
	cfg := Config{
		Env:            envStr("APP_ENV", "development"),
		Port:           envStr("APP_PORT", "8080"),
		StoreDriver:    strings.ToLower(envStr("STORE_DRIVER", StoreMySQL)),
		JWTSecret:      l.must("JWT_SECRET"),
		AccessTTL:      time.Duration(envInt("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
		RefreshTTL:     time.Duration(envInt("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,
		BcryptCost:     envInt("BCRYPT_COST", 12),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		RequestTimeout: envDur("REQUEST_TIMEOUT", 5*time.Second),
		RabbitURL:      firstEnv("RABBITMQ_URL", "AMQP_URL"),
		BookingLogDir:  envStr("BOOKING_LOG_DIR", "logs"),

		BootstrapOwnerEmail:    os.Getenv("BOOTSTRAP_OWNER_EMAIL"),
		BootstrapOwnerPassword: os.Getenv("BOOTSTRAP_OWNER_PASSWORD"),
		BootstrapOwnerName:     envStr("BOOTSTRAP_OWNER_NAME", "Owner"),
	}

	switch cfg.StoreDriver {
	case StoreMySQL:
		cfg.DBUser = l.must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = l.must("DB_HOST")
		cfg.DBPort = l.must("DB_PORT")
		cfg.DBName = l.must("DB_NAME")
	case StoreMemory:
	default:
		l.errs = append(l.errs, fmt.Errorf("STORE_DRIVER must be %s or %s, got %q", StoreMySQL, StoreMemory, cfg.StoreDriver))
	}

	offset, err := clock.ParseOffset(envStr("THEATER_UTC_OFFSET", "+07:00"))
	if err != nil {
		l.errs = append(l.errs, fmt.Errorf("THEATER_UTC_OFFSET: %w", err))
	}
	cfg.TheaterOffset = offset

	return cfg, errors.Join(l.errs...)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
