package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string
	PantryBaseURL string
	PantryTimeout time.Duration
	// Redis backs tab sessions and the query cache. Empty keeps both in memory.
	RedisURL string
	// DatabaseURL enables the activity journal. Empty disables it.
	DatabaseURL string
	CORSOrigin  string
	// Identity cookie
	IdentityCookie string
	IdentityMaxAge time.Duration
	// Tab scope
	TabCookie string
	TabTTL    time.Duration
	CacheTTL  time.Duration
	Settle    time.Duration
	// Logging
	LogLevel  string
	LogFormat string
}

// fileConfig is the optional YAML overlay named by WALL_CONFIG. Unset
// fields keep the built-in default; env vars override both.
type fileConfig struct {
	Addr          string `yaml:"addr"`
	PantryBaseURL string `yaml:"pantry_base_url"`
	PantryTimeout int    `yaml:"pantry_timeout_ms"`
	RedisURL      string `yaml:"redis_url"`
	DatabaseURL   string `yaml:"database_url"`
	CORSOrigin    string `yaml:"cors_origin"`
	Identity      struct {
		Cookie     string `yaml:"cookie"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"identity"`
	Tab struct {
		Cookie     string `yaml:"cookie"`
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"tab"`
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
	SettleMS        int `yaml:"settle_ms"`
	Log             struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func defaults() fileConfig {
	var d fileConfig
	d.Addr = ":8790"
	d.PantryBaseURL = "https://getpantry.cloud/apiv1"
	d.PantryTimeout = 15000
	d.CORSOrigin = "*"
	d.Identity.Cookie = "pantry_uid"
	d.Identity.MaxAgeDays = 3650
	d.Tab.Cookie = "wall_tab"
	d.Tab.TTLSeconds = 86400
	d.CacheTTLSeconds = 43200
	d.SettleMS = 10
	d.Log.Level = "info"
	d.Log.Format = "json"
	return d
}

// Load reads the YAML overlay named by WALL_CONFIG, if any, then env vars.
func Load() (Config, error) {
	base := defaults()
	if path := strings.TrimSpace(os.Getenv("WALL_CONFIG")); path != "" {
		if err := overlayFile(&base, path); err != nil {
			return Config{}, err
		}
	}

	return Config{
		Addr:           getenv("WALL_ADDR", base.Addr),
		PantryBaseURL:  getenv("PANTRY_BASE_URL", base.PantryBaseURL),
		PantryTimeout:  time.Duration(getenvInt("PANTRY_TIMEOUT_MS", base.PantryTimeout)) * time.Millisecond,
		RedisURL:       getenv("REDIS_URL", base.RedisURL),
		DatabaseURL:    getenv("DATABASE_URL", base.DatabaseURL),
		CORSOrigin:     getenv("WALL_CORS_ORIGIN", base.CORSOrigin),
		IdentityCookie: getenv("WALL_IDENTITY_COOKIE", base.Identity.Cookie),
		IdentityMaxAge: time.Duration(getenvInt("WALL_IDENTITY_MAX_AGE_DAYS", base.Identity.MaxAgeDays)) * 24 * time.Hour,
		TabCookie:      getenv("WALL_TAB_COOKIE", base.Tab.Cookie),
		TabTTL:         time.Duration(getenvInt("WALL_TAB_TTL_SECONDS", base.Tab.TTLSeconds)) * time.Second,
		CacheTTL:       time.Duration(getenvInt("WALL_CACHE_TTL_SECONDS", base.CacheTTLSeconds)) * time.Second,
		Settle:         time.Duration(getenvInt("WALL_SETTLE_MS", base.SettleMS)) * time.Millisecond,
		LogLevel:       getenv("WALL_LOG_LEVEL", base.Log.Level),
		LogFormat:      getenv("WALL_LOG_FORMAT", base.Log.Format),
	}, nil
}

func overlayFile(base *fileConfig, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var overlay fileConfig
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	mergeString(&base.Addr, overlay.Addr)
	mergeString(&base.PantryBaseURL, overlay.PantryBaseURL)
	mergeInt(&base.PantryTimeout, overlay.PantryTimeout)
	mergeString(&base.RedisURL, overlay.RedisURL)
	mergeString(&base.DatabaseURL, overlay.DatabaseURL)
	mergeString(&base.CORSOrigin, overlay.CORSOrigin)
	mergeString(&base.Identity.Cookie, overlay.Identity.Cookie)
	mergeInt(&base.Identity.MaxAgeDays, overlay.Identity.MaxAgeDays)
	mergeString(&base.Tab.Cookie, overlay.Tab.Cookie)
	mergeInt(&base.Tab.TTLSeconds, overlay.Tab.TTLSeconds)
	mergeInt(&base.CacheTTLSeconds, overlay.CacheTTLSeconds)
	mergeInt(&base.SettleMS, overlay.SettleMS)
	mergeString(&base.Log.Level, overlay.Log.Level)
	mergeString(&base.Log.Format, overlay.Log.Format)
	return nil
}

func mergeString(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}

func mergeInt(dst *int, value int) {
	if value > 0 {
		*dst = value
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
