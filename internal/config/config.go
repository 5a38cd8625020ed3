// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SamedayUsername string
	SamedayPassword string
	SamedayBaseURL  string
	CountryCode     string
	SyncSchedule    string
	ListenAddr      string
	DBPath          string
}

// Load reads configuration from environment variables and returns a validated Config.
// LOCKERSYNC_SAMEDAY_USERNAME and LOCKERSYNC_SAMEDAY_PASSWORD are required.
// Optional variables with defaults: LOCKERSYNC_SAMEDAY_BASE_URL
// (https://api.sameday.bg), LOCKERSYNC_COUNTRY_CODE (RO),
// LOCKERSYNC_SYNC_SCHEDULE ("Sunday 03:00", format "Weekday HH:MM"),
// LOCKERSYNC_LISTEN_ADDR (127.0.0.1:8080), LOCKERSYNC_DB_PATH (lockersync.db).
func Load() (*Config, error) {
	username := os.Getenv("LOCKERSYNC_SAMEDAY_USERNAME")
	if username == "" {
		return nil, fmt.Errorf("LOCKERSYNC_SAMEDAY_USERNAME is required")
	}

	password := os.Getenv("LOCKERSYNC_SAMEDAY_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("LOCKERSYNC_SAMEDAY_PASSWORD is required")
	}

	baseURL := "https://api.sameday.bg"
	if v, ok := os.LookupEnv("LOCKERSYNC_SAMEDAY_BASE_URL"); ok {
		baseURL = strings.TrimRight(v, "/")
	}

	countryCode := "RO"
	if v, ok := os.LookupEnv("LOCKERSYNC_COUNTRY_CODE"); ok && v != "" {
		countryCode = strings.ToUpper(strings.TrimSpace(v))
	}

	syncSchedule := "Sunday 03:00"
	if v, ok := os.LookupEnv("LOCKERSYNC_SYNC_SCHEDULE"); ok && v != "" {
		syncSchedule = v
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("LOCKERSYNC_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "lockersync.db"
	if v, ok := os.LookupEnv("LOCKERSYNC_DB_PATH"); ok {
		dbPath = v
	}

	return &Config{
		SamedayUsername: username,
		SamedayPassword: password,
		SamedayBaseURL:  baseURL,
		CountryCode:     countryCode,
		SyncSchedule:    syncSchedule,
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
	}, nil
}
