// internal/config/config.go
//
// Environment-driven configuration. godotenv has already been loaded by the
// time this runs; everything here is plain env reads with defaults.

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         string
	ClientOrigin string

	// Store selection: DatabaseURL (postgres) or SQLitePath pick the SQL
	// backend; otherwise the in-memory store with optional snapshotting.
	DatabaseURL      string
	SQLitePath       string
	SnapshotFile     string
	SnapshotInterval time.Duration

	// Lock-screen gate. Empty GateCode disables the gate entirely.
	GateCode  string
	JWTSecret string

	// Presence tuning.
	OnDemandTTL   time.Duration
	BackgroundTTL time.Duration
	SweepInterval time.Duration
	RoomMaxAge    time.Duration
}

func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8080"),
		ClientOrigin:     getEnv("CLIENT_ORIGIN", "http://localhost:3000"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       os.Getenv("SQLITE_PATH"),
		SnapshotFile:     getEnv("SNAPSHOT_FILE", ".rooms-cache.json"),
		SnapshotInterval: secs("SNAPSHOT_INTERVAL_SECS", 5),
		GateCode:         os.Getenv("GATE_CODE"),
		JWTSecret:        getEnv("JWT_SECRET", "dev_secret_change_me"),
		OnDemandTTL:      secs("PRESENCE_ONDEMAND_SECS", 30),
		BackgroundTTL:    secs("PRESENCE_BACKGROUND_SECS", 60),
		SweepInterval:    secs("PRESENCE_SWEEP_SECS", 30),
		RoomMaxAge:       secs("ROOM_MAX_AGE_SECS", 24*60*60),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func secs(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}
