package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	APIURL       string
	StateDir     string
	CallbackAddr string
	StoreSecret  string
	HTTPTimeout  time.Duration
	LoginTimeout time.Duration
}

func Load() (Config, error) {
	stateDir := os.Getenv("NOTEKEEPER_STATE_DIR")
	if stateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolving state dir: %w", err)
		}
		stateDir = filepath.Join(base, "notekeeper")
	}

	return Config{
		APIURL:       getEnv("NOTEKEEPER_API_URL", "http://localhost:5000"),
		StateDir:     stateDir,
		CallbackAddr: getEnv("NOTEKEEPER_CALLBACK_ADDR", "127.0.0.1:8910"),
		StoreSecret:  os.Getenv("NOTEKEEPER_STORE_SECRET"),
		HTTPTimeout:  getEnvDuration("NOTEKEEPER_HTTP_TIMEOUT", 30*time.Second),
		LoginTimeout: getEnvDuration("NOTEKEEPER_LOGIN_TIMEOUT", 3*time.Minute),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
