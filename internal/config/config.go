package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"taskmaster/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	BackendURL  string
	StateDir    string
	HTTPTimeout time.Duration
	LogLevel    string
	LogJSON     bool
}

// Load reads client configuration from the environment.
func Load() *Config {
	_ = godotenv.Load()

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = "http://localhost:5000/"
	}
	if !strings.HasSuffix(backendURL, "/") {
		backendURL += "/"
	}

	stateDir := os.Getenv("STATE_DIR")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Fatal("STATE_DIR is not set and home directory is unavailable", "error", err)
		}
		stateDir = filepath.Join(home, ".config", "taskmaster")
	}

	timeout := 30 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		BackendURL:  backendURL,
		StateDir:    stateDir,
		HTTPTimeout: timeout,
		LogLevel:    logLevel,
		LogJSON:     os.Getenv("LOG_JSON") == "true",
	}
}
