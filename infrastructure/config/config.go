package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverPlaywright = "playwright"
	DriverSelenium   = "selenium"
)

// Config holds the host settings; the identifier constants are not configurable
type Config struct {
	Driver       string
	Headless     bool
	StartURL     string
	PollInterval time.Duration
	LogLevel     logrus.Level
	StateDir     string

	// selenium only
	DriverPath   string
	ChromeBinary string
	DriverPort   int

	// EnvFileLoaded reports whether a .env file was found
	EnvFileLoaded bool
}

// Load reads an optional .env file and the environment
func Load(files ...string) (*Config, error) {
	cfg := &Config{
		Driver:       DriverPlaywright,
		Headless:     false,
		PollInterval: 500 * time.Millisecond,
		LogLevel:     logrus.InfoLevel,
		DriverPort:   9515,
	}

	// .env file is optional
	cfg.EnvFileLoaded = godotenv.Load(files...) == nil

	if v := os.Getenv("AUTOID_DRIVER"); v != "" {
		driver := strings.ToLower(strings.TrimSpace(v))
		if driver != DriverPlaywright && driver != DriverSelenium {
			return nil, fmt.Errorf("AUTOID_DRIVER must be %q or %q, got %q", DriverPlaywright, DriverSelenium, v)
		}
		cfg.Driver = driver
	}

	if v := os.Getenv("AUTOID_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTOID_HEADLESS: %w", err)
		}
		cfg.Headless = headless
	}

	cfg.StartURL = os.Getenv("AUTOID_START_URL")

	if v := os.Getenv("AUTOID_POLL_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTOID_POLL_INTERVAL: %w", err)
		}
		if interval <= 0 {
			return nil, fmt.Errorf("AUTOID_POLL_INTERVAL must be positive, got %s", interval)
		}
		cfg.PollInterval = interval
	}

	if v := os.Getenv("AUTOID_LOG_LEVEL"); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTOID_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}

	cfg.StateDir = os.Getenv("AUTOID_STATE_DIR")
	if cfg.StateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		cfg.StateDir = filepath.Join(homeDir, ".ui_autoid")
	}

	cfg.DriverPath = os.Getenv("BROWSER_DRIVER_PATH")
	cfg.ChromeBinary = os.Getenv("CHROME_BINARY_PATH")

	if v := os.Getenv("CHROMEDRIVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid CHROMEDRIVER_PORT %q", v)
		}
		cfg.DriverPort = port
	}

	return cfg, nil
}

// NewLogger - creates the logger used across the application
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}
