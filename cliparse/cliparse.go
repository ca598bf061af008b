// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Transport constants
const (
	TransportPoll = "poll"
	TransportPush = "push"
)

type Config struct {
	ServiceURL    string
	PollID        string
	UserID        string
	AuthToken     string
	Tick          time.Duration
	BackoffFactor int
	Transport     string
	DatabaseURL   string
	DatabaseType  string
	LogFile       string
	Debug         bool
}

// LoadEnv loads a .env file into the environment. A missing file is not an error.
// Variables already set are left alone.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ParseFlags validates flags and falls back to environment variables
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var tick string

	fs := flag.NewFlagSet("veato", flag.ContinueOnError)

	// Service and session
	fs.StringVar(&cfg.ServiceURL, "s", "", "Poll service base URL")
	fs.StringVar(&cfg.PollID, "poll", "", "Poll ID")
	fs.StringVar(&cfg.UserID, "user", "", "User ID")
	fs.StringVar(&cfg.AuthToken, "token", "", "Auth token (prefer env)")

	// Sync tuning
	fs.StringVar(&tick, "tick", "", "Fetch interval, e.g. 1s")
	fs.IntVar(&cfg.BackoffFactor, "backoff", 0, "Tick multiplier after a failed fetch")
	fs.StringVar(&cfg.Transport, "transport", "", "poll or push")

	// Optional document store
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	fs.StringVar(&cfg.LogFile, "log", "", "Log file path")
	fs.BoolVar(&cfg.Debug, "debug", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.ServiceURL == "" {
		cfg.ServiceURL = os.Getenv("SERVICE_URL")
	}
	if cfg.ServiceURL == "" {
		return Config{}, errors.New("service URL required (use -s or SERVICE_URL env)")
	}

	if cfg.PollID == "" {
		cfg.PollID = os.Getenv("POLL_ID")
	}
	if cfg.PollID == "" {
		return Config{}, errors.New("poll ID required (use -poll or POLL_ID env)")
	}

	if cfg.UserID == "" {
		cfg.UserID = os.Getenv("USER_ID")
	}
	if cfg.UserID == "" {
		return Config{}, errors.New("user ID required (use -user or USER_ID env)")
	}

	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("AUTH_TOKEN")
	}

	if tick == "" {
		tick = os.Getenv("POLL_TICK")
	}
	if tick == "" {
		cfg.Tick = time.Second // default
	} else {
		d, err := time.ParseDuration(tick)
		if err != nil || d <= 0 {
			return Config{}, errors.New("invalid tick interval")
		}
		cfg.Tick = d
	}

	if cfg.BackoffFactor == 0 {
		if s := os.Getenv("POLL_BACKOFF_FACTOR"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return Config{}, errors.New("invalid POLL_BACKOFF_FACTOR env variable")
			}
			cfg.BackoffFactor = n
		} else {
			cfg.BackoffFactor = 3 // default
		}
	}
	if cfg.BackoffFactor < 1 {
		return Config{}, errors.New("backoff factor must be at least 1")
	}

	if cfg.Transport == "" {
		cfg.Transport = os.Getenv("POLL_TRANSPORT")
		if cfg.Transport == "" {
			cfg.Transport = TransportPoll
		}
	}
	if cfg.Transport != TransportPoll && cfg.Transport != TransportPush {
		return Config{}, fmt.Errorf("unknown transport %q", cfg.Transport)
	}

	// Document store is optional; type only matters when a URL is set
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}

	if cfg.LogFile == "" {
		cfg.LogFile = os.Getenv("LOG_FILE")
	}

	return cfg, nil
}
