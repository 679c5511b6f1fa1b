package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// GoogleConfig holds the OAuth client settings issued by Google Cloud
// Console for the web application.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Config is the top-level application configuration.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `yaml:"port"`

	// SessionSecret signs the session cookie. Required.
	SessionSecret string `yaml:"session_secret"`

	// SessionTTLHours is how long an idle session survives before the
	// sweeper removes it.
	SessionTTLHours int `yaml:"session_ttl_hours"`

	// SessionSweepCron is a cron-style schedule for the expired-session
	// sweep (e.g. "*/15 * * * *").
	SessionSweepCron string `yaml:"session_sweep_cron"`

	// Timezone is an optional IANA timezone name used for the week window
	// and event display. Empty means the server's local timezone.
	Timezone string `yaml:"timezone"`

	Google GoogleConfig `yaml:"google"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Load loads configuration with the following precedence (highest to lowest):
// 1. Command-line flags
// 2. Environment variables
// 3. Config file
// 4. Defaults
// Returns an error if any required value is missing.
func Load(configFile string, portFlag string) (*Config, error) {
	var config Config

	// Step 1: Load from config file if provided
	if configFile != "" {
		fileConfig, err := LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
		config = *fileConfig
	}

	// Step 2: Override with environment variables
	if port := os.Getenv("PORT"); port != "" {
		config.Port = port
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		config.SessionSecret = secret
	}
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL_HOURS value %q: %w", v, err)
		}
		config.SessionTTLHours = hours
	}
	if v := os.Getenv("SESSION_SWEEP_CRON"); v != "" {
		config.SessionSweepCron = v
	}
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		config.Timezone = tz
	}
	if id := os.Getenv("GOOGLE_CLIENT_ID"); id != "" {
		config.Google.ClientID = id
	}
	if secret := os.Getenv("GOOGLE_CLIENT_SECRET"); secret != "" {
		config.Google.ClientSecret = secret
	}
	if redirect := os.Getenv("GOOGLE_REDIRECT_URL"); redirect != "" {
		config.Google.RedirectURL = redirect
	}

	// Step 3: Override with command-line flags (highest priority)
	if portFlag != "" {
		config.Port = portFlag
	}

	// Step 4: Apply defaults and validate required fields
	if config.Port == "" {
		config.Port = "3000"
	}
	if config.SessionTTLHours <= 0 {
		config.SessionTTLHours = 168
	}
	if config.SessionSweepCron == "" {
		config.SessionSweepCron = "*/15 * * * *"
	}

	if config.SessionSecret == "" {
		return nil, fmt.Errorf("session_secret must be provided via SESSION_SECRET environment variable or config file")
	}
	if config.Google.ClientID == "" {
		return nil, fmt.Errorf("google client_id must be provided via GOOGLE_CLIENT_ID environment variable or config file")
	}
	if config.Google.ClientSecret == "" {
		return nil, fmt.Errorf("google client_secret must be provided via GOOGLE_CLIENT_SECRET environment variable or config file")
	}
	if config.Google.RedirectURL == "" {
		return nil, fmt.Errorf("google redirect_url must be provided via GOOGLE_REDIRECT_URL environment variable or config file")
	}

	if config.Timezone != "" {
		if _, err := time.LoadLocation(config.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
		}
	}

	return &config, nil
}

// SessionTTL returns the configured session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Location resolves the configured timezone. Load validates the name, so
// a lookup failure here only happens if the tz database changed underneath
// us; fall back to the server's local timezone in that case.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
