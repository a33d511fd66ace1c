// Package config loads the driver daemon settings from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/courier/go/internal/auth"
)

// Push transports.
const (
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
	TransportNone      = "none"
)

type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"api"`

	Driver struct {
		ID string `yaml:"id"`
	} `yaml:"driver"`

	Feed struct {
		PollInterval  time.Duration `yaml:"poll_interval"`
		OfferSeconds  int           `yaml:"offer_seconds"`
		ActionTimeout time.Duration `yaml:"action_timeout"`
	} `yaml:"feed"`

	Push struct {
		Transport     string        `yaml:"transport"`
		SocketURL     string        `yaml:"socket_url"`
		NATSURL       string        `yaml:"nats_url"`
		ReconnectWait time.Duration `yaml:"reconnect_wait"`
	} `yaml:"push"`

	Gateway struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"gateway"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	c := &Config{}
	c.API.BaseURL = "http://localhost:3000/api"
	c.Feed.PollInterval = 15 * time.Second
	c.Feed.OfferSeconds = 30
	c.Feed.ActionTimeout = 10 * time.Second
	c.Push.Transport = TransportWebSocket
	c.Push.NATSURL = "nats://localhost:4222"
	c.Push.ReconnectWait = 2 * time.Second
	c.Gateway.Port = 8081
	c.Gateway.AllowedOrigins = []string{"*"}
	c.Log.Level = "info"
	return c
}

// Load reads path (skipped when empty), applies environment overrides, fills
// the driver id from the API token when unset and validates the result.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if config.Driver.ID == "" && config.API.Token != "" {
		id, err := auth.DriverIDFromToken(config.API.Token, time.Now())
		if err != nil {
			return nil, fmt.Errorf("driver id from api token: %w", err)
		}
		config.Driver.ID = id
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() error {
	c.API.BaseURL = getEnv("COURIER_API_URL", c.API.BaseURL)
	c.API.Token = getEnv("COURIER_API_TOKEN", c.API.Token)
	c.Driver.ID = getEnv("DRIVER_ID", c.Driver.ID)
	c.Push.Transport = getEnv("COURIER_PUSH_TRANSPORT", c.Push.Transport)
	c.Push.SocketURL = getEnv("COURIER_SOCKET_URL", c.Push.SocketURL)
	c.Push.NATSURL = getEnv("NATS_URL", c.Push.NATSURL)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)

	var errs []error
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("POLL_INTERVAL: %w", err))
		}
		c.Feed.PollInterval = d
	}
	if v := os.Getenv("OFFER_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("OFFER_SECONDS: %w", err))
		}
		c.Feed.OfferSeconds = n
	}
	if v := os.Getenv("GATEWAY_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("GATEWAY_PORT: %w", err))
		}
		c.Gateway.Port = n
	}
	return errors.Join(errs...)
}

// parseSeconds accepts a Go duration ("15s") or a bare number of seconds.
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api base url is required"))
	}
	if c.Feed.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.Feed.OfferSeconds <= 0 {
		errs = append(errs, errors.New("offer seconds must be positive"))
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		errs = append(errs, fmt.Errorf("gateway port %d out of range", c.Gateway.Port))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	switch c.Push.Transport {
	case TransportNone:
	case TransportWebSocket:
		if c.Push.SocketURL == "" {
			errs = append(errs, errors.New("push socket url is required for the websocket transport"))
		}
	case TransportNATS:
		if c.Push.NATSURL == "" {
			errs = append(errs, errors.New("nats url is required for the nats transport"))
		}
		if c.Driver.ID == "" {
			errs = append(errs, errors.New("driver id is required for the nats transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown push transport %q", c.Push.Transport))
	}
	return errors.Join(errs...)
}

// LogLevel returns the configured zerolog level.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Addr is the gateway listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Gateway.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
