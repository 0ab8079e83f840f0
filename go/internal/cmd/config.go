package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/playerauction/go/internal/auction/gateway"
	"github.com/mcdev12/playerauction/go/internal/auction/outbox"
	"github.com/mcdev12/playerauction/go/internal/auction/session"
	"github.com/mcdev12/playerauction/go/internal/auction/settings"
	"github.com/mcdev12/playerauction/go/internal/models"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`

	Gateway gateway.Config `yaml:"gateway"`

	Session struct {
		PersistTimeout time.Duration `yaml:"persist_timeout"`
		InboxSize      int           `yaml:"inbox_size"`
	} `yaml:"session"`

	Auth struct {
		Secret string `yaml:"secret"`
		Issuer string `yaml:"issuer"`
	} `yaml:"auth"`

	NATS struct {
		Enabled       bool          `yaml:"enabled"`
		URL           string        `yaml:"url"`
		StreamName    string        `yaml:"stream_name"`
		SubjectPrefix string        `yaml:"subject_prefix"`
		BufferSize    int           `yaml:"buffer_size"`
		MaxRetries    int           `yaml:"max_retries"`
		RetryDelay    time.Duration `yaml:"retry_delay"`
	} `yaml:"nats"`

	Watcher struct {
		Listen        bool          `yaml:"listen"`
		NotifyChannel string        `yaml:"notify_channel"`
		PollInterval  time.Duration `yaml:"poll_interval"`
	} `yaml:"watcher"`

	// DefaultSettings seed the settings row on first start only.
	DefaultSettings models.AuctionSetting `yaml:"default_settings"`
}

func defaultConfig() Config {
	var cfg Config
	cfg.LogLevel = "info"
	cfg.Server.Port = "8081"
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Gateway = gateway.DefaultConfig()

	sc := session.DefaultConfig(nil)
	cfg.Session.PersistTimeout = sc.PersistTimeout
	cfg.Session.InboxSize = sc.InboxSize

	cfg.Auth.Issuer = "playerauction"

	bc := outbox.DefaultBrokerConfig()
	rc := outbox.DefaultRelayConfig()
	cfg.NATS.URL = bc.URL
	cfg.NATS.StreamName = bc.Stream
	cfg.NATS.SubjectPrefix = bc.SubjectPrefix
	cfg.NATS.BufferSize = rc.BufferSize
	cfg.NATS.MaxRetries = rc.MaxRetries
	cfg.NATS.RetryDelay = rc.RetryDelay

	wc := settings.DefaultConfig()
	cfg.Watcher.Listen = true
	cfg.Watcher.NotifyChannel = wc.NotifyChannel
	cfg.Watcher.PollInterval = wc.PollInterval

	cfg.DefaultSettings = models.AuctionSetting{
		MaxPlayersPerTeam:     11,
		ReservePlayersPerTeam: 2,
		StartBid:              1,
		BidIncrement:          1,
		TotalPurse:            models.DefaultTotalPurse,
		RegistrationOpen:      true,
	}
	return cfg
}

// loadConfig layers the YAML file at path (if any) and then the environment
// over the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.DefaultSettings.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid default_settings: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Server.Port = getEnv("GATEWAY_PORT", cfg.Server.Port)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	cfg.Auth.Secret = getEnv("AUTH_JWT_SECRET", cfg.Auth.Secret)
	cfg.Auth.Issuer = getEnv("AUTH_ISSUER", cfg.Auth.Issuer)

	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.URL = url
		cfg.NATS.Enabled = true
	}
	cfg.NATS.Enabled = getEnvAsBool("NATS_ENABLED", cfg.NATS.Enabled)

	cfg.Watcher.Listen = getEnvAsBool("SETTINGS_LISTEN", cfg.Watcher.Listen)
	cfg.Session.InboxSize = getEnvAsInt("SESSION_INBOX_SIZE", cfg.Session.InboxSize)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
