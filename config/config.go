package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Platform names the live activity capability selected at start-up.
const (
	PlatformWebPush     = "webpush"
	PlatformFCM         = "fcm"
	PlatformUnsupported = "unsupported"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	FCM        FCMConfig        `yaml:"fcm"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Activity   ActivityConfig   `yaml:"activity"`
	DeepLink   DeepLinkConfig   `yaml:"deeplink"`
}

// WorkerPoolConfig holds the configuration for the alert worker pool.
type WorkerPoolConfig struct {
	Size  int `yaml:"size"`
	Queue int `yaml:"queue"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// FCMConfig holds the Firebase Cloud Messaging settings.
type FCMConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	Topic           string `yaml:"topic"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	AllowOrigins    []string `yaml:"allow_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// ActivityConfig controls the live activity bridge and time handling.
type ActivityConfig struct {
	Platform string         `yaml:"platform"`
	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"`
}

// DeepLinkConfig controls the inbound deep link router.
type DeepLinkConfig struct {
	Scheme    string `yaml:"scheme"`
	LaunchURL string `yaml:"launch_url"`
	Buffer    int    `yaml:"buffer"`
}

// envOverrides are secrets and deployment switches that may come from the
// environment instead of the YAML file.
type envOverrides struct {
	DatabaseDSN        string `envconfig:"DATABASE_DSN"`
	VAPIDPublicKey     string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey    string `envconfig:"VAPID_PRIVATE_KEY"`
	FCMCredentialsFile string `envconfig:"FCM_CREDENTIALS_FILE"`
	Platform           string `envconfig:"PLATFORM"`
	LaunchURL          string `envconfig:"LAUNCH_URL"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process("RESERVPARK", &env); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if env.DatabaseDSN != "" {
		cfg.Database.DSN = env.DatabaseDSN
	}
	if env.VAPIDPublicKey != "" {
		cfg.Push.PublicKey = env.VAPIDPublicKey
	}
	if env.VAPIDPrivateKey != "" {
		cfg.Push.PrivateKey = env.VAPIDPrivateKey
	}
	if env.FCMCredentialsFile != "" {
		cfg.FCM.CredentialsFile = env.FCMCredentialsFile
	}
	if env.Platform != "" {
		cfg.Activity.Platform = env.Platform
	}
	if env.LaunchURL != "" {
		cfg.DeepLink.LaunchURL = env.LaunchURL
	}
	return nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.FCM.Topic == "" {
		cfg.FCM.Topic = "live-activity"
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.Queue <= 0 {
		cfg.WorkerPool.Queue = 64
	}

	switch cfg.Activity.Platform {
	case "":
		cfg.Activity.Platform = PlatformUnsupported
	case PlatformWebPush, PlatformFCM, PlatformUnsupported:
	default:
		return fmt.Errorf("unknown activity.platform %q", cfg.Activity.Platform)
	}

	if cfg.Activity.Timezone == "" {
		cfg.Activity.Timezone = "Local"
	}
	loc, err := time.LoadLocation(cfg.Activity.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.Activity.Timezone, err)
	}
	cfg.Activity.Location = loc

	if cfg.DeepLink.Scheme == "" {
		cfg.DeepLink.Scheme = "reservpark"
	}
	if cfg.DeepLink.Buffer <= 0 {
		cfg.DeepLink.Buffer = 16
	}
	return nil
}
