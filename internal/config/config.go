// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// DefaultDockerHost is used when neither the config nor DOCKER_HOST names a daemon.
const DefaultDockerHost = "unix:///var/run/docker.sock"

// Config represents the application configuration
type Config struct {
	Docker       DockerConfig       `mapstructure:"docker"`
	Log          LogConfig          `mapstructure:"log"`
	Notification NotificationConfig `mapstructure:"notification"`
	Events       EventsConfig       `mapstructure:"events"`

	// ConfigFilePath stores the path to the loaded config file (not marshaled from YAML)
	ConfigFilePath string `mapstructure:"-"`
}

// DockerConfig contains daemon connection settings
type DockerConfig struct {
	Host         string        `mapstructure:"host"`
	APIVersion   string        `mapstructure:"api_version"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`

	// CertPath holds ca.pem, cert.pem and key.pem for TLS daemons.
	CertPath  string `mapstructure:"cert_path"`
	TLSVerify bool   `mapstructure:"tls_verify"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `mapstructure:"level"` // logrus level name
}

// NotificationConfig contains notification settings
type NotificationConfig struct {
	ShoutrrURL string `mapstructure:"shoutrrr_url"` // Shoutrrr URL format
	Enabled    bool   `mapstructure:"enabled"`
}

// EventsConfig controls which daemon events are forwarded as notifications
type EventsConfig struct {
	// IgnorePatterns are matched against "<type>/<action>" (e.g., "container/exec_.*").
	IgnorePatterns []string `mapstructure:"ignore_patterns"`

	// StateFile persists the last seen event so "berth events" can resume.
	StateFile string `mapstructure:"state_file"`
}

// defaultDockerHost honors DOCKER_HOST the way the docker CLI does.
func defaultDockerHost() string {
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		return host
	}
	return DefaultDockerHost
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("berth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/berth")
		v.AddConfigPath("/etc/berth")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			configFile := v.ConfigFileUsed()
			if configFile == "" {
				configFile = configPath
			}
			return nil, fmt.Errorf("error reading config file from %s: %w", configFile, err)
		}
		// Config file not found; using defaults and env vars
	}

	v.SetEnvPrefix("BERTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		configFile := v.ConfigFileUsed()
		if configFile == "" {
			configFile = "(using defaults and environment variables)"
		}
		return nil, fmt.Errorf("error unmarshaling config from %s: %w", configFile, err)
	}

	cfg.ConfigFilePath = v.ConfigFileUsed()

	if cfg.Docker.Host == "" {
		cfg.Docker.Host = defaultDockerHost()
	}

	if err := cfg.Validate(); err != nil {
		configFile := v.ConfigFileUsed()
		if configFile == "" {
			configFile = "(using defaults and environment variables)"
		}
		return nil, fmt.Errorf("config validation failed for %s: %w", configFile, err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Docker defaults
	v.SetDefault("docker.host", defaultDockerHost())
	v.SetDefault("docker.api_version", "") // Required for AutomaticEnv to work
	v.SetDefault("docker.max_idle_conns", 10)
	v.SetDefault("docker.dial_timeout", 30*time.Second)
	v.SetDefault("docker.cert_path", os.Getenv("DOCKER_CERT_PATH"))
	v.SetDefault("docker.tls_verify", os.Getenv("DOCKER_TLS_VERIFY") != "")

	// Log defaults
	v.SetDefault("log.level", "warn")

	// Notification defaults
	v.SetDefault("notification.shoutrrr_url", "") // Required for AutomaticEnv to work
	v.SetDefault("notification.enabled", false)

	// Events defaults (empty = forward everything)
	v.SetDefault("events.ignore_patterns", []string{})
	v.SetDefault("events.state_file", "") // Required for AutomaticEnv to work
}

// Validate ensures all required fields are set and values are within valid ranges.
func (c *Config) Validate() error {
	configSource := c.ConfigFilePath
	if configSource == "" {
		configSource = "(defaults/environment)"
	}

	if c.Docker.Host == "" {
		return fmt.Errorf("docker.host is required in config %s", configSource)
	}

	if err := c.validateRanges(configSource); err != nil {
		return err
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level in config %s: %w", configSource, err)
	}

	if c.Notification.Enabled && c.Notification.ShoutrrURL == "" {
		return fmt.Errorf("notification.shoutrrr_url is required in config %s when notifications are enabled (set BERTH_NOTIFICATION_SHOUTRRR_URL environment variable)", configSource)
	}

	return c.validateIgnorePatterns(configSource)
}

func (c *Config) validateRanges(configSource string) error {
	if c.Docker.MaxIdleConns < 0 {
		return fmt.Errorf("docker.max_idle_conns must not be negative, got %d in config %s",
			c.Docker.MaxIdleConns, configSource)
	}
	if c.Docker.DialTimeout < 0 {
		return fmt.Errorf("docker.dial_timeout must not be negative, got %s in config %s",
			c.Docker.DialTimeout, configSource)
	}
	return nil
}

func (c *Config) validateIgnorePatterns(configSource string) error {
	for i, pattern := range c.Events.IgnorePatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid regexp pattern in events.ignore_patterns[%d] in config %s: %s: %w",
				i, configSource, pattern, err)
		}
	}
	return nil
}

// EventFilter reports whether an event of the given type and action is ignored.
type EventFilter func(eventType, action string) bool

// IgnoreFilter compiles the ignore patterns. Patterns were validated by Load.
func (c *Config) IgnoreFilter() EventFilter {
	patterns := make([]*regexp.Regexp, 0, len(c.Events.IgnorePatterns))
	for _, p := range c.Events.IgnorePatterns {
		if re, err := regexp.Compile(p); err == nil {
			patterns = append(patterns, re)
		}
	}
	return func(eventType, action string) bool {
		key := eventType + "/" + action
		for _, re := range patterns {
			if re.MatchString(key) {
				return true
			}
		}
		return false
	}
}

// LogLevel returns the configured logrus level, defaulting to warn.
func (c *Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.WarnLevel
	}
	return level
}
