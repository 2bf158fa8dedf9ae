package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DOCKER_HOST", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultDockerHost, cfg.Docker.Host)
	assert.Equal(t, "", cfg.Docker.APIVersion)
	assert.Equal(t, 10, cfg.Docker.MaxIdleConns)
	assert.Equal(t, 30*time.Second, cfg.Docker.DialTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, logrus.WarnLevel, cfg.LogLevel())
	assert.False(t, cfg.Notification.Enabled)
	assert.Empty(t, cfg.Events.IgnorePatterns)
}

func TestLoad_EnvVars(t *testing.T) {
	t.Setenv("BERTH_DOCKER_HOST", "tcp://env-host:2375")
	t.Setenv("BERTH_DOCKER_API_VERSION", "1.43")
	t.Setenv("BERTH_DOCKER_DIAL_TIMEOUT", "5s")
	t.Setenv("BERTH_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tcp://env-host:2375", cfg.Docker.Host)
	assert.Equal(t, "1.43", cfg.Docker.APIVersion)
	assert.Equal(t, 5*time.Second, cfg.Docker.DialTimeout)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel())
}

func TestLoad_DockerHostEnvVar(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://test-host:2375")

	cfg, err := Load("")
	require.NoError(t, err)

	// Should use DOCKER_HOST value
	assert.Equal(t, "tcp://test-host:2375", cfg.Docker.Host)
}

func TestLoad_ConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "berth.yaml")

	configContent := `docker:
  host: unix:///test/docker.sock
  api_version: "1.41"
  max_idle_conns: 4
  dial_timeout: 2s
log:
  level: info
notification:
  enabled: true
  shoutrrr_url: generic://test
events:
  ignore_patterns:
    - "container/exec_.*"
    - "image/.*"
`
	err := os.WriteFile(configPath, []byte(configContent), 0600)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "unix:///test/docker.sock", cfg.Docker.Host)
	assert.Equal(t, "1.41", cfg.Docker.APIVersion)
	assert.Equal(t, 4, cfg.Docker.MaxIdleConns)
	assert.Equal(t, 2*time.Second, cfg.Docker.DialTimeout)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel())
	assert.True(t, cfg.Notification.Enabled)
	assert.Equal(t, "generic://test", cfg.Notification.ShoutrrURL)
	assert.Equal(t, []string{"container/exec_.*", "image/.*"}, cfg.Events.IgnorePatterns)
	assert.Equal(t, configPath, cfg.ConfigFilePath)
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	_, err := Load("/nonexistent/path/berth.yaml")
	assert.Error(t, err)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "berth.yaml")

	configContent := `docker:
  host: unix:///var/run/docker.sock
  invalid yaml content [[[
`
	err := os.WriteFile(configPath, []byte(configContent), 0600)
	require.NoError(t, err)

	_, err = Load(configPath)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "berth.yaml")

	err := os.WriteFile(configPath, []byte("log:\n  level: loud\n"), 0600)
	require.NoError(t, err)

	_, err = Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
	assert.Contains(t, err.Error(), "log.level")
}

func validConfig() *Config {
	return &Config{
		Docker: DockerConfig{Host: DefaultDockerHost, MaxIdleConns: 10, DialTimeout: time.Second},
		Log:    LogConfig{Level: "warn"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing docker host",
			mutate:  func(c *Config) { c.Docker.Host = "" },
			wantErr: "docker.host is required",
		},
		{
			name:    "negative max idle conns",
			mutate:  func(c *Config) { c.Docker.MaxIdleConns = -1 },
			wantErr: "docker.max_idle_conns must not be negative",
		},
		{
			name:    "negative dial timeout",
			mutate:  func(c *Config) { c.Docker.DialTimeout = -time.Second },
			wantErr: "docker.dial_timeout must not be negative",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "chatty" },
			wantErr: "log.level",
		},
		{
			name:    "notification without url",
			mutate:  func(c *Config) { c.Notification.Enabled = true },
			wantErr: "notification.shoutrrr_url is required",
		},
		{
			name:   "notification with url",
			mutate: func(c *Config) { c.Notification = NotificationConfig{Enabled: true, ShoutrrURL: "generic://x"} },
		},
		{
			name:    "invalid ignore pattern",
			mutate:  func(c *Config) { c.Events.IgnorePatterns = []string{"ok", "[unclosed"} },
			wantErr: "events.ignore_patterns[1]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "(defaults/environment)")
		})
	}
}

func TestIgnoreFilter(t *testing.T) {
	cfg := validConfig()
	cfg.Events.IgnorePatterns = []string{`^container/exec_`, `^image/(pull|tag)$`}
	ignored := cfg.IgnoreFilter()

	assert.True(t, ignored("container", "exec_start"))
	assert.True(t, ignored("image", "pull"))
	assert.False(t, ignored("image", "delete"))
	assert.False(t, ignored("container", "die"))

	none := validConfig().IgnoreFilter()
	assert.False(t, none("container", "die"))
}

func TestLogLevel_FallsBackToWarn(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "nope"}}
	assert.Equal(t, logrus.WarnLevel, cfg.LogLevel())
}
