// Package config loads medremind settings from defaults, an optional YAML
// file and MEDREMIND_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sandeepkv93/medremind/internal/logging"
	"github.com/sandeepkv93/medremind/internal/platform"
)

const EnvPrefix = "MEDREMIND_"

// sections lists nested keys so MEDREMIND_LOG_LEVEL maps to log.level while
// MEDREMIND_DATABASE_PATH stays database_path.
var sections = []string{"notification", "log", "metrics"}

type Config struct {
	DatabasePath         string             `koanf:"database_path"`
	SchedulerBuffer      int                `koanf:"scheduler_buffer"`
	DesktopNotifications bool               `koanf:"desktop_notifications"`
	Notification         NotificationConfig `koanf:"notification"`
	Log                  logging.Config     `koanf:"log"`
	Metrics              MetricsConfig      `koanf:"metrics"`
}

type NotificationConfig struct {
	Title       string `koanf:"title"`
	ChannelID   string `koanf:"channel_id"`
	ChannelName string `koanf:"channel_name"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"database_path":         "~/.medremind/medremind.db",
		"scheduler_buffer":      64,
		"desktop_notifications": false,
		"notification": map[string]interface{}{
			"title":        "MedAI Reminder",
			"channel_id":   "default",
			"channel_name": "default",
		},
		"log": map[string]interface{}{
			"level":  "info",
			"format": "json",
			"file":   "",
		},
		"metrics": map[string]interface{}{
			"addr": "127.0.0.1:9464",
		},
	}
}

func GetDefaultConfigPath() string {
	return "~/.medremind/config.yaml"
}

// Load reads configPath when it exists. An empty path uses the default.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(DefaultConfig(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}
	configPath = expandPath(configPath)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.DatabasePath = expandPath(cfg.DatabasePath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.SchedulerBuffer <= 0 {
		return fmt.Errorf("scheduler_buffer must be positive")
	}
	if strings.TrimSpace(c.Notification.Title) == "" {
		return fmt.Errorf("notification.title is required")
	}
	if err := c.Channel().Validate(); err != nil {
		return fmt.Errorf("notification channel: %w", err)
	}
	return c.Log.Validate()
}

// Channel is the notification channel reminders are posted to.
func (c *Config) Channel() platform.Channel {
	ch := platform.DefaultChannel()
	if c.Notification.ChannelID != "" {
		ch.ID = c.Notification.ChannelID
	}
	if c.Notification.ChannelName != "" {
		ch.Name = c.Notification.ChannelName
	}
	return ch
}

// DefaultLogFile is where the terminal UI logs when log.file is unset.
func (c *Config) DefaultLogFile() string {
	return filepath.Join(filepath.Dir(c.DatabasePath), "medremind.log")
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
