// Package config loads Herald runtime configuration from a TOML file and
// environment variables, exposing typed structs for all sections.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Dispatch policy names accepted in config.
const (
	DispatchConcurrent = "concurrent"
	DispatchSequential = "sequential"
)

// Config is the runtime configuration loaded from defaults, config.toml,
// and environment variables.
type Config struct {
	// HomeDir is runtime-resolved from HERALD_HOME and not read from config.
	HomeDir  string         `mapstructure:"-"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Schedule []JobConfig    `mapstructure:"schedule"`
}

// TelegramConfig configures the Telegram transport.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// DispatchConfig controls how matched handlers run for one event.
type DispatchConfig struct {
	Policy string `mapstructure:"policy"`
}

// JobConfig is one cron-scheduled tick job.
type JobConfig struct {
	Name   string `mapstructure:"name"`
	Cron   string `mapstructure:"cron"`
	ChatID int64  `mapstructure:"chat_id"`
	Text   string `mapstructure:"text"`
}

var defaultConfig = Config{
	Telegram: TelegramConfig{
		Token: "$HERALD_TELEGRAM_TOKEN",
	},
	Dispatch: DispatchConfig{
		Policy: DispatchConcurrent,
	},
}

// homeDir returns the Herald home directory. Uses HERALD_HOME if set,
// otherwise ~/.herald.
func homeDir() (string, error) {
	if dir := os.Getenv("HERALD_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return defaultHomePath(home), nil
}

// Load merges hardcoded defaults and config file values in that order.
// Config is always at $HERALD_HOME/config.toml. String values may
// reference environment variables with $NAME.
func Load() (*Config, error) {
	homeDir, err := homeDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(homeConfigPath(homeDir))
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		expandEnvStringHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
	if err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = decodeHook
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.HomeDir = homeDir

	return &cfg, nil
}

// Validate checks the fields Herald cannot start without.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram.token is required (set HERALD_TELEGRAM_TOKEN or edit config.toml)")
	}
	switch c.Dispatch.Policy {
	case DispatchConcurrent, DispatchSequential:
	default:
		return fmt.Errorf("invalid dispatch.policy %q (allowed: %q, %q)", c.Dispatch.Policy, DispatchConcurrent, DispatchSequential)
	}
	seen := make(map[string]struct{}, len(c.Schedule))
	for _, job := range c.Schedule {
		if job.Name == "" {
			return errors.New("schedule job name is required")
		}
		if _, dup := seen[job.Name]; dup {
			return fmt.Errorf("duplicate schedule job %q", job.Name)
		}
		seen[job.Name] = struct{}{}
		if job.Cron == "" {
			return fmt.Errorf("schedule job %q: cron expression is required", job.Name)
		}
	}
	return nil
}

// Write writes the merged configuration (defaults overlaid by user
// config) to w in TOML format.
func Write(w io.Writer) error {
	if w == nil {
		return errors.New("writer is required")
	}

	homeDir, err := homeDir()
	if err != nil {
		return err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(homeConfigPath(homeDir))
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.token", defaultConfig.Telegram.Token)
	v.SetDefault("dispatch.policy", defaultConfig.Dispatch.Policy)
}

func expandEnvStringHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}
		value, ok := data.(string)
		if !ok {
			return data, nil
		}
		return os.ExpandEnv(value), nil
	}
}
