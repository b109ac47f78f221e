package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads the configuration in this order of precedence:
// 1. BOT_* environment variables (BOT_TELEGRAM_TOKEN, BOT_NUDGE_HOUR, ...)
// 2. the YAML file at path, which may be missing
// 3. built-in defaults
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.finalize()
	return cfg, nil
}

// finalize derives settings that are not configured directly.
func (c *Config) finalize() {
	if c.Scheduler.Tasks == nil {
		c.Scheduler.Tasks = make(map[string]TaskConfig)
	}
	c.Scheduler.Tasks[TaskNudgeSweep] = TaskConfig{
		Enabled:  c.Nudge.Enabled,
		Schedule: c.Nudge.Schedule(),
	}
}
