package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the configuration reads.
const EnvPrefix = "SHELF"

// Config holds everything an App needs to run.
type Config struct {
	// Path is the initial import search path.
	Path []string `mapstructure:"path"`

	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSize    int    `mapstructure:"log_max_size"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`

	// OpenTimeout bounds how long opening a shelf waits for its file lock.
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"path":       "path",
	"log-level":  "log_level",
	"log-format": "log_format",
	"log-file":   "log_file",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("path", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size", 100)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("open_timeout", "1s")
}

// Load builds a Config. file names an optional config file whose format is
// taken from its extension. flags may be nil; flags that were set on the
// command line override every other source.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log_level %q: must be 'debug', 'info', 'warn', or 'error'", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log_format %q: must be 'text' or 'json'", c.LogFormat))
	}
	if c.LogMaxSize < 0 {
		errs = append(errs, errors.New("log_max_size must not be negative"))
	}
	if c.LogMaxBackups < 0 {
		errs = append(errs, errors.New("log_max_backups must not be negative"))
	}
	if c.OpenTimeout < 0 {
		errs = append(errs, errors.New("open_timeout must not be negative"))
	}
	for _, entry := range c.Path {
		if strings.TrimSpace(entry) == "" {
			errs = append(errs, errors.New("path entries must not be empty"))
			break
		}
	}
	return errors.Join(errs...)
}
