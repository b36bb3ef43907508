package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type FetchConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type DaemonConfig struct {
	ExpirationSeconds int `mapstructure:"expiration_seconds"`
}

type ValidateConfig struct {
	// Strict promotes warnings (unknown kinds, empty groups) to errors.
	Strict bool `mapstructure:"strict"`
}

type Config struct {
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Validate ValidateConfig `mapstructure:"validate"`
}

// cacheBase returns the base cache directory for rustnav.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/rustnav as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "rustnav")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "rustnav")
	}
	return filepath.Join(os.TempDir(), "rustnav")
}

// DBPath returns the path to the SQLite database file.
func DBPath() string {
	return filepath.Join(cacheBase(), "index.db")
}

// CASDir returns the path to the content-addressable storage directory.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

// FragmentCacheDir returns the path to the raw fragment cache directory.
func FragmentCacheDir() string {
	return filepath.Join(cacheBase(), "fragments")
}

// LogPath returns the path to the daemon's log file.
func LogPath() string {
	return filepath.Join(cacheBase(), "daemon.log")
}

// SocketPath returns the path to the daemon's unix socket.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "rustnav", "daemon.sock")
	}
	return filepath.Join(fmt.Sprintf("/run/user/%d", os.Getuid()), "rustnav", "daemon.sock")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "rustnav"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "rustnav"))
	}

	viper.SetDefault("fetch.base_url", "https://docs.rs")
	viper.SetDefault("fetch.user_agent", "rustnav/0.1.0")
	viper.SetDefault("fetch.timeout", "60s")
	viper.SetDefault("daemon.expiration_seconds", 600)
	viper.SetDefault("validate.strict", false)

	viper.SetEnvPrefix("RUSTNAV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// stringToDurationHookFunc decodes strings like "60s" into time.Duration.
// Bare integers are treated as seconds, matching the old config format.
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(data.(string))
		case reflect.Int, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		}
		return data, nil
	}
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToDurationHookFunc(),
		Result:     &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Fetch.Timeout <= 0 {
		config.Fetch.Timeout = 60 * time.Second
	}

	return &config, nil
}
