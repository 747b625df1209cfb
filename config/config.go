package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g.
// COMPOSER_STORAGE_DRIVER.
const EnvPrefix = "COMPOSER"

// ErrMissingCredentials is returned when the analytics rendering surface has
// no base URL or token. The workspace cannot paint widgets without them.
var ErrMissingCredentials = errors.New("config: analytics url and token are required")

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Grid      GridConfig      `mapstructure:"grid"`
	Theme     ThemeConfig     `mapstructure:"theme"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Preview   PreviewConfig   `mapstructure:"preview"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	BasePath string `mapstructure:"base_path"`
}

// StorageConfig selects the key/value backend. DSN is a file path for
// sqlite, an address for redis and a connection string for postgres.
type StorageConfig struct {
	Driver    string `mapstructure:"driver"`
	DSN       string `mapstructure:"dsn"`
	Namespace string `mapstructure:"namespace"`
}

// AnalyticsConfig holds the rendering surface credentials.
type AnalyticsConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

type GridConfig struct {
	ResizeSettle time.Duration `mapstructure:"resize_settle"`
}

type ThemeConfig struct {
	Default string `mapstructure:"default"`
}

// CatalogConfig points at an optional YAML manifest merged into the built-in
// catalog. With Watch set the server reloads it on change.
type CatalogConfig struct {
	Manifest string `mapstructure:"manifest"`
	Watch    bool   `mapstructure:"watch"`
}

type PreviewConfig struct {
	AssetsHost string        `mapstructure:"assets_host"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an optional YAML file. Falls back to COMPOSER_CONFIG.
	ConfigFile string
	// EnvFiles are dotenv files loaded when present. Defaults to .env.local
	// and .env. Values already in the environment win.
	EnvFiles []string
}

// Load reads defaults, dotenv files, the optional config file and COMPOSER_*
// environment overrides, in increasing precedence.
func Load(opts LoadOptions) (Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env.local", ".env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	cfgPath := opts.ConfigFile
	if cfgPath == "" {
		cfgPath = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", cfgPath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_path", "/app")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.namespace", "composer")
	v.SetDefault("analytics.url", "")
	v.SetDefault("analytics.token", "")
	v.SetDefault("grid.resize_settle", 150*time.Millisecond)
	v.SetDefault("theme.default", "dark")
	v.SetDefault("catalog.manifest", "")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("preview.assets_host", "")
	v.SetDefault("preview.cache_ttl", 5*time.Minute)
	v.SetDefault("log.level", "info")
}

// Validate checks what the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Analytics.URL) == "" || strings.TrimSpace(c.Analytics.Token) == "" {
		errs = append(errs, ErrMissingCredentials)
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverRedis, DriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, fmt.Errorf("config: storage.dsn is required for %s", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver))
	}
	if c.Grid.ResizeSettle < 0 {
		errs = append(errs, errors.New("config: grid.resize_settle must not be negative"))
	}
	return errors.Join(errs...)
}
