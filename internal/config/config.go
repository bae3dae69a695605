package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "OPENWX"

// AppConfig is the resolved runtime configuration.
type AppConfig struct {
	ProviderMode  string `validate:"oneof=relay direct"`
	BackendBase   string `validate:"omitempty,url"`
	ClientKey     string
	WeatherAPIKey string `validate:"required_if=ProviderMode direct"`

	HTTPTimeout     time.Duration `validate:"gt=0"`
	RefreshInterval time.Duration `validate:"gte=1s"`
	ForecastDays    int           `validate:"min=1,max=7"`
	LocateTimeout   time.Duration `validate:"gt=0"`

	FavoritesBackend string `validate:"oneof=sqlite file memory"`
	FavoritesKey     string `validate:"required"`
	DataDir          string `validate:"required"`

	ListenAddr string `validate:"required,hostname_port"`
	LogLevel   string `validate:"oneof=debug info warn error"`
}

// keys maps config keys to the struct fields they fill, for error messages.
var keys = map[string]string{
	"ProviderMode":     "provider_mode",
	"BackendBase":      "backend_base",
	"WeatherAPIKey":    "weatherapi_key",
	"HTTPTimeout":      "http_timeout",
	"RefreshInterval":  "refresh_interval",
	"ForecastDays":     "forecast_days",
	"LocateTimeout":    "locate_timeout",
	"FavoritesBackend": "favorites_backend",
	"FavoritesKey":     "favorites_key",
	"DataDir":          "data_dir",
	"ListenAddr":       "listen_addr",
	"LogLevel":         "log_level",
}

var validate = validator.New()

// Load reads an optional .env file, then OPENWX_* environment variables and the optional
// config file named by OPENWX_CONFIG, applying defaults for anything unset.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("provider_mode", "relay")
	v.SetDefault("backend_base", "")
	v.SetDefault("client_key", "")
	v.SetDefault("weatherapi_key", "")
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("refresh_interval", "180s")
	v.SetDefault("forecast_days", 3)
	v.SetDefault("locate_timeout", "8s")
	v.SetDefault("favorites_backend", "sqlite")
	v.SetDefault("favorites_key", "weatherapp.favs")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("listen_addr", "127.0.0.1:8765")
	v.SetDefault("log_level", "info")

	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s_CONFIG %q: %w", EnvPrefix, path, err)
		}
	}

	cfg := &AppConfig{
		ProviderMode:     v.GetString("provider_mode"),
		BackendBase:      v.GetString("backend_base"),
		ClientKey:        v.GetString("client_key"),
		WeatherAPIKey:    v.GetString("weatherapi_key"),
		FavoritesBackend: v.GetString("favorites_backend"),
		FavoritesKey:     v.GetString("favorites_key"),
		DataDir:          v.GetString("data_dir"),
		ListenAddr:       v.GetString("listen_addr"),
		LogLevel:         v.GetString("log_level"),
	}

	var err error
	if cfg.HTTPTimeout, err = duration(v, "http_timeout"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = duration(v, "refresh_interval"); err != nil {
		return nil, err
	}
	if cfg.LocateTimeout, err = duration(v, "locate_timeout"); err != nil {
		return nil, err
	}
	if cfg.ForecastDays, err = strconv.Atoi(strings.TrimSpace(v.GetString("forecast_days"))); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", envName("forecast_days"), err)
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("invalid %s: failed %q check (value %v)", envName(keys[fe.StructField()]), fe.Tag(), fe.Value())
		}
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", envName(key), err)
	}
	return d, nil
}

func envName(key string) string {
	if key == "" {
		return "configuration"
	}
	return EnvPrefix + "_" + strings.ToUpper(key)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "openwx")
	}
	return ".openwx"
}

// SQLitePath is where the sqlite favorites backend keeps its database.
func (c *AppConfig) SQLitePath() string {
	return filepath.Join(c.DataDir, "openwx.db")
}

// FavoritesFile is where the file favorites backend keeps its JSON document.
func (c *AppConfig) FavoritesFile() string {
	return filepath.Join(c.DataDir, "favorites.json")
}
