// Package config resolves CLI settings from ~/.allergyscan/config.toml,
// ASCAN_* environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/allergyscan-cli/internal/adapters/secrets/pass"
	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/bnema/allergyscan-cli/internal/logger"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultRequestTimeout = 30 * time.Second

	EnvPrefix = "ASCAN"

	configDirName = ".allergyscan"
	configName    = "config"
	configType    = "toml"

	KeyConfigDir        = "config_dir"
	KeyAPIBaseURL       = "api_base_url"
	KeyLogLevel         = "log_level"
	KeySecretsDir       = "secrets_dir"
	KeyPassPrefix       = "pass_prefix"
	KeyRequestTimeout   = "request_timeout"
	KeyEnvironmentsPath = "environments_path"
)

type Config struct {
	Dir              string
	APIBaseURL       string
	LogLevel         string
	SecretsDir       string
	PassPrefix       string
	RequestTimeout   time.Duration
	EnvironmentsPath string
}

// Load reads the config file when present. Values already set on v win
// over the environment, which wins over the file.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dir := v.GetString(KeyConfigDir)
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(homeDir, configDirName)
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)
	v.SetDefault(KeyLogLevel, logger.DefaultLevel)
	v.SetDefault(KeySecretsDir, filepath.Join(dir, "secrets"))
	v.SetDefault(KeyPassPrefix, pass.DefaultPrefix)
	v.SetDefault(KeyRequestTimeout, DefaultRequestTimeout)
	v.SetDefault(KeyEnvironmentsPath, filepath.Join(dir, "environments.toml"))

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Dir:              dir,
		APIBaseURL:       domain.NormalizeBaseURL(v.GetString(KeyAPIBaseURL)),
		LogLevel:         v.GetString(KeyLogLevel),
		SecretsDir:       v.GetString(KeySecretsDir),
		PassPrefix:       v.GetString(KeyPassPrefix),
		RequestTimeout:   v.GetDuration(KeyRequestTimeout),
		EnvironmentsPath: v.GetString(KeyEnvironmentsPath),
	}

	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %s", KeyRequestTimeout, cfg.RequestTimeout)
	}
	if cfg.APIBaseURL != "" {
		if err := (domain.Environment{Name: "config", BaseURL: cfg.APIBaseURL}).Validate(); err != nil {
			return Config{}, fmt.Errorf("%s: %w", KeyAPIBaseURL, err)
		}
	}

	return cfg, nil
}

// ResolveBaseURL picks the API base URL: an explicit setting first, then the
// active environment, then DefaultBaseURL.
func ResolveBaseURL(cfg Config, active func() (domain.Environment, bool)) string {
	if cfg.APIBaseURL != "" {
		return cfg.APIBaseURL
	}
	if active != nil {
		if env, ok := active(); ok && env.BaseURL != "" {
			return domain.NormalizeBaseURL(env.BaseURL)
		}
	}
	return DefaultBaseURL
}
