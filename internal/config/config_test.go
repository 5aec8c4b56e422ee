package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/allergyscan-cli/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viperIn(dir string) *viper.Viper {
	v := viper.New()
	v.Set(KeyConfigDir, dir)
	return v
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := Load(viperIn(dir))
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Dir)
	assert.Empty(t, cfg.APIBaseURL)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "secrets"), cfg.SecretsDir)
	assert.Equal(t, "allergyscan", cfg.PassPrefix)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, filepath.Join(dir, "environments.toml"), cfg.EnvironmentsPath)
}

func TestLoadReadsConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
api_base_url = "https://api.allergyscan.test/"
log_level = "debug"
pass_prefix = "work/allergyscan"
request_timeout = "5s"
`), 0o600))

	cfg, err := Load(viperIn(dir))
	require.NoError(t, err)

	assert.Equal(t, "https://api.allergyscan.test", cfg.APIBaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "work/allergyscan", cfg.PassPrefix)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{name: "log level", key: KeyLogLevel, value: "loud", wantErr: "parse log level"},
		{name: "timeout", key: KeyRequestTimeout, value: "-1s", wantErr: "must be positive"},
		{name: "base url", key: KeyAPIBaseURL, value: "localhost:8000", wantErr: KeyAPIBaseURL},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v := viperIn(t.TempDir())
			v.Set(tc.key, tc.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadMalformedConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("log_level = "), 0o600))

	_, err := Load(viperIn(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`api_base_url = "http://from-file:8000"`), 0o600))
	t.Setenv("ASCAN_API_BASE_URL", "http://from-env:9000/")
	t.Setenv("ASCAN_LOG_LEVEL", "info")

	cfg, err := Load(viperIn(dir))
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:9000", cfg.APIBaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadUsesConfigDirFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ASCAN_CONFIG_DIR", dir)

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir)
}

func TestResolveBaseURL(t *testing.T) {
	t.Parallel()

	active := func() (domain.Environment, bool) {
		return domain.Environment{Name: "device", BaseURL: "http://10.0.2.2:8000/"}, true
	}
	none := func() (domain.Environment, bool) { return domain.Environment{}, false }

	assert.Equal(t, "https://explicit", ResolveBaseURL(Config{APIBaseURL: "https://explicit"}, active))
	assert.Equal(t, "http://10.0.2.2:8000", ResolveBaseURL(Config{}, active))
	assert.Equal(t, DefaultBaseURL, ResolveBaseURL(Config{}, none))
	assert.Equal(t, DefaultBaseURL, ResolveBaseURL(Config{}, nil))
}
