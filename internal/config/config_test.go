package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "cache", cfg.Store.CacheDir)
	assert.Equal(t, "https://data.brreg.no", cfg.Brreg.BaseURL)
	assert.Equal(t, 10, cfg.Brreg.TimeoutSecs)
	assert.Equal(t, "https://www.proff.no", cfg.Proff.BaseURL)
	assert.Equal(t, "table.AccountFiguresWidget-accountingtable", cfg.Proff.TableSelector)
	assert.Equal(t, "div.StatsWidget-cell", cfg.Proff.WidgetSelector)
	assert.Equal(t, "https://www.gulesider.no", cfg.Gulesider.BaseURL)
	assert.Equal(t, 4, cfg.Probes.Concurrency)
	assert.Equal(t, 10, cfg.Probes.WhoisTimeoutSecs)
	assert.Equal(t, "https://s.jina.ai", cfg.Jina.SearchBaseURL)
	assert.Equal(t, "https://api.lessannoyingcrm.com", cfg.LACRM.BaseURL)
	assert.Equal(t, "Potensielle kunder", cfg.LACRM.PipelineName)
	assert.InDelta(t, 2.0, cfg.Heuristics.StartupMaxYears, 0.001)
	assert.InDelta(t, 10.0, cfg.Heuristics.ModernizeMinYears, 0.001)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 5, cfg.Circuit.FailureThreshold)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: redis
  redis_addr: localhost:6379
proff:
  table_selector: table.NewFigures
lacrm:
  orgnr_field_id: "4012"
  custom_fields:
    brreg_navn: "4001"
    nettsted: "4002"
  pipeline_fields:
    company: "5001"
    comment: "5006"
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "table.NewFigures", cfg.Proff.TableSelector)
	assert.Equal(t, "4012", cfg.LACRM.OrgNrFieldID)
	assert.Equal(t, map[string]string{"brreg_navn": "4001", "nettsted": "4002"}, cfg.LACRM.CustomFields)
	assert.Equal(t, "5001", cfg.LACRM.PipelineFields.Company)
	assert.Equal(t, "5006", cfg.LACRM.PipelineFields.Comment)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "div.StatsWidget-cell", cfg.Proff.WidgetSelector)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store:\n  driver: sqlite\n"), 0644))
	t.Setenv("SALGSMOTOR_STORE_DRIVER", "postgres")
	t.Setenv("SALGSMOTOR_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)

	const key = "SALGSMOTOR_JINA_KEY"
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=jina_from_dotenv\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "jina_from_dotenv", cfg.Jina.Key)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unterminated"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 15*time.Second, Seconds(0, 15*time.Second))
	assert.Equal(t, 3*time.Second, Seconds(3, 15*time.Second))
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "invalid", Format: "json"}))
}

// validDefaults returns a Config with defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "file"
	cfg.Batch.MaxConcurrent = 5
	cfg.Probes.Concurrency = 4
	cfg.Heuristics.StartupMaxYears = 2
	cfg.Heuristics.ModernizeMinYears = 10
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateSync(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lacrm.user_code is required")
	assert.Contains(t, err.Error(), "lacrm.api_token is required")
	assert.Contains(t, err.Error(), "lacrm.orgnr_field_id is required")

	cfg.LACRM.UserCode = "ABC123"
	cfg.LACRM.APIToken = "token"
	assert.NoError(t, cfg.Validate("fields"))
	assert.Error(t, cfg.Validate("sync"))

	cfg.LACRM.OrgNrFieldID = "4012"
	assert.NoError(t, cfg.Validate("sync"))
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Batch.MaxConcurrent = 51
	cfg.Store.Driver = "mongo"
	err := cfg.Validate("enrich")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.max_concurrent must be between 1 and 50")
	assert.Contains(t, err.Error(), `store.driver "mongo"`)
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("discover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
