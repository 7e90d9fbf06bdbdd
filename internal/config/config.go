package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Brreg      BrregConfig      `yaml:"brreg" mapstructure:"brreg"`
	Proff      ProffConfig      `yaml:"proff" mapstructure:"proff"`
	Gulesider  GulesiderConfig  `yaml:"gulesider" mapstructure:"gulesider"`
	Probes     ProbesConfig     `yaml:"probes" mapstructure:"probes"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	LACRM      LACRMConfig      `yaml:"lacrm" mapstructure:"lacrm"`
	Heuristics HeuristicsConfig `yaml:"heuristics" mapstructure:"heuristics"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Circuit    CircuitConfig    `yaml:"circuit" mapstructure:"circuit"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the durable cache tier. An unreachable tier falls back
// to the file store in CacheDir.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	SQLitePath    string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	CacheDir      string `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// BrregConfig configures the Enhetsregisteret client.
type BrregConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ProffConfig configures the financial page scraper. The selectors track
// proff.no markup and can be changed without a release.
type ProffConfig struct {
	BaseURL              string `yaml:"base_url" mapstructure:"base_url"`
	TableSelector        string `yaml:"table_selector" mapstructure:"table_selector"`
	WidgetSelector       string `yaml:"widget_selector" mapstructure:"widget_selector"`
	WidgetHeaderSelector string `yaml:"widget_header_selector" mapstructure:"widget_header_selector"`
	WidgetValueSelector  string `yaml:"widget_value_selector" mapstructure:"widget_value_selector"`
	TimeoutSecs          int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GulesiderConfig configures the directory listing probe.
type GulesiderConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ProbesConfig holds settings shared by the web probes.
type ProbesConfig struct {
	Concurrency      int    `yaml:"concurrency" mapstructure:"concurrency"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	WhoisTimeoutSecs int    `yaml:"whois_timeout_secs" mapstructure:"whois_timeout_secs"`
	UserAgent        string `yaml:"user_agent" mapstructure:"user_agent"`
}

// AnthropicConfig holds Anthropic API settings. An empty key disables the AI
// probe and the generated sales comments.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// JinaConfig holds Jina search settings. An empty key leaves social and news
// probes unverified.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// LACRMConfig holds Less Annoying CRM credentials and field IDs.
type LACRMConfig struct {
	UserCode       string               `yaml:"user_code" mapstructure:"user_code"`
	APIToken       string               `yaml:"api_token" mapstructure:"api_token"`
	BaseURL        string               `yaml:"base_url" mapstructure:"base_url"`
	OrgNrFieldID   string               `yaml:"orgnr_field_id" mapstructure:"orgnr_field_id"`
	RateLimit      float64              `yaml:"rate_limit" mapstructure:"rate_limit"`
	CustomFields   map[string]string    `yaml:"custom_fields" mapstructure:"custom_fields"`
	PipelineFields PipelineFieldsConfig `yaml:"pipeline_fields" mapstructure:"pipeline_fields"`
	PipelineName   string               `yaml:"pipeline_name" mapstructure:"pipeline_name"`
}

// PipelineFieldsConfig maps pipeline item custom fields to their LACRM IDs.
type PipelineFieldsConfig struct {
	Company      string `yaml:"company" mapstructure:"company"`
	OrgNr        string `yaml:"orgnr" mapstructure:"orgnr"`
	CategoryMain string `yaml:"category_main" mapstructure:"category_main"`
	Phone        string `yaml:"phone" mapstructure:"phone"`
	Email        string `yaml:"email" mapstructure:"email"`
	Comment      string `yaml:"comment" mapstructure:"comment"`
}

// HeuristicsConfig holds the age thresholds used by the recommendation rules.
type HeuristicsConfig struct {
	StartupMaxYears   float64 `yaml:"startup_max_years" mapstructure:"startup_max_years"`
	ModernizeMinYears float64 `yaml:"modernize_min_years" mapstructure:"modernize_min_years"`
}

// BatchConfig bounds cross-company concurrency.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// CircuitConfig configures the per-probe circuit breakers.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP lookup server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Seconds converts a *_secs setting to a duration, using def when unset.
func Seconds(secs int, def time.Duration) time.Duration {
	if secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SALGSMOTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.sqlite_path", "salgsmotor.db")
	v.SetDefault("store.cache_dir", "cache")

	v.SetDefault("brreg.base_url", "https://data.brreg.no")
	v.SetDefault("brreg.rate_limit", 5.0)
	v.SetDefault("brreg.timeout_secs", 10)

	v.SetDefault("proff.base_url", "https://www.proff.no")
	v.SetDefault("proff.table_selector", "table.AccountFiguresWidget-accountingtable")
	v.SetDefault("proff.widget_selector", "div.StatsWidget-cell")
	v.SetDefault("proff.widget_header_selector", "span.StatsWidget-header")
	v.SetDefault("proff.widget_value_selector", "span.StatsWidget-value")
	v.SetDefault("proff.timeout_secs", 15)

	v.SetDefault("gulesider.base_url", "https://www.gulesider.no")

	v.SetDefault("probes.concurrency", 4)
	v.SetDefault("probes.timeout_secs", 15)
	v.SetDefault("probes.whois_timeout_secs", 10)
	v.SetDefault("probes.user_agent", "")

	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.timeout_secs", 30)

	v.SetDefault("jina.key", "")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")

	v.SetDefault("lacrm.user_code", "")
	v.SetDefault("lacrm.api_token", "")
	v.SetDefault("lacrm.base_url", "https://api.lessannoyingcrm.com")
	v.SetDefault("lacrm.orgnr_field_id", "")
	v.SetDefault("lacrm.rate_limit", 2.0)
	v.SetDefault("lacrm.pipeline_name", "Potensielle kunder")

	v.SetDefault("heuristics.startup_max_years", 2.0)
	v.SetDefault("heuristics.modernize_min_years", 10.0)

	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.reset_timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
