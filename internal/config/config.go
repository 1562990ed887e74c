package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Comtrade  ComtradeConfig  `yaml:"comtrade" mapstructure:"comtrade"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// ComtradeConfig holds UN Comtrade API settings.
type ComtradeConfig struct {
	SubscriptionKey       string `yaml:"subscription_key" mapstructure:"subscription_key"`
	BaseURL               string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs           int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLDays          int    `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
	RequestIntervalMillis int    `yaml:"request_interval_ms" mapstructure:"request_interval_ms"`
	InterYearMillis       int    `yaml:"inter_year_ms" mapstructure:"inter_year_ms"`
	InterReporterMillis   int    `yaml:"inter_reporter_ms" mapstructure:"inter_reporter_ms"`
	MaxAttempts           int    `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	ClassifyModel string `yaml:"classify_model" mapstructure:"classify_model"`
	SummaryModel  string `yaml:"summary_model" mapstructure:"summary_model"`
}

// AnalysisConfig configures the collection protocol.
type AnalysisConfig struct {
	Reporter        string `yaml:"reporter" mapstructure:"reporter"`
	StageDelayMs    int    `yaml:"stage_delay_ms" mapstructure:"stage_delay_ms"`
	NarrativeOnSave bool   `yaml:"narrative_on_save" mapstructure:"narrative_on_save"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOWNSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so env-only values bind through
	// AutomaticEnv.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "downstream.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("comtrade.subscription_key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("comtrade.base_url", "https://comtradeapi.un.org/public/v1/preview/C/A/HS")
	v.SetDefault("comtrade.timeout_secs", 30)
	v.SetDefault("comtrade.cache_ttl_days", 30)
	v.SetDefault("comtrade.request_interval_ms", 500)
	v.SetDefault("comtrade.inter_year_ms", 500)
	v.SetDefault("comtrade.inter_reporter_ms", 300)
	v.SetDefault("comtrade.max_attempts", 3)
	v.SetDefault("anthropic.classify_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.summary_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("analysis.reporter", "360")
	v.SetDefault("analysis.stage_delay_ms", 1000)
	v.SetDefault("analysis.narrative_on_save", true)

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

// Validate checks that the fields required for the given command mode are
// present. Collected problems are reported together.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "analyze":
		if c.Comtrade.SubscriptionKey == "" {
			problems = append(problems, "comtrade.subscription_key is required")
		}
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "classify":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "fetch":
		if c.Comtrade.SubscriptionKey == "" {
			problems = append(problems, "comtrade.subscription_key is required")
		}
	case "cache":
		// Store checks above are sufficient.
	default:
		problems = append(problems, "unknown mode: "+mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
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
