// Package config loads application configuration from file and environment
// and owns global logger initialization.
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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Enrichment EnrichmentConfig `yaml:"enrichment" mapstructure:"enrichment"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the supplier directory backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`             // "sqlite" or "postgres"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // postgres connection string
	Path        string `yaml:"path" mapstructure:"path"`                 // sqlite file path
}

// EnrichmentConfig configures the AI location-risk provider and its cache.
type EnrichmentConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`

	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts    int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`

	// MaxConcurrentLookups bounds parallel cache warm-up during a scoring pass.
	MaxConcurrentLookups int `yaml:"max_concurrent_lookups" mapstructure:"max_concurrent_lookups"`
}

// ScoringConfig selects the sub-score strategy and carries its weights and
// tier thresholds. Weight sets are normalized by their sum before use, so
// they need not sum to exactly 1.
type ScoringConfig struct {
	// Strategy is "expiry" (certification-expiry / audit / incident sub-scores)
	// or "certification" (per-cert weights / country table / capacity).
	Strategy string `yaml:"strategy" mapstructure:"strategy"`

	Expiry ExpiryWeights `yaml:"expiry" mapstructure:"expiry"`
	Cert   CertWeights   `yaml:"cert" mapstructure:"cert"`

	// Tier thresholds on the normalized [0,1] composite, ascending and
	// inclusive on the lower bound of each band.
	MediumAt   float64 `yaml:"medium_at" mapstructure:"medium_at"`
	HighAt     float64 `yaml:"high_at" mapstructure:"high_at"`
	CriticalAt float64 `yaml:"critical_at" mapstructure:"critical_at"`

	// TopN is the ranked-list size in portfolio summaries.
	TopN int `yaml:"top_n" mapstructure:"top_n"`

	// CountryRiskFile optionally points to a YAML map of country name to
	// compliance risk adjustment, replacing the built-in table.
	CountryRiskFile string `yaml:"country_risk_file" mapstructure:"country_risk_file"`
}

// ExpiryWeights weights the expiry-strategy sub-scores.
type ExpiryWeights struct {
	Certification float64 `yaml:"certification" mapstructure:"certification"`
	Audit         float64 `yaml:"audit" mapstructure:"audit"`
	Geopolitical  float64 `yaml:"geopolitical" mapstructure:"geopolitical"`
	Environmental float64 `yaml:"environmental" mapstructure:"environmental"`
	Incident      float64 `yaml:"incident" mapstructure:"incident"`
}

// CertWeights weights the certification-strategy sub-scores.
type CertWeights struct {
	Certification float64 `yaml:"certification" mapstructure:"certification"`
	Compliance    float64 `yaml:"compliance" mapstructure:"compliance"`
	Geopolitical  float64 `yaml:"geopolitical" mapstructure:"geopolitical"`
	Environmental float64 `yaml:"environmental" mapstructure:"environmental"`
	Capacity      float64 `yaml:"capacity" mapstructure:"capacity"`
	Operational   float64 `yaml:"operational" mapstructure:"operational"`
}

// ServerConfig configures the JSON API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("SUPPLIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "suppliers.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("enrichment.enabled", true)
	v.SetDefault("enrichment.key", "")
	v.SetDefault("enrichment.model", "claude-haiku-4-5-20251001")
	v.SetDefault("enrichment.timeout_secs", 30)
	v.SetDefault("enrichment.max_attempts", 3)
	v.SetDefault("enrichment.requests_per_sec", 2)
	v.SetDefault("enrichment.max_concurrent_lookups", 4)
	v.SetDefault("scoring.strategy", "expiry")
	v.SetDefault("scoring.expiry.certification", 0.25)
	v.SetDefault("scoring.expiry.audit", 0.20)
	v.SetDefault("scoring.expiry.geopolitical", 0.20)
	v.SetDefault("scoring.expiry.environmental", 0.15)
	v.SetDefault("scoring.expiry.incident", 0.15)
	v.SetDefault("scoring.cert.certification", 0.25)
	v.SetDefault("scoring.cert.compliance", 0.20)
	v.SetDefault("scoring.cert.geopolitical", 0.20)
	v.SetDefault("scoring.cert.environmental", 0.20)
	v.SetDefault("scoring.cert.capacity", 0.10)
	v.SetDefault("scoring.cert.operational", 0.05)
	v.SetDefault("scoring.medium_at", 0.5)
	v.SetDefault("scoring.high_at", 2.0/3.0)
	v.SetDefault("scoring.critical_at", 2.5/3.0)
	v.SetDefault("scoring.top_n", 5)
	v.SetDefault("scoring.country_risk_file", "")

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
