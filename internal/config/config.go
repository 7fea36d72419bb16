package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/area-check/internal/catalog"
	"github.com/sells-group/area-check/pkg/geocode"
)

// Config holds the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Catalog  CatalogConfig  `yaml:"catalog" mapstructure:"catalog"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// CatalogConfig locates the region source document.
type CatalogConfig struct {
	Source  string `yaml:"source" mapstructure:"source"` // file path or http(s) URL
	Format  string `yaml:"format" mapstructure:"format"` // overrides extension sniffing
	Strict  bool   `yaml:"strict" mapstructure:"strict"`
	IDField string `yaml:"id_field" mapstructure:"id_field"`
	Sheet   string `yaml:"sheet" mapstructure:"sheet"`
}

// Policy returns the invalid-group policy selected by Strict.
func (c CatalogConfig) Policy() catalog.Policy {
	if c.Strict {
		return catalog.PolicyStrict
	}
	return catalog.PolicySkip
}

// GeocoderConfig configures the geocoding provider.
type GeocoderConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"`
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
	Email     string        `yaml:"email" mapstructure:"email"`
	GoogleKey string        `yaml:"google_key" mapstructure:"google_key"`
	RateLimit float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AREACHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("catalog.source", "coords.json")
	v.SetDefault("catalog.format", "")
	v.SetDefault("catalog.strict", false)
	v.SetDefault("catalog.id_field", "")
	v.SetDefault("catalog.sheet", "")
	v.SetDefault("geocoder.provider", geocode.ProviderNominatim)
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", geocode.DefaultUserAgent)
	v.SetDefault("geocoder.email", "")
	v.SetDefault("geocoder.google_key", "")
	v.SetDefault("geocoder.rate_limit", 1.0)
	v.SetDefault("geocoder.timeout", "10s")

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

	// Env values arrive comma-separated, possibly with padding.
	cfg.Server.CORSOrigins = splitList(strings.Join(cfg.Server.CORSOrigins, ","))

	return &cfg, nil
}

// Validate checks the settings a check run depends on.
func (c *Config) Validate() error {
	var errs []string

	if c.Catalog.Source == "" {
		errs = append(errs, "catalog.source is required")
	}
	if c.Catalog.Format != "" {
		if _, err := catalog.ParseFormat(c.Catalog.Format); err != nil {
			errs = append(errs, "catalog.format "+err.Error())
		}
	}
	if !geocode.ValidProvider(strings.ToLower(c.Geocoder.Provider)) {
		errs = append(errs, "geocoder.provider must be one of nominatim, census, google")
	}
	if strings.EqualFold(c.Geocoder.Provider, geocode.ProviderGoogle) && c.Geocoder.GoogleKey == "" {
		errs = append(errs, "geocoder.google_key is required for the google provider")
	}
	if c.Geocoder.RateLimit < 0 {
		errs = append(errs, "geocoder.rate_limit must not be negative")
	}
	if c.Geocoder.Timeout < 0 {
		errs = append(errs, "geocoder.timeout must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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
