// Package config loads golfscout configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/greenside/golfscout/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Places  PlacesConfig  `yaml:"places" mapstructure:"places"`
	Collect CollectConfig `yaml:"collect" mapstructure:"collect"`
	Redis   RedisConfig   `yaml:"redis" mapstructure:"redis"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// PlacesConfig holds Google Places API settings. Key is a fallback for the
// credential store's env scope; the layered store is the source of truth.
type PlacesConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	LanguageCode string `yaml:"language_code" mapstructure:"language_code"`
	RegionCode   string `yaml:"region_code" mapstructure:"region_code"`
}

// CollectConfig is the immutable per-run configuration injected into both
// stages. Centers and keywords define the traversal space; their order is
// part of the resumability contract.
type CollectConfig struct {
	Centers  []model.Center `yaml:"centers" mapstructure:"centers"`
	Keywords []string       `yaml:"keywords" mapstructure:"keywords"`

	RadiusMeters        float64 `yaml:"radius_meters" mapstructure:"radius_meters"`
	RelaxedRadiusMeters float64 `yaml:"relaxed_radius_meters" mapstructure:"relaxed_radius_meters"`
	PageSize            int     `yaml:"page_size" mapstructure:"page_size"`
	RelaxedPageSize     int     `yaml:"relaxed_page_size" mapstructure:"relaxed_page_size"`
	IncludedType        string  `yaml:"included_type" mapstructure:"included_type"`

	SearchBatchSize  int `yaml:"search_batch_size" mapstructure:"search_batch_size"`
	DetailsBatchSize int `yaml:"details_batch_size" mapstructure:"details_batch_size"`

	// RateLimit is provider calls per second across both stages.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	// PageTokenDelay is the settle time before reusing a continuation token.
	PageTokenDelay time.Duration `yaml:"page_token_delay" mapstructure:"page_token_delay"`
	// ContinueDelay is how far out the deferred continuation is scheduled.
	ContinueDelay time.Duration `yaml:"continue_delay" mapstructure:"continue_delay"`

	// AllowedRegions restricts appended rows to these source regions.
	// Empty means no restriction.
	AllowedRegions []string `yaml:"allowed_regions" mapstructure:"allowed_regions"`

	OutdoorTags []string `yaml:"outdoor_tags" mapstructure:"outdoor_tags"`
	IndoorTags  []string `yaml:"indoor_tags" mapstructure:"indoor_tags"`
}

// RedisConfig configures the asynq continuation queue.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// ExportConfig configures CSV/XLSX export output.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/golfscout")

	v.SetEnvPrefix("GOLFSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if len(cfg.Collect.Centers) == 0 {
		cfg.Collect.Centers = DefaultCenters()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "golfscout.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("export.dir", ".")

	v.SetDefault("places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("places.language_code", "ja")
	v.SetDefault("places.region_code", "JP")

	v.SetDefault("collect.keywords", []string{
		"ゴルフ練習場",
		"インドアゴルフ",
		"シミュレーションゴルフ",
		"ゴルフスクール",
		"ゴルフ場",
	})
	v.SetDefault("collect.radius_meters", 20000.0)
	v.SetDefault("collect.relaxed_radius_meters", 50000.0)
	v.SetDefault("collect.page_size", 20)
	v.SetDefault("collect.relaxed_page_size", 10)
	v.SetDefault("collect.included_type", "golf_course")
	v.SetDefault("collect.search_batch_size", 60)
	v.SetDefault("collect.details_batch_size", 40)
	v.SetDefault("collect.rate_limit", 5.0)
	v.SetDefault("collect.page_token_delay", "2s")
	v.SetDefault("collect.continue_delay", "1m")
	v.SetDefault("collect.allowed_regions", []string{
		"東京都", "神奈川県", "千葉県", "埼玉県", "茨城県", "栃木県", "群馬県",
	})
	v.SetDefault("collect.outdoor_tags", []string{
		"golf_course", "country_club", "driving_range", "park",
	})
	v.SetDefault("collect.indoor_tags", []string{
		"gym", "fitness_center", "sports_complex", "sports_school", "indoor_golf",
	})
}

// DefaultCenters returns the Kanto prefecture capitals used when no
// centers are configured.
func DefaultCenters() []model.Center {
	return []model.Center{
		{Name: "東京", Lat: 35.6895, Lng: 139.6917, Region: "東京都"},
		{Name: "横浜", Lat: 35.4437, Lng: 139.6380, Region: "神奈川県"},
		{Name: "千葉", Lat: 35.6073, Lng: 140.1063, Region: "千葉県"},
		{Name: "さいたま", Lat: 35.8617, Lng: 139.6455, Region: "埼玉県"},
		{Name: "水戸", Lat: 36.3418, Lng: 140.4468, Region: "茨城県"},
		{Name: "宇都宮", Lat: 36.5551, Lng: 139.8828, Region: "栃木県"},
		{Name: "前橋", Lat: 36.3895, Lng: 139.0634, Region: "群馬県"},
	}
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
