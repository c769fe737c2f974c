package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Map     MapConfig     `yaml:"map" mapstructure:"map"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DatasetConfig locates and reads the source table.
type DatasetConfig struct {
	Source      string `yaml:"source" mapstructure:"source"`
	Format      string `yaml:"format" mapstructure:"format"`
	SheetIndex  int    `yaml:"sheet_index" mapstructure:"sheet_index"`
	SheetName   string `yaml:"sheet_name" mapstructure:"sheet_name"`
	Delimiter   string `yaml:"delimiter" mapstructure:"delimiter"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	FTPUser     string `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword string `yaml:"ftp_password" mapstructure:"ftp_password"`
}

// Timeout returns the fetch timeout.
func (d DatasetConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSecs) * time.Second
}

// MapConfig holds the fixed viewport parameters.
type MapConfig struct {
	DefaultCenterLat float64   `yaml:"default_center_lat" mapstructure:"default_center_lat"`
	DefaultCenterLon float64   `yaml:"default_center_lon" mapstructure:"default_center_lon"`
	BoundsSouthWest  []float64 `yaml:"bounds_south_west" mapstructure:"bounds_south_west"`
	BoundsNorthEast  []float64 `yaml:"bounds_north_east" mapstructure:"bounds_north_east"`
	InitialZoom      float64   `yaml:"initial_zoom" mapstructure:"initial_zoom"`
	MinZoom          float64   `yaml:"min_zoom" mapstructure:"min_zoom"`
	MaxZoom          float64   `yaml:"max_zoom" mapstructure:"max_zoom"`
	SelectZoom       float64   `yaml:"select_zoom" mapstructure:"select_zoom"`
	FlyDurationMS    int       `yaml:"fly_duration_ms" mapstructure:"fly_duration_ms"`
}

// FlyDuration returns the selection animation duration.
func (m MapConfig) FlyDuration() time.Duration {
	return time.Duration(m.FlyDurationMS) * time.Millisecond
}

// SearchConfig configures the search dropdown.
type SearchConfig struct {
	MaxSuggestions int `yaml:"max_suggestions" mapstructure:"max_suggestions"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	CORSOrigins        []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitRPS       float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst     int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	SessionIdleMinutes int      `yaml:"session_idle_minutes" mapstructure:"session_idle_minutes"`
	ShutdownSecs       int      `yaml:"shutdown_secs" mapstructure:"shutdown_secs"`
}

// ExportConfig configures record exports.
type ExportConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
	Out    string `yaml:"out" mapstructure:"out"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml, if present, and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file, which must exist. A blank
// path falls back to the optional ./config.yaml.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	v.SetConfigType("yaml")

	// Environment
	v.SetEnvPrefix("ECOMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset.source", "Dataset/Dataset_AQI22-4.xlsx")
	v.SetDefault("dataset.format", "")
	v.SetDefault("dataset.sheet_index", 0)
	v.SetDefault("dataset.sheet_name", "")
	v.SetDefault("dataset.delimiter", ",")
	v.SetDefault("dataset.timeout_secs", 30)
	v.SetDefault("dataset.user_agent", "ecomap/1.0")
	v.SetDefault("dataset.ftp_user", "anonymous")
	v.SetDefault("dataset.ftp_password", "anonymous@")
	v.SetDefault("map.default_center_lat", 20.5937)
	v.SetDefault("map.default_center_lon", 78.9629)
	v.SetDefault("map.bounds_south_west", []float64{6.5, 68.0})
	v.SetDefault("map.bounds_north_east", []float64{37.5, 97.5})
	v.SetDefault("map.initial_zoom", 5)
	v.SetDefault("map.min_zoom", 4)
	v.SetDefault("map.max_zoom", 9)
	v.SetDefault("map.select_zoom", 8)
	v.SetDefault("map.fly_duration_ms", 1500)
	v.SetDefault("search.max_suggestions", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 20.0)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.session_idle_minutes", 30)
	v.SetDefault("server.shutdown_secs", 10)
	v.SetDefault("export.format", "geojson")
	v.SetDefault("export.out", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimitRPS < 0 {
			problems = append(problems, "server.rate_limit_rps must be >= 0")
		}
		if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
			problems = append(problems, "server.rate_limit_burst must be >= 1 when rate limiting is enabled")
		}
		problems = append(problems, c.mapProblems()...)
	case "load", "inspect", "search", "browse":
		problems = append(problems, c.mapProblems()...)
	case "export":
		switch c.Export.Format {
		case "geojson", "sqlite", "shapefile":
		default:
			problems = append(problems, "export.format must be one of geojson, sqlite, shapefile")
		}
		if c.Export.Out == "" {
			problems = append(problems, "export.out is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Dataset.Source == "" {
		problems = append(problems, "dataset.source is required")
	}
	if c.Search.MaxSuggestions < 1 {
		problems = append(problems, "search.max_suggestions must be >= 1")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) mapProblems() []string {
	var problems []string
	m := c.Map
	if len(m.BoundsSouthWest) != 2 || len(m.BoundsNorthEast) != 2 {
		problems = append(problems, "map bounds must be [lat, lon] pairs")
	}
	if m.MinZoom > m.MaxZoom {
		problems = append(problems, "map.min_zoom must be <= map.max_zoom")
	}
	if m.InitialZoom < m.MinZoom || m.InitialZoom > m.MaxZoom {
		problems = append(problems, "map.initial_zoom must be within [min_zoom, max_zoom]")
	}
	if m.FlyDurationMS < 0 {
		problems = append(problems, "map.fly_duration_ms must be >= 0")
	}
	return problems
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
