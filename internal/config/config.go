package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // window.timezone must load on hosts without a zoneinfo database

	"github.com/spf13/viper"
)

const (
	defaultWindowSize        = 60 * time.Second
	defaultWindowOffset      = 60 * time.Second
	defaultTimezone          = "UTC"
	defaultSourceType        = SourceKafka
	defaultKafkaGroupID      = "physiolens-default-group"
	defaultClickHouseDB      = "default"
	defaultClickHouseTable   = "physio_features"
	defaultMetricsEnabled    = true
	defaultMetricsAddr       = ":2112"
	defaultPipelineWorkers   = 4
	defaultPipelineBuffer    = 100
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
	defaultLogFileEnabled    = false
	defaultLogDirectory      = "log"
	defaultLogFilename       = "app.log"
	defaultLogMaxSizeMB      = 100
	defaultLogMaxBackups     = 3
	defaultLogMaxAgeDays     = 7
	defaultLogCompress       = false
	defaultClickHouseEnabled = false

	// Environment variable prefix
	envPrefix = "PHYSIOLENS"
)

// Segment source types.
const (
	SourceKafka = "kafka"
	SourceFile  = "file"
)

type Config struct {
	Window     WindowConfig     `mapstructure:"window"`
	Source     SourceConfig     `mapstructure:"source"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Features   []FeatureConfig  `mapstructure:"features"`
	Log        LogConfig        `mapstructure:"log"`
}

type WindowConfig struct {
	Size     time.Duration `mapstructure:"size"`
	Offset   time.Duration `mapstructure:"offset"`
	Timezone string        `mapstructure:"timezone"`
}

// Location resolves Timezone. Validation has already checked it loads.
func (w WindowConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTimezone, err)
	}
	return loc, nil
}

type SourceConfig struct {
	Type string `mapstructure:"type"` // "kafka" or "file"
	Path string `mapstructure:"path"` // JSON-lines file when Type is "file"
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	GroupID     string   `mapstructure:"groupID"`
	OutputTopic string   `mapstructure:"outputTopic"` // features are published here when set
}

type ClickHouseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Table    string `mapstructure:"table"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type PipelineConfig struct {
	Workers    int `mapstructure:"workers"`
	BufferSize int `mapstructure:"bufferSize"`
}

// FeatureConfig sets alert thresholds for one output feature, matched by family and name
// (for example family "rip" with "breath_rate", or family "ecg" with "rr_mean").
type FeatureConfig struct {
	Family     string     `mapstructure:"family"`
	Name       string     `mapstructure:"name"`
	Thresholds Thresholds `mapstructure:"thresholds"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

type Thresholds struct {
	Min          *float64 `mapstructure:"min"`
	Max          *float64 `mapstructure:"max"`
	MinAvailable *float64 `mapstructure:"minAvailable"` // minimum fraction of segments producing the feature
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	// Read configuration from file (error if mandatory file is missing)
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("window.size", defaultWindowSize)
	v.SetDefault("window.offset", defaultWindowOffset)
	v.SetDefault("window.timezone", defaultTimezone)
	v.SetDefault("source.type", defaultSourceType)
	v.SetDefault("kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("clickhouse.enabled", defaultClickHouseEnabled)
	v.SetDefault("clickhouse.database", defaultClickHouseDB)
	v.SetDefault("clickhouse.table", defaultClickHouseTable)
	v.SetDefault("metrics.enabled", defaultMetricsEnabled)
	v.SetDefault("metrics.addr", defaultMetricsAddr)
	v.SetDefault("pipeline.workers", defaultPipelineWorkers)
	v.SetDefault("pipeline.bufferSize", defaultPipelineBuffer)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Window.Size <= 0 {
		return ErrInvalidWindowSize
	}
	if cfg.Window.Offset <= 0 || cfg.Window.Offset%time.Microsecond != 0 {
		return ErrInvalidWindowOffset
	}
	if _, err := cfg.Window.Location(); err != nil {
		return err
	}

	usesKafka := false
	switch cfg.Source.Type {
	case SourceKafka:
		usesKafka = true
		if cfg.Kafka.Topic == "" {
			return ErrEmptyKafkaTopic
		}
		if cfg.Kafka.GroupID == "" {
			return ErrEmptyKafkaGroupID
		}
	case SourceFile:
		if cfg.Source.Path == "" {
			return ErrEmptySourcePath
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSourceType, cfg.Source.Type)
	}
	if cfg.Kafka.OutputTopic != "" {
		usesKafka = true
	}
	if usesKafka && len(cfg.Kafka.Brokers) == 0 {
		return ErrEmptyKafkaBrokers
	}

	if cfg.ClickHouse.Enabled {
		if cfg.ClickHouse.Addr == "" {
			return ErrEmptyClickHouseAddr
		}
		if cfg.ClickHouse.Table == "" {
			return ErrEmptyClickHouseTable
		}
	}

	if cfg.Pipeline.Workers <= 0 {
		return ErrInvalidPipelineWorkers
	}
	if cfg.Pipeline.BufferSize < 0 {
		return ErrInvalidPipelineBuffer
	}
	for _, f := range cfg.Features {
		if f.Name == "" {
			return ErrEmptyFeatureName
		}
		if f.Family == "" {
			return fmt.Errorf("%w: %s", ErrEmptyFeatureFamily, f.Name)
		}
	}
	return nil
}
