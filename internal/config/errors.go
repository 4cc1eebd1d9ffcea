package config

import "errors"

var (
	ErrReadingConfigFile      = errors.New("failed to read config file")
	ErrUnmarshallingConfig    = errors.New("failed to unmarshal config")
	ErrConfigFileMissing      = errors.New("config file not found")
	ErrInvalidWindowSize      = errors.New("window size must be positive")
	ErrInvalidWindowOffset    = errors.New("window offset must be a positive number of microseconds")
	ErrInvalidTimezone        = errors.New("window timezone cannot be loaded")
	ErrUnknownSourceType      = errors.New("unknown source type")
	ErrEmptySourcePath        = errors.New("source path cannot be empty for file source")
	ErrEmptyKafkaBrokers      = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic        = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID      = errors.New("kafka groupID cannot be empty")
	ErrEmptyClickHouseAddr    = errors.New("clickhouse addr cannot be empty when enabled")
	ErrEmptyClickHouseTable   = errors.New("clickhouse table cannot be empty when enabled")
	ErrInvalidPipelineWorkers = errors.New("pipeline workers must be positive")
	ErrInvalidPipelineBuffer  = errors.New("pipeline bufferSize cannot be negative")
	ErrEmptyFeatureName       = errors.New("feature name cannot be empty")
	ErrEmptyFeatureFamily     = errors.New("feature family cannot be empty")
)
