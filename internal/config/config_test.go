package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const fileSourceConfig = `
window:
  size: 30s
  offset: 10s
  timezone: US/Central
source:
  type: file
  path: segments.jsonl
features:
  - family: rip
    name: breath_rate
    thresholds:
      min: 2
      max: 12
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, fileSourceConfig))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Window.Size)
	assert.Equal(t, 10*time.Second, cfg.Window.Offset)
	loc, err := cfg.Window.Location()
	require.NoError(t, err)
	assert.Equal(t, "US/Central", loc.String())

	assert.Equal(t, SourceFile, cfg.Source.Type)
	assert.Equal(t, "segments.jsonl", cfg.Source.Path)

	// defaults
	assert.Equal(t, defaultPipelineWorkers, cfg.Pipeline.Workers)
	assert.Equal(t, defaultPipelineBuffer, cfg.Pipeline.BufferSize)
	assert.Equal(t, defaultKafkaGroupID, cfg.Kafka.GroupID)
	assert.Equal(t, defaultMetricsAddr, cfg.Metrics.Addr)
	assert.False(t, cfg.ClickHouse.Enabled)
	assert.Equal(t, defaultClickHouseTable, cfg.ClickHouse.Table)
	assert.Equal(t, defaultLogLevel, cfg.Log.Level)

	require.Len(t, cfg.Features, 1)
	assert.Equal(t, "breath_rate", cfg.Features[0].Name)
	assert.Equal(t, "rip", cfg.Features[0].Family)
	require.NotNil(t, cfg.Features[0].Thresholds.Min)
	assert.Equal(t, 2.0, *cfg.Features[0].Thresholds.Min)
	require.NotNil(t, cfg.Features[0].Thresholds.Max)
	assert.Equal(t, 12.0, *cfg.Features[0].Thresholds.Max)
	assert.Nil(t, cfg.Features[0].Thresholds.MinAvailable)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PHYSIOLENS_WINDOW_SIZE", "2m")
	t.Setenv("PHYSIOLENS_PIPELINE_WORKERS", "9")

	cfg, err := Load(writeConfig(t, fileSourceConfig))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Window.Size)
	assert.Equal(t, 9, cfg.Pipeline.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			Window:   WindowConfig{Size: time.Minute, Offset: 30 * time.Second, Timezone: "UTC"},
			Source:   SourceConfig{Type: SourceKafka},
			Kafka:    KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "segments", GroupID: "g"},
			Pipeline: PipelineConfig{Workers: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero size", mutate: func(c *Config) { c.Window.Size = 0 }, wantErr: ErrInvalidWindowSize},
		{name: "negative offset", mutate: func(c *Config) { c.Window.Offset = -time.Second }, wantErr: ErrInvalidWindowOffset},
		{name: "sub-microsecond offset", mutate: func(c *Config) { c.Window.Offset = time.Second + time.Nanosecond }, wantErr: ErrInvalidWindowOffset},
		{name: "bad timezone", mutate: func(c *Config) { c.Window.Timezone = "Mars/Olympus" }, wantErr: ErrInvalidTimezone},
		{name: "unknown source", mutate: func(c *Config) { c.Source.Type = "s3" }, wantErr: ErrUnknownSourceType},
		{name: "kafka without topic", mutate: func(c *Config) { c.Kafka.Topic = "" }, wantErr: ErrEmptyKafkaTopic},
		{name: "kafka without group", mutate: func(c *Config) { c.Kafka.GroupID = "" }, wantErr: ErrEmptyKafkaGroupID},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Kafka.Brokers = nil }, wantErr: ErrEmptyKafkaBrokers},
		{name: "file without path", mutate: func(c *Config) { c.Source = SourceConfig{Type: SourceFile} }, wantErr: ErrEmptySourcePath},
		{
			name: "file source with output topic needs brokers",
			mutate: func(c *Config) {
				c.Source = SourceConfig{Type: SourceFile, Path: "x"}
				c.Kafka = KafkaConfig{OutputTopic: "features"}
			},
			wantErr: ErrEmptyKafkaBrokers,
		},
		{
			name:   "file source without kafka",
			mutate: func(c *Config) { c.Source = SourceConfig{Type: SourceFile, Path: "x"}; c.Kafka = KafkaConfig{} },
		},
		{name: "clickhouse without addr", mutate: func(c *Config) { c.ClickHouse = ClickHouseConfig{Enabled: true, Table: "t"} }, wantErr: ErrEmptyClickHouseAddr},
		{name: "clickhouse without table", mutate: func(c *Config) { c.ClickHouse = ClickHouseConfig{Enabled: true, Addr: "a"} }, wantErr: ErrEmptyClickHouseTable},
		{name: "no workers", mutate: func(c *Config) { c.Pipeline.Workers = 0 }, wantErr: ErrInvalidPipelineWorkers},
		{name: "negative buffer", mutate: func(c *Config) { c.Pipeline.BufferSize = -1 }, wantErr: ErrInvalidPipelineBuffer},
		{name: "unnamed feature", mutate: func(c *Config) { c.Features = []FeatureConfig{{Family: "rip"}} }, wantErr: ErrEmptyFeatureName},
		{name: "feature without family", mutate: func(c *Config) { c.Features = []FeatureConfig{{Name: "rr_mean"}} }, wantErr: ErrEmptyFeatureFamily},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
