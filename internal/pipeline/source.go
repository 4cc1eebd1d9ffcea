package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/config"
)

// Source emits raw JSON segments on its output channel until it is exhausted or ctx ends.
// Run returns nil when a finite source is exhausted.
type Source interface {
	Run(ctx context.Context) error
}

// NewSource builds the source selected by cfg.Source.Type.
func NewSource(cfg *config.Config, output chan<- []byte, logger *zap.Logger) (Source, error) {
	switch cfg.Source.Type {
	case config.SourceKafka:
		return NewKafkaSource(cfg.Kafka, output, logger)
	case config.SourceFile:
		return NewFileSource(cfg.Source.Path, output, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceType, cfg.Source.Type)
	}
}

type kafkaZapLogger struct {
	log *zap.Logger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Info(fmt.Sprintf(msg, args...))
}

type kafkaZapErrorLogger struct {
	log *zap.Logger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

// messageReader is the part of *kafka.Reader the source uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSource reads segments from a Kafka topic as part of a consumer group. An offset is
// committed as soon as its segment is on the output channel, before features are computed
// or written, so delivery is at-most-once: segments in flight when the process dies are
// not redelivered.
type KafkaSource struct {
	reader messageReader
	output chan<- []byte
	logger *zap.Logger
}

// NewKafkaSource creates and configures a new Kafka reader.
func NewKafkaSource(cfg config.KafkaConfig, output chan<- []byte, logger *zap.Logger) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		logger.Error("Kafka configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
			zap.String("group_id", cfg.GroupID),
		)
		return nil, ErrInvalidKafkaConfig
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MaxBytes:    10e6, // segments carry a day of events
		Logger:      kafkaZapLogger{logger.Named("kafka-reader").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger: kafkaZapErrorLogger{logger.Named("kafka-reader-error").WithOptions(zap.AddCallerSkip(1))},
	}

	logger.Info("Kafka source created",
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID),
		zap.Strings("brokers", cfg.Brokers),
		zap.Int("max_bytes", readerCfg.MaxBytes),
	)

	return &KafkaSource{
		reader: kafka.NewReader(readerCfg),
		output: output,
		logger: logger,
	}, nil
}

// Run blocks until the context is cancelled or an unrecoverable error occurs.
func (s *KafkaSource) Run(ctx context.Context) error {
	sugar := s.logger.Sugar()
	sugar.Info("Starting Kafka source loop...")

	defer func() {
		if err := s.reader.Close(); err != nil {
			sugar.Errorw("Failed to close Kafka reader cleanly", zap.Error(err))
		}
		sugar.Info("Kafka source loop stopped.")
	}()

	for {
		m, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Debug("Context cancelled or deadline exceeded, stopping fetch loop.", zap.Error(err))
				return context.Canceled
			}
			s.logger.Error("Error fetching message from Kafka", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}

		select {
		case s.output <- m.Value:
		case <-ctx.Done():
			s.logger.Debug("Context cancelled while sending segment downstream.", zap.Error(ctx.Err()))
			return context.Canceled
		}

		if err := s.reader.CommitMessages(ctx, m); err != nil {
			if errors.Is(err, context.Canceled) {
				return context.Canceled
			}
			return fmt.Errorf("%w: %w", ErrKafkaCommitFailed, err)
		}
	}
}

// FileSource reads one JSON segment per line from a local file. Blank lines are skipped.
type FileSource struct {
	path   string
	open   func(string) (io.ReadCloser, error)
	output chan<- []byte
	logger *zap.Logger
}

func NewFileSource(path string, output chan<- []byte, logger *zap.Logger) *FileSource {
	return &FileSource{
		path:   path,
		open:   func(p string) (io.ReadCloser, error) { return os.Open(p) },
		output: output,
		logger: logger,
	}
}

func (s *FileSource) Run(ctx context.Context) error {
	f, err := s.open(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileSourceFailed, err)
	}
	defer f.Close()

	s.logger.Info("Reading segments from file", zap.String("path", s.path))

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lines := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		// the scanner reuses its buffer
		payload := append([]byte(nil), line...)

		select {
		case s.output <- payload:
			lines++
		case <-ctx.Done():
			return context.Canceled
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrFileSourceFailed, err)
	}

	s.logger.Info("Segment file exhausted", zap.String("path", s.path), zap.Int("segments", lines))
	return nil
}
