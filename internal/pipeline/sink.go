package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/config"
	"github.com/sanspareilsmyn/physiolens/internal/message"
)

// Sink persists or publishes the feature rows of one segment.
type Sink interface {
	Name() string
	Write(ctx context.Context, rows []message.FeatureRow) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes one JSON message per feature row, keyed by subject so that a
// subject's rows stay on one partition.
type KafkaSink struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

func NewKafkaSink(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 || cfg.OutputTopic == "" {
		return nil, ErrInvalidKafkaConfig
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.OutputTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafkaZapLogger{logger.Named("kafka-writer").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger:  kafkaZapErrorLogger{logger.Named("kafka-writer-error").WithOptions(zap.AddCallerSkip(1))},
	}
	logger.Info("Kafka sink created",
		zap.String("topic", cfg.OutputTopic),
		zap.Strings("brokers", cfg.Brokers),
	)
	return &KafkaSink{writer: w, topic: cfg.OutputTopic, logger: logger}, nil
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, rows []message.FeatureRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(rows))
	for _, r := range rows {
		value, err := message.EncodeRow(r)
		if err != nil {
			return fmt.Errorf("%w: encode %s: %w", ErrKafkaWriteFailed, r.Feature, err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(r.Key()), Value: value})
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("%w: %w", ErrKafkaWriteFailed, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// rowInserter is implemented by *store.ClickHouse.
type rowInserter interface {
	InsertRows(ctx context.Context, rows []message.FeatureRow) error
	Close() error
}

// StoreSink writes rows to the feature store, one batch per segment.
type StoreSink struct {
	store  rowInserter
	logger *zap.Logger
}

func NewStoreSink(store rowInserter, logger *zap.Logger) *StoreSink {
	return &StoreSink{store: store, logger: logger}
}

func (s *StoreSink) Name() string { return "clickhouse" }

func (s *StoreSink) Write(ctx context.Context, rows []message.FeatureRow) error {
	return s.store.InsertRows(ctx, rows)
}

func (s *StoreSink) Close() error {
	return s.store.Close()
}

// writeAll hands rows to every sink. A failing sink is logged and counted; the others
// still receive the rows.
func writeAll(ctx context.Context, sinks []Sink, result SegmentResult, logger *zap.Logger) {
	if result.Empty() {
		return
	}
	for _, sink := range sinks {
		if err := sink.Write(ctx, result.Rows); err != nil {
			sinkWriteErrors.WithLabelValues(sink.Name()).Inc()
			logger.Error("Sink write failed",
				zap.String("sink", sink.Name()),
				zap.String("segment_id", result.SegmentID),
				zap.Int("rows", len(result.Rows)),
				zap.Error(err),
			)
			continue
		}
		sinkRowsWritten.WithLabelValues(sink.Name()).Add(float64(len(result.Rows)))
	}
}
