package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/synth"
)

var (
	brokers  = flag.String("brokers", "localhost:9092", "Comma-separated Kafka brokers")
	topic    = flag.String("topic", "physio-segments", "Topic to publish segments to")
	outFile  = flag.String("out", "", "Write JSON lines to this file instead of Kafka")
	subjects = flag.Int("subjects", 3, "Number of synthetic subjects")
	length   = flag.Duration("length", 10*time.Minute, "Recording length of each segment")
	count    = flag.Int("count", 0, "Segments to produce; 0 runs until interrupted")
	interval = flag.Duration("interval", time.Second, "Delay between segments")
	seed     = flag.Int64("seed", 0, "Random seed; 0 uses the current time")
)

// publisher delivers one encoded segment.
type publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func (p kafkaPublisher) Publish(ctx context.Context, key string, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value})
}

func (p kafkaPublisher) Close() error { return p.writer.Close() }

type filePublisher struct {
	f *os.File
	w *bufio.Writer
}

func (p filePublisher) Publish(_ context.Context, _ string, value []byte) error {
	if _, err := p.w.Write(value); err != nil {
		return err
	}
	return p.w.WriteByte('\n')
}

func (p filePublisher) Close() error {
	if err := p.w.Flush(); err != nil {
		_ = p.f.Close()
		return err
	}
	return p.f.Close()
}

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	pub, err := newPublisher()
	if err != nil {
		sugar.Fatalw("Failed to create publisher", "error", err)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			sugar.Errorw("Error closing publisher", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		sugar.Info("Shutdown signal received, stopping producer...")
		cancel()
	}()

	if *outFile != "" && *count == 0 {
		*count = *subjects
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	profile := synth.DefaultProfile()
	start := time.Now().UTC().Truncate(time.Hour)

	sugar.Infow("Starting synthetic segment producer",
		"subjects", *subjects, "length", *length, "seed", *seed, "file", *outFile, "topic", *topic)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for n := 0; *count == 0 || n < *count; n++ {
		subject := fmt.Sprintf("SI%02d", n%*subjects+1)
		segStart := start.Add(time.Duration(n / *subjects) * *length)
		seg := synth.Segment(rng, subject, fmt.Sprintf("%s-%s", subject, segStart.Format("20060102T150405")), segStart, *length, profile)

		data, err := json.Marshal(seg)
		if err != nil {
			sugar.Errorw("Error marshalling segment", "error", err)
			continue
		}
		if err := pub.Publish(ctx, subject, data); err != nil {
			if ctx.Err() != nil {
				sugar.Info("Context cancelled, exiting producer loop.")
				return
			}
			sugar.Errorw("Error publishing segment", "segment_id", seg.SegmentID, "error", err)
			continue
		}
		sugar.Infow("Produced segment",
			"segment_id", seg.SegmentID,
			"valleys", len(seg.Valleys),
			"r_peaks", len(seg.RPeaks),
			"bytes", len(data))

		if *outFile != "" {
			continue
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			sugar.Info("Producer loop stopped.")
			return
		}
	}
}

func newPublisher() (publisher, error) {
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			return nil, err
		}
		return filePublisher{f: f, w: bufio.NewWriter(f)}, nil
	}
	return kafkaPublisher{writer: &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:    *topic,
		Balancer: &kafka.Hash{},
	}}, nil
}
