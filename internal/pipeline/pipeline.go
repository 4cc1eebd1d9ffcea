package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/config"
	"github.com/sanspareilsmyn/physiolens/internal/features"
	"github.com/sanspareilsmyn/physiolens/internal/message"
	"github.com/sanspareilsmyn/physiolens/internal/store"
	"github.com/sanspareilsmyn/physiolens/internal/window"
)

// Pipeline orchestrates the stages: source, parsing, feature calculation, sinks, alerting.
type Pipeline struct {
	source     Source
	calculator *Calculator
	sinks      []Sink
	alerter    *Alerter
	location   *time.Location
	logger     *zap.Logger

	rawMessages chan []byte
	segments    chan *message.Decoded
	results     chan SegmentResult
	alerts      chan SegmentResult
}

// New creates the components selected by cfg and wires them into a pipeline. It connects
// to the feature store when one is enabled.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")
	initLogger.Debug("Creating pipeline components...")

	bufferSize := cfg.Pipeline.BufferSize
	rawMessages := make(chan []byte, bufferSize)

	source, err := NewSource(cfg, rawMessages, logger.Named("source"))
	if err != nil {
		initLogger.Error("Failed to create source", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSourceCreationFailed, err)
	}

	var sinks []Sink
	if cfg.Kafka.OutputTopic != "" {
		sink, err := NewKafkaSink(cfg.Kafka, logger.Named("sink"))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSinkCreationFailed, err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.ClickHouse.Enabled {
		ch, err := store.Open(ctx, cfg.ClickHouse, logger.Named("store"))
		if err != nil {
			closeSinks(sinks, initLogger)
			return nil, fmt.Errorf("%w: %w", ErrSinkCreationFailed, err)
		}
		if err := ch.InitSchema(ctx); err != nil {
			_ = ch.Close()
			closeSinks(sinks, initLogger)
			return nil, fmt.Errorf("%w: %w", ErrSinkCreationFailed, err)
		}
		sinks = append(sinks, NewStoreSink(ch, logger.Named("sink")))
	}

	p, err := newPipeline(cfg, source, rawMessages, sinks, logger)
	if err != nil {
		closeSinks(sinks, initLogger)
		return nil, err
	}
	initLogger.Info("Pipeline instance created successfully", zap.Int("sinks", len(sinks)))
	return p, nil
}

// newPipeline wires already-built source and sinks. rawMessages must be the channel the
// source writes to.
func newPipeline(cfg *config.Config, source Source, rawMessages chan []byte, sinks []Sink, logger *zap.Logger) (*Pipeline, error) {
	loc, err := cfg.Window.Location()
	if err != nil {
		return nil, err
	}
	assembler, err := features.NewAssembler(window.Params{
		Size:     cfg.Window.Size,
		Offset:   cfg.Window.Offset,
		Location: loc,
	}, logger.Named("features"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssemblerCreation, err)
	}

	bufferSize := cfg.Pipeline.BufferSize
	segments := make(chan *message.Decoded, bufferSize)
	results := make(chan SegmentResult, bufferSize)
	alerts := make(chan SegmentResult, bufferSize)

	return &Pipeline{
		source:      source,
		calculator:  NewCalculator(assembler, cfg.Pipeline.Workers, segments, results, logger.Named("calculator")),
		sinks:       sinks,
		alerter:     NewAlerter(cfg.Features, alerts, logger.Named("alerter")),
		location:    loc,
		logger:      logger.Named("pipeline"),
		rawMessages: rawMessages,
		segments:    segments,
		results:     results,
		alerts:      alerts,
	}, nil
}

// Run starts all pipeline components and waits until they finish, a component fails or
// ctx is cancelled. A finite source ends the run once every segment has been drained.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	var wg sync.WaitGroup
	pipelineErr := make(chan error, 5) // source, parser, calculator, dispatcher, alerter

	sugar.Info("Pipeline Run: Starting components...")

	wg.Add(5)
	go p.runSource(ctx, &wg, pipelineErr)
	go p.runParser(ctx, &wg)
	go p.runCalculator(ctx, &wg, pipelineErr)
	go p.runDispatcher(ctx, &wg)
	go p.runAlerter(ctx, &wg, pipelineErr)

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	var firstErr error
	select {
	case <-ctx.Done():
		sugar.Info("Pipeline Run: Context cancelled. Waiting for components to finish...")
		firstErr = ctx.Err()
	case err := <-pipelineErr:
		sugar.Errorw("Pipeline Run: Received error from a component, initiating shutdown...", zap.Error(err))
		firstErr = err
	case <-finished:
		sugar.Info("Pipeline Run: Source exhausted and all segments drained.")
	}

	sugar.Debug("Pipeline Run: Waiting on components...")
	<-finished
	sugar.Info("Pipeline Run: All components finished.")

	if firstErr == nil {
		// a component may have failed while the others drained
		select {
		case firstErr = <-pipelineErr:
		default:
		}
	}
	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}
	return nil
}

// runSource executes the source component logic in a goroutine.
func (p *Pipeline) runSource(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer func() {
		close(p.rawMessages)
		p.logger.Debug("Raw messages channel closed")
	}()

	p.logger.Debug("Starting source goroutine...")
	if err := p.source.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Source component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrSourceRunFailed, err)
	} else if err == nil {
		p.logger.Debug("Source goroutine finished normally")
	} else {
		p.logger.Debug("Source goroutine cancelled gracefully")
	}
}

// runParser decodes raw segments. Undecodable segments are logged and skipped.
func (p *Pipeline) runParser(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		close(p.segments)
		p.logger.Debug("Segments channel closed")
	}()

	parserLogger := p.logger.Named("parser").Sugar()
	parserLogger.Debug("Starting parser goroutine...")

	for {
		select {
		case rawMsg, ok := <-p.rawMessages:
			if !ok {
				parserLogger.Debug("Parser finished (raw message channel closed).")
				return
			}
			segmentsReceived.Inc()

			seg, err := message.ParseSegment(rawMsg, p.location)
			if err != nil {
				segmentParseFailures.Inc()
				parserLogger.Warnw("Failed to parse segment, skipping",
					zap.Error(err),
					zap.String("payload", message.Snippet(rawMsg, 120)),
				)
				continue
			}

			select {
			case p.segments <- seg:
			case <-ctx.Done():
				parserLogger.Debug("Parser context cancelled during send.", zap.Error(ctx.Err()))
				return
			}

		case <-ctx.Done():
			parserLogger.Debug("Parser context cancelled while waiting for raw message.", zap.Error(ctx.Err()))
			return
		}
	}
}

// runCalculator executes the calculator component logic in a goroutine.
func (p *Pipeline) runCalculator(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer func() {
		close(p.results)
		p.logger.Debug("Results channel closed")
	}()

	p.logger.Debug("Starting calculator goroutine...")
	if err := p.calculator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Calculator component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrCalculatorRunFailed, err)
	} else if err == nil {
		p.logger.Debug("Calculator goroutine finished normally")
	} else {
		p.logger.Debug("Calculator goroutine cancelled gracefully")
	}
}

// runDispatcher writes each result to the sinks, then forwards it to the alerter.
func (p *Pipeline) runDispatcher(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer func() {
		close(p.alerts)
		p.logger.Debug("Alerts channel closed")
	}()

	sinkLogger := p.logger.Named("sink")
	for {
		select {
		case result, ok := <-p.results:
			if !ok {
				return
			}
			writeAll(ctx, p.sinks, result, sinkLogger)

			select {
			case p.alerts <- result:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// runAlerter executes the alerter component logic in a goroutine.
func (p *Pipeline) runAlerter(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()

	p.logger.Debug("Starting alerter goroutine...")
	if err := p.alerter.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Alerter component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrAlerterRunFailed, err)
	} else if err == nil {
		p.logger.Debug("Alerter goroutine finished normally")
	} else {
		p.logger.Debug("Alerter goroutine cancelled gracefully")
	}
}

// Close releases the sinks.
func (p *Pipeline) Close() error {
	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func closeSinks(sinks []Sink, logger *zap.Logger) {
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			logger.Warn("Failed to close sink", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
}
