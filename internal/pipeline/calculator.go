package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/physiolens/internal/features"
	"github.com/sanspareilsmyn/physiolens/internal/message"
)

// Calculator runs the feature assembler over decoded segments with a fixed pool of
// workers. Segments are independent, so results may leave in a different order than
// segments arrived.
type Calculator struct {
	assembler *features.Assembler
	workers   int
	input     <-chan *message.Decoded
	output    chan<- SegmentResult
	logger    *zap.Logger
}

// NewCalculator creates a new Calculator instance. workers below one are raised to one.
func NewCalculator(assembler *features.Assembler, workers int, input <-chan *message.Decoded, output chan<- SegmentResult, logger *zap.Logger) *Calculator {
	if workers < 1 {
		workers = 1
	}
	params := assembler.Params()
	logger.Info("Calculator initialized",
		zap.Duration("window_size", params.Size),
		zap.Duration("window_offset", params.Offset),
		zap.Int("workers", workers),
	)
	return &Calculator{
		assembler: assembler,
		workers:   workers,
		input:     input,
		output:    output,
		logger:    logger,
	}
}

// Run processes segments until the input channel is closed or ctx is cancelled.
func (c *Calculator) Run(ctx context.Context) error {
	sugar := c.logger.Sugar()
	sugar.Infow("Starting calculator workers...", zap.Int("workers", c.workers))
	defer sugar.Info("Calculator workers stopped.")

	var wg sync.WaitGroup
	wg.Add(c.workers)
	for i := 0; i < c.workers; i++ {
		go func(id int) {
			defer wg.Done()
			c.work(ctx, id)
		}(i)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return context.Canceled
	}
	return nil
}

func (c *Calculator) work(ctx context.Context, id int) {
	logger := c.logger.With(zap.Int("worker", id))
	for {
		select {
		case seg, ok := <-c.input:
			if !ok {
				logger.Debug("Calculator input channel closed.")
				return
			}
			result := c.Process(seg)
			select {
			case c.output <- result:
			case <-ctx.Done():
				logger.Debug("Context cancelled while sending result downstream.", zap.Error(ctx.Err()))
				return
			}

		case <-ctx.Done():
			logger.Debug("Context cancelled, stopping worker.", zap.Error(ctx.Err()))
			return
		}
	}
}

// Process computes every feature family of one segment.
func (c *Calculator) Process(seg *message.Decoded) SegmentResult {
	start := time.Now()
	computed := c.assembler.Compute(seg.Input)
	rows := message.Rows(seg.SubjectID, seg.SegmentID, computed.Features())

	result := SegmentResult{
		SubjectID: seg.SubjectID,
		SegmentID: seg.SegmentID,
		Rows:      rows,
		Families:  familiesOf(rows),
		Duration:  time.Since(start),
	}
	recordResult(result)

	if result.Empty() {
		c.logger.Info("Segment produced no features",
			zap.String("subject_id", seg.SubjectID),
			zap.String("segment_id", seg.SegmentID),
		)
	} else {
		c.logger.Debug("Segment processed",
			zap.String("subject_id", seg.SubjectID),
			zap.String("segment_id", seg.SegmentID),
			zap.Int("rows", len(rows)),
			zap.Strings("families", result.Families),
			zap.Duration("duration", result.Duration),
		)
	}
	return result
}
