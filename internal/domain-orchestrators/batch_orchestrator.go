package orchestrators

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/saori-resized-png-mini/internal/domain/entities"
	"github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces"
	domainservices "github.com/ochairo/saori-resized-png-mini/internal/domain/interfaces/services"
)

// Progress receives batch progress updates. Implementations must be safe for
// concurrent use.
type Progress interface {
	Start(total int)
	Increment()
	Finish()
}

// BatchJob is one conversion of a batch
type BatchJob struct {
	Src  string
	Dst  string
	Size entities.SizeCommand
}

// BatchOutcome is the result of one job
type BatchOutcome struct {
	Job      BatchJob
	Err      error
	Kind     entities.FailureKind
	Duration time.Duration
}

// BatchResult contains the outcomes in job order
type BatchResult struct {
	Outcomes  []BatchOutcome
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Failures returns the outcomes that carry an error
func (r *BatchResult) Failures() []BatchOutcome {
	var failed []BatchOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// GetBatchSummary returns a one-line summary of the batch
func (r *BatchResult) GetBatchSummary() string {
	return fmt.Sprintf("%d converted, %d failed in %s",
		r.Succeeded, r.Failed, r.Duration.Round(time.Millisecond))
}

// BatchOrchestrator converts many images with bounded concurrency
type BatchOrchestrator struct {
	converter domainservices.Converter
	logger    interfaces.Logger
}

// NewBatchOrchestrator creates a new batch orchestrator
func NewBatchOrchestrator(converter domainservices.Converter, logger interfaces.Logger) *BatchOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &BatchOrchestrator{
		converter: converter,
		logger:    logger,
	}
}

// Convert runs every job with at most workers conversions in flight
// (workers <= 0 uses GOMAXPROCS). A failing job never stops the others;
// the returned error is only set when ctx is cancelled.
func (o *BatchOrchestrator) Convert(ctx context.Context, jobs []BatchJob, workers int, progress Progress) (*BatchResult, error) {
	start := time.Now()
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	result := &BatchResult{Outcomes: make([]BatchOutcome, len(jobs))}
	if progress != nil {
		progress.Start(len(jobs))
		defer progress.Finish()
	}

	o.logger.Info("batch started", interfaces.F("jobs", len(jobs)), interfaces.F("workers", workers))

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for i, job := range jobs {
		if ctx.Err() != nil {
			result.Outcomes[i] = BatchOutcome{Job: job, Err: ctx.Err(), Kind: entities.FailureIO}
			continue
		}

		i, job := i, job
		g.Go(func() error {
			jobStart := time.Now()
			err := o.converter.ToResizedPNG(ctx, job.Src, job.Dst, job.Size)
			outcome := BatchOutcome{
				Job:      job,
				Err:      err,
				Kind:     entities.KindOf(err),
				Duration: time.Since(jobStart),
			}

			if err != nil {
				o.logger.Warn("conversion failed",
					interfaces.F("src", job.Src),
					interfaces.F("kind", outcome.Kind.String()),
					interfaces.F("error", err))
			}

			mu.Lock()
			result.Outcomes[i] = outcome
			mu.Unlock()

			if progress != nil {
				progress.Increment()
			}
			return nil
		})
	}

	//nolint:errcheck // Workers always return nil; failures live in the outcomes
	g.Wait()

	for _, outcome := range result.Outcomes {
		if outcome.Err != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}
	result.Duration = time.Since(start)

	o.logger.Info("batch finished",
		interfaces.F("succeeded", result.Succeeded),
		interfaces.F("failed", result.Failed),
		interfaces.F("duration", result.Duration.String()))

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("batch cancelled: %w", err)
	}
	return result, nil
}
