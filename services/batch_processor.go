package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Reprocessor is implemented by InteractionService.
type Reprocessor interface {
	Reprocess(ctx context.Context) (int, error)
}

// BatchProcessor repairs fallback records on a cron schedule.
type BatchProcessor struct {
	svc     Reprocessor
	cron    *cron.Cron
	timeout time.Duration
}

// NewBatchProcessor validates schedule (standard cron spec or "@every 10m")
// and registers the reprocess job. Start must be called to begin running it.
func NewBatchProcessor(svc Reprocessor, schedule string, timeout time.Duration) (*BatchProcessor, error) {
	bp := &BatchProcessor{
		svc:     svc,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		timeout: timeout,
	}
	if _, err := bp.cron.AddFunc(schedule, bp.runScheduled); err != nil {
		return nil, errors.Wrapf(err, "invalid reprocess schedule %q", schedule)
	}
	return bp, nil
}

// ProcessOnce runs a single reprocess pass.
func (bp *BatchProcessor) ProcessOnce(ctx context.Context) (int, error) {
	if bp.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bp.timeout)
		defer cancel()
	}
	n, err := bp.svc.Reprocess(ctx)
	if err != nil {
		return n, errors.Wrap(err, "reprocess failed")
	}
	slog.Info("batch processing completed", "repaired", n)
	return n, nil
}

func (bp *BatchProcessor) runScheduled() {
	slog.Info("starting scheduled batch processing")
	if _, err := bp.ProcessOnce(context.Background()); err != nil {
		slog.Error("scheduled batch processing failed", "error", err)
	}
}

func (bp *BatchProcessor) Start() { bp.cron.Start() }

// Stop halts scheduling and waits for a running job to finish or ctx to end.
func (bp *BatchProcessor) Stop(ctx context.Context) {
	done := bp.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
