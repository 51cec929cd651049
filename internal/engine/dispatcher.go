package engine

import (
	"context"
	"time"

	"github.com/mvbarbosa/docpipe/internal/models"
)

// runDispatcher drains terminal jobs from the store and posts them back to
// their origin. A job is removed only after delivery succeeds, so a failed
// delivery is simply retried on the next cycle; delivery retries are
// unbounded. The cycle delay doubles while there is nothing to deliver.
func (e *Engine) runDispatcher(ctx context.Context) {
	defer e.wg.Done()
	e.log.Info("dispatcher started")

	delay := e.cfg.DispatchInterval
	for {
		select {
		case <-ctx.Done():
			e.log.Info("dispatcher stopped")
			return
		case <-time.After(delay):
		}

		if e.dispatchOnce(ctx) > 0 {
			delay = e.cfg.DispatchInterval
		} else {
			delay = min(delay*2, e.cfg.DispatchMaxInterval)
		}
	}
}

// dispatchOnce delivers every currently terminal job and reports how many
// were delivered and removed.
func (e *Engine) dispatchOnce(ctx context.Context) int {
	var drained []models.Job

	completed, err := e.store.ListCompleted(ctx)
	if err != nil {
		e.log.Error("failed to list completed jobs", "error", err)
	} else {
		drained = append(drained, completed...)
	}

	failed, err := e.store.ListFailed(ctx)
	if err != nil {
		e.log.Error("failed to list failed jobs", "error", err)
	} else {
		drained = append(drained, failed...)
	}

	delivered := 0
	for i := range drained {
		job := &drained[i]
		if ctx.Err() != nil {
			return delivered
		}
		if err := e.deliverer.Deliver(ctx, job); err != nil {
			e.log.Warn("delivery failed, job stays queued",
				"job_id", job.ID, "status", job.Status, "error", err)
			continue
		}
		if err := e.store.Remove(ctx, job.ID); err != nil {
			e.log.Error("failed to remove delivered job", "job_id", job.ID, "error", err)
			continue
		}
		e.vault.Delete(job.ID)
		delivered++
		e.log.Info("job delivered", "job_id", job.ID, "status", job.Status)
	}
	return delivered
}
