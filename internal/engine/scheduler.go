package engine

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/mvbarbosa/docpipe/internal/models"
	"github.com/mvbarbosa/docpipe/internal/retry"
)

// runScheduler claims pending jobs one at a time and runs them through the
// orchestrator. The poll interval backs off after IdleThreshold consecutive
// empty polls and snaps back the moment a job is found.
func (e *Engine) runScheduler(ctx context.Context) {
	defer e.wg.Done()
	e.log.Info("scheduler started")

	emptyPolls := 0
	for {
		interval := e.cfg.PollInterval
		if emptyPolls >= e.cfg.IdleThreshold {
			interval = e.cfg.IdlePollInterval
		}

		select {
		case <-ctx.Done():
			e.log.Info("scheduler stopped")
			return
		case <-time.After(interval):
		}

		// Cheap pre-check; ClaimNext remains the authority.
		pending, err := e.store.HasPending(ctx)
		if err != nil {
			e.log.Error("failed to check pending jobs", "error", err)
			continue
		}
		if !pending {
			emptyPolls++
			continue
		}

		job, err := e.store.ClaimNext(ctx)
		if err != nil {
			e.log.Error("failed to claim next job", "error", err)
			continue
		}
		if job == nil {
			emptyPolls++
			continue
		}
		emptyPolls = 0
		e.process(job)
	}
}

// process runs one claimed job end to end. It is bounded by its own timeout,
// detached from the loop context, so an analysis already in flight during
// shutdown can finish and persist its outcome.
func (e *Engine) process(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.JobTimeout)
	defer cancel()

	log := e.log.With("job_id", job.ID, "filename", job.Filename)

	data, ok := e.vault.Get(job.ID)
	if !ok {
		log.Error("payload missing from in-memory vault")
		e.fail(ctx, job.ID, "document payload is no longer available (process restarted before the job ran)")
		return
	}

	result, err := e.orch.Run(ctx, data)
	if err != nil {
		log.Warn("analysis attempt failed", "retry_count", job.RetryCount, "error", err)
		e.fail(ctx, job.ID, err.Error())
		return
	}

	truncateResults(result, e.cfg.MaxResultChars)
	if err := e.store.Complete(ctx, job.ID, result); err != nil {
		log.Error("failed to record job completion", "error", err)
		return
	}
	e.vault.Delete(job.ID)
	log.Info("job analysis completed", "providers", len(result))
}

// fail records the attempt failure and releases the payload only when the
// job will never run again; a requeued job still needs its bytes.
func (e *Engine) fail(ctx context.Context, id, message string) {
	decision, err := e.store.Fail(ctx, id, message)
	if err != nil {
		e.log.Error("failed to record job failure", "job_id", id, "error", err)
		return
	}
	if decision == retry.PermanentFailure {
		e.vault.Delete(id)
	}
}

// truncateResults bounds each stored result text, cutting on a rune boundary.
func truncateResults(result map[string]string, maxChars int) {
	if maxChars <= 0 {
		return
	}
	for name, text := range result {
		if len(text) <= maxChars {
			continue
		}
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		result[name] = text[:cut]
	}
}
