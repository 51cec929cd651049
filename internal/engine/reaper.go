package engine

import (
	"context"
	"time"
)

// reap deletes terminal jobs older than the retention window. It is the
// safety net for jobs whose origin can never be reached; pending and
// processing jobs are never touched regardless of age.
func (e *Engine) reap() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := e.store.CleanupOlderThan(ctx, e.cfg.RetentionAge)
	if err != nil {
		e.log.Error("cleanup of old jobs failed", "error", err)
		return
	}
	if removed > 0 {
		e.log.Info("cleaned up old terminal jobs", "count", removed, "retention", e.cfg.RetentionAge)
	}
}
