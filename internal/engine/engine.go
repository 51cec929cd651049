package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mvbarbosa/docpipe/internal/analyze"
	"github.com/mvbarbosa/docpipe/internal/deliver"
	"github.com/mvbarbosa/docpipe/internal/models"
	"github.com/mvbarbosa/docpipe/internal/payload"
	"github.com/mvbarbosa/docpipe/internal/store"
)

// ErrEmptyPayload is returned by Enqueue for a document with no bytes.
var ErrEmptyPayload = errors.New("document payload is empty")

// Config carries the engine's timing knobs. Zero values fall back to
// defaults suitable for production; tests shrink them.
type Config struct {
	PollInterval        time.Duration
	IdlePollInterval    time.Duration
	IdleThreshold       int
	JobTimeout          time.Duration
	DispatchInterval    time.Duration
	DispatchMaxInterval time.Duration
	ReapSchedule        string
	RetentionAge        time.Duration
	MaxResultChars      int
}

func (c *Config) withDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.IdlePollInterval <= 0 {
		c.IdlePollInterval = 10 * time.Second
	}
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = 5
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 2 * time.Minute
	}
	if c.DispatchInterval <= 0 {
		c.DispatchInterval = 2 * time.Second
	}
	if c.DispatchMaxInterval <= 0 {
		c.DispatchMaxInterval = 30 * time.Second
	}
	if c.ReapSchedule == "" {
		c.ReapSchedule = "@hourly"
	}
	if c.RetentionAge <= 0 {
		c.RetentionAge = 24 * time.Hour
	}
}

// Engine owns the three background loops (scheduler, dispatcher, reaper) and
// the enqueue entry point. It is the only writer of the payload vault once a
// job has been accepted.
type Engine struct {
	log       *slog.Logger
	store     *store.Store
	vault     *payload.Vault
	orch      *analyze.Orchestrator
	deliverer deliver.Deliverer
	cfg       Config

	cron   *cron.Cron
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(log *slog.Logger, st *store.Store, vault *payload.Vault, orch *analyze.Orchestrator, deliverer deliver.Deliverer, cfg Config) *Engine {
	cfg.withDefaults()
	return &Engine{
		log:       log,
		store:     st,
		vault:     vault,
		orch:      orch,
		deliverer: deliverer,
		cfg:       cfg,
	}
}

// EnqueueRequest is one inbound document plus the references the deliverer
// needs to route the result back.
type EnqueueRequest struct {
	Filename  string
	SourceURL string
	Origin    string
	EventRef  string
	Data      []byte
}

// Enqueue accepts a document, parks its bytes in the vault, and persists a
// pending job. It returns the new job's id.
func (e *Engine) Enqueue(ctx context.Context, req EnqueueRequest) (string, error) {
	if len(req.Data) == 0 {
		return "", ErrEmptyPayload
	}

	job := models.NewJob(req.Filename, req.SourceURL, req.Origin, req.EventRef)
	e.vault.Put(job.ID, req.Data)
	if err := e.store.Add(ctx, job); err != nil {
		e.vault.Delete(job.ID)
		return "", err
	}
	return job.ID, nil
}

// GetJob returns the stored job record.
func (e *Engine) GetJob(ctx context.Context, id string) (*models.Job, error) {
	return e.store.Get(ctx, id)
}

// Stats returns the per-status job counts.
func (e *Engine) Stats(ctx context.Context) (map[models.Status]int64, error) {
	return e.store.Stats(ctx)
}

// Start reclaims jobs orphaned by an unclean shutdown, then launches the
// scheduler, dispatcher, and reaper.
func (e *Engine) Start(ctx context.Context) error {
	reclaimed, err := e.store.ReclaimStale(ctx)
	if err != nil {
		return fmt.Errorf("reclaim stale jobs: %w", err)
	}
	if reclaimed > 0 {
		e.log.Warn("reclaimed stale processing jobs from previous run", "count", reclaimed)
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.wg.Add(2)
	go e.runScheduler(runCtx)
	go e.runDispatcher(runCtx)

	e.cron = cron.New()
	if _, err := e.cron.AddFunc(e.cfg.ReapSchedule, e.reap); err != nil {
		cancel()
		return fmt.Errorf("schedule reaper %q: %w", e.cfg.ReapSchedule, err)
	}
	e.cron.Start()

	e.log.Info("engine started",
		"poll_interval", e.cfg.PollInterval,
		"dispatch_interval", e.cfg.DispatchInterval,
		"reap_schedule", e.cfg.ReapSchedule)
	return nil
}

// Stop halts the loops and waits for any in-flight job to settle. A job that
// is mid-analysis finishes within its own timeout and persists its outcome;
// anything still processing after that is reclaimed on the next start.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	if e.cron != nil {
		<-e.cron.Stop().Done()
	}
	e.wg.Wait()
	e.log.Info("engine stopped")
}
