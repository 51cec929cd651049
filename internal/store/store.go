package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mvbarbosa/docpipe/internal/models"
	"github.com/mvbarbosa/docpipe/internal/retry"
)

// ErrJobNotFound is returned when an operation names a job id that is not in
// the store. Callers treat it as a recoverable anomaly, not a fatal error.
var ErrJobNotFound = errors.New("job not found")

// Store is the durable record of jobs and the single source of truth for
// status transitions. Every operation runs under one process-wide mutex: the
// backend is a single-writer embedded database, so each call is atomic on its
// own, but nothing holds between two separate calls.
type Store struct {
	mu     sync.Mutex
	db     *gorm.DB
	log    *slog.Logger
	policy retry.Policy
}

// New migrates the schema and wraps the connection. policy governs how Fail
// decides between requeue and permanent failure.
func New(db *gorm.DB, log *slog.Logger, policy retry.Policy) (*Store, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db, log: log, policy: policy}, nil
}

// Add inserts a new pending job. ID collisions are prevented by the UUID
// generator, not by this call.
func (s *Store) Add(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		s.log.Error("failed to add job", "job_id", job.ID, "error", err)
		return fmt.Errorf("add job: %w", err)
	}
	s.log.Info("job added", "job_id", job.ID, "filename", job.Filename)
	return nil
}

// Get returns a job by id.
func (s *Store) Get(ctx context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var job models.Job
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// HasPending is a cheap existence check the scheduler uses before paying for
// a full claim query.
func (s *Store) HasPending(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("status = ?", models.StatusPending).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return false, fmt.Errorf("check pending jobs: %w", err)
	}
	return len(ids) > 0, nil
}

// ClaimNext atomically selects the oldest pending job (ties broken by id) and
// moves it to processing, stamping started_at. Returns (nil, nil) when the
// queue is empty. The store mutex guarantees no two callers claim the same job.
func (s *Store) ClaimNext(ctx context.Context) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var job models.Job
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Order("created_at ASC, id ASC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim next job: %w", err)
	}

	now := time.Now().UnixNano()
	res := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", job.ID, models.StatusPending).
		Updates(map[string]any{"status": models.StatusProcessing, "started_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("claim next job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	job.Status = models.StatusProcessing
	job.StartedAt = &now
	s.log.Info("job claimed", "job_id", job.ID, "filename", job.Filename, "retry_count", job.RetryCount)
	return &job, nil
}

// Complete moves a processing job to completed and stores its result map.
func (s *Store) Complete(ctx context.Context, id string, result map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("complete job: encode result: %w", err)
	}

	res := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", id, models.StatusProcessing).
		Updates(map[string]any{
			"status":       models.StatusCompleted,
			"completed_at": time.Now().UnixNano(),
			"result":       datatypes.JSON(payload),
		})
	if res.Error != nil {
		s.log.Error("failed to complete job", "job_id", id, "error", res.Error)
		return fmt.Errorf("complete job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("complete job: %w: %s (not processing)", ErrJobNotFound, id)
	}
	s.log.Info("job completed", "job_id", id)
	return nil
}

// Fail records a failed attempt. Depending on the retry policy the job is
// either requeued with retry_count+1 and a cleared started_at, or marked
// failed with completed_at stamped. A missing id is logged and reported, not
// fatal.
func (s *Store) Fail(ctx context.Context, id, errorMessage string) (retry.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var job models.Job
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error("job not found for failure", "job_id", id)
			return retry.PermanentFailure, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return retry.PermanentFailure, fmt.Errorf("fail job: %w", err)
	}

	decision := s.policy.Decide(job.RetryCount)
	if decision == retry.Requeue {
		res := s.db.WithContext(ctx).
			Model(&models.Job{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"status":        models.StatusPending,
				"retry_count":   job.RetryCount + 1,
				"error_message": errorMessage,
				"started_at":    nil,
			})
		if res.Error != nil {
			return decision, fmt.Errorf("requeue job: %w", res.Error)
		}
		s.log.Info("job requeued for retry",
			"job_id", id, "attempt", job.RetryCount+1, "max_retries", s.policy.MaxRetries)
		return decision, nil
	}

	res := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        models.StatusFailed,
			"completed_at":  time.Now().UnixNano(),
			"error_message": errorMessage,
		})
	if res.Error != nil {
		return decision, fmt.Errorf("fail job: %w", res.Error)
	}
	s.log.Error("job failed permanently",
		"job_id", id, "retry_count", job.RetryCount, "error", errorMessage)
	return decision, nil
}

// ListCompleted returns all completed jobs, oldest completion first.
func (s *Store) ListCompleted(ctx context.Context) ([]models.Job, error) {
	return s.listByStatus(ctx, models.StatusCompleted)
}

// ListFailed returns all permanently failed jobs, oldest completion first.
func (s *Store) ListFailed(ctx context.Context) ([]models.Job, error) {
	return s.listByStatus(ctx, models.StatusFailed)
}

func (s *Store) listByStatus(ctx context.Context, status models.Status) ([]models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("completed_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list %s jobs: %w", status, err)
	}
	return jobs, nil
}

// Remove deletes a job entirely. Removing a missing id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Delete(&models.Job{}, "id = ?", id).Error; err != nil {
		s.log.Error("failed to remove job", "job_id", id, "error", err)
		return fmt.Errorf("remove job: %w", err)
	}
	return nil
}

// CleanupOlderThan deletes completed and failed jobs whose completion is
// older than the given age. Pending and processing jobs are never touched.
func (s *Store) CleanupOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-age).UnixNano()
	res := s.db.WithContext(ctx).
		Where("status IN ? AND completed_at < ?",
			[]models.Status{models.StatusCompleted, models.StatusFailed}, cutoff).
		Delete(&models.Job{})
	if res.Error != nil {
		return 0, fmt.Errorf("cleanup old jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ReclaimStale requeues every processing job. Run once at startup, before the
// loops begin, so jobs orphaned by an unclean shutdown are not stuck forever.
func (s *Store) ReclaimStale(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("status = ?", models.StatusProcessing).
		Updates(map[string]any{"status": models.StatusPending, "started_at": nil})
	if res.Error != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Stats returns the number of jobs per status, with zeroes for empty states.
func (s *Store) Stats(ctx context.Context) (map[models.Status]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []struct {
		Status models.Status
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	stats := make(map[models.Status]int64, len(models.Statuses))
	for _, status := range models.Statuses {
		stats[status] = 0
	}
	for _, row := range rows {
		stats[row.Status] = row.Count
	}
	return stats, nil
}
