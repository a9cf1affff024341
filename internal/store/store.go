// Package store persists job state in SQLite so submitted work survives a
// process restart and clients can poll results after the fact.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"mebbisauto/internal/logger"
)

// JobStatus is a job's lifecycle state.
type JobStatus string

const (
	StatusWaiting   JobStatus = "waiting"
	StatusActive    JobStatus = "active"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// ErrJobNotFound reports an unknown job id.
var ErrJobNotFound = errors.New("iş kaydı bulunamadı")

// Job is one unit of queued work. Payload and Result hold JSON as the
// caller produced it; the store does not interpret them.
type Job struct {
	ID       string    `gorm:"primaryKey" json:"id"`
	Kind     string    `gorm:"index" json:"kind"`
	Status   JobStatus `gorm:"index" json:"status"`
	Progress int       `json:"progress"`
	Total    int       `json:"total"`

	Payload string `json:"-"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Store is the SQLite-backed job store.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the job database at dsn and migrates the
// schema.
func Open(dsn string, l logger.Logger) (*Store, error) {
	if l == nil {
		l = logger.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: NewGormLogger(l)})
	if err != nil {
		return nil, fmt.Errorf("iş veritabanı açılamadı: %w", err)
	}
	if err := db.AutoMigrate(&Job{}); err != nil {
		return nil, fmt.Errorf("iş veritabanı şeması kurulamadı: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Create inserts a new waiting job.
func (s *Store) Create(ctx context.Context, job *Job) error {
	job.Status = StatusWaiting
	return s.db.WithContext(ctx).Create(job).Error
}

// Get fetches a job by id.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	var job Job
	err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkActive transitions a job to active and stamps its start time.
func (s *Store) MarkActive(ctx context.Context, id string) error {
	now := time.Now()
	return s.update(ctx, id, map[string]any{
		"status":     StatusActive,
		"started_at": &now,
	})
}

// SetProgress updates an active job's progress counters.
func (s *Store) SetProgress(ctx context.Context, id string, current, total int) error {
	return s.update(ctx, id, map[string]any{
		"progress": current,
		"total":    total,
	})
}

// MarkCompleted finishes a job with its JSON result.
func (s *Store) MarkCompleted(ctx context.Context, id, result string) error {
	now := time.Now()
	return s.update(ctx, id, map[string]any{
		"status":      StatusCompleted,
		"result":      result,
		"finished_at": &now,
	})
}

// MarkFailed finishes a job with an error description.
func (s *Store) MarkFailed(ctx context.Context, id, detail string) error {
	now := time.Now()
	return s.update(ctx, id, map[string]any{
		"status":      StatusFailed,
		"error":       detail,
		"finished_at": &now,
	})
}

func (s *Store) update(ctx context.Context, id string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Recent lists the newest jobs, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []Job
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

// ResetStale marks jobs left active by a previous process run as failed.
// Called once at startup: an active job cannot have survived a restart.
func (s *Store) ResetStale(ctx context.Context) (int64, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&Job{}).
		Where("status IN ?", []JobStatus{StatusWaiting, StatusActive}).
		Updates(map[string]any{
			"status":      StatusFailed,
			"error":       "servis yeniden başlatıldı, iş yarıda kaldı",
			"finished_at": &now,
		})
	return res.RowsAffected, res.Error
}
