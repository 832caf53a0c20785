package database

import (
	"time"

	"github.com/middrag/middrag/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for the usage log
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new gesture event into the database
func (r *Repository) Create(event *models.GestureEvent) error {
	result := r.db.Create(event)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert gesture event")
	}
	return nil
}

// GetByID retrieves a gesture event by its ID
func (r *Repository) GetByID(id uint) (*models.GestureEvent, error) {
	var event models.GestureEvent
	result := r.db.First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get gesture event")
	}
	return &event, nil
}

// GetEventsSince retrieves gesture events since a given time, oldest first.
// limit <= 0 returns all of them.
func (r *Repository) GetEventsSince(since time.Time, limit int) ([]*models.GestureEvent, error) {
	var events []*models.GestureEvent
	q := r.db.Where("timestamp >= ?", since).Order("timestamp ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if result := q.Find(&events); result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query gesture events")
	}

	return events, nil
}

// GetActionSummarySince returns per-action counts since a given time
func (r *Repository) GetActionSummarySince(since time.Time) ([]models.ActionSummary, error) {
	var summaries []models.ActionSummary

	result := r.db.Model(&models.GestureEvent{}).
		Select(`action,
			COUNT(*) as event_count,
			SUM(CASE WHEN outcome = 'switched' THEN 1 ELSE 0 END) as switched,
			SUM(CASE WHEN outcome = 'boundary' THEN 1 ELSE 0 END) as boundary,
			SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END) as failed`).
		Where("timestamp >= ?", since).
		Group("action").
		Order("event_count DESC, action ASC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query action summary")
	}

	return summaries, nil
}

// GetDirectionSummarySince returns per-direction counts since a given time
func (r *Repository) GetDirectionSummarySince(since time.Time) ([]models.DirectionSummary, error) {
	var summaries []models.DirectionSummary

	result := r.db.Model(&models.GestureEvent{}).
		Select("direction, COUNT(*) as event_count").
		Where("timestamp >= ?", since).
		Group("direction").
		Order("event_count DESC, direction ASC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query direction summary")
	}

	return summaries, nil
}

// DeleteOldEvents deletes events older than a specified date (soft delete)
func (r *Repository) DeleteOldEvents(before time.Time) (int64, error) {
	result := r.db.Where("timestamp < ?", before).Delete(&models.GestureEvent{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete old events")
	}
	return result.RowsAffected, nil
}

// GetLatest retrieves the most recent gesture event
func (r *Repository) GetLatest() (*models.GestureEvent, error) {
	var event models.GestureEvent
	result := r.db.Order("timestamp DESC").First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest event")
	}
	return &event, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// GetErrorsSince retrieves error logs since a given time, newest first
func (r *Repository) GetErrorsSince(since time.Time) ([]*models.ErrorLog, error) {
	var logs []*models.ErrorLog
	result := r.db.Where("timestamp >= ?", since).Order("timestamp DESC").Find(&logs)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query error logs")
	}
	return logs, nil
}

// Clear removes all gesture events and error logs from the database
func (r *Repository) Clear() error {
	result := r.db.Exec("DELETE FROM gesture_events")
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear gesture events")
	}
	result = r.db.Exec("DELETE FROM error_logs")
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear error logs")
	}
	return nil
}
