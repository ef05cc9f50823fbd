package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-calendar/internal/models"
	"task-calendar/internal/timewindow"
)

type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

// Record stores an ended log keyed by log id; recording the same log again
// overwrites the earlier row. Running logs are ignored.
func (r *AnalyticsRepository) Record(ctx context.Context, l models.Log, category string) error {
	if !l.StartTime.Valid || !l.EndTime.Valid {
		return nil
	}
	row := LogAnalytics{
		LogID:      l.ID.String(),
		TaskID:     l.TaskID.String(),
		ScheduleID: l.ScheduleID.String(),
		Category:   category,
		Day:        timewindow.FormatDay(l.StartTime.Time),
		StartTime:  l.StartTime.Time.UTC(),
		EndTime:    l.EndTime.Time.UTC(),
		Minutes:    timewindow.DurationMinutes(l.StartTime, l.EndTime),
	}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "log_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"task_id", "schedule_id", "category", "day", "start_time", "end_time", "minutes", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to record analytics for log %s: %w", l.ID, err)
	}
	return nil
}

// DailyTotal is the logged time for one task on one day.
type DailyTotal struct {
	TaskID   string `json:"task_id"`
	Category string `json:"category"`
	Minutes  int    `json:"minutes"`
	Logs     int    `json:"logs"`
}

// DailyTotals sums minutes per task for the display-zone day containing day.
func (r *AnalyticsRepository) DailyTotals(ctx context.Context, day time.Time) ([]DailyTotal, error) {
	var totals []DailyTotal
	err := r.DB.WithContext(ctx).
		Model(&LogAnalytics{}).
		Select("task_id, category, SUM(minutes) AS minutes, COUNT(*) AS logs").
		Where("day = ?", timewindow.FormatDay(day)).
		Group("task_id, category").
		Order("minutes DESC, task_id").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily totals: %w", err)
	}
	return totals, nil
}
