package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"task-calendar/internal/models"
	"task-calendar/internal/resolver"
	"task-calendar/internal/store"
)

const testDBFile = "test_cache.db"

func setupTestDB(t *testing.T) *gorm.DB {
	_ = os.Remove(testDBFile)

	gormDB, err := gorm.Open(sqlite.Open(testDBFile), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := gormDB.AutoMigrate(Models()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return gormDB
}

func teardownTestDB(gormDB *gorm.DB, t *testing.T) {
	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			t.Logf("Warning: could not close test DB: %v", err)
		}
	}
	if err := os.Remove(testDBFile); err != nil && !os.IsNotExist(err) {
		t.Logf("Warning: could not remove test DB file: %v", err)
	}
}

func at(h, m int) models.Timestamp {
	return models.At(time.Date(2024, 1, 10, h, m, 0, 0, time.UTC))
}

func sampleSnapshot() store.Snapshot {
	return store.Snapshot{
		Tasks: []models.Task{{
			ID:       "T1",
			Title:    "Deep work",
			Status:   models.StatusInProgress,
			Settings: map[string]any{"recurrence": map[string]any{"S1": map[string]any{"pattern": "daily", "interval": float64(1)}}},
			Schedules: []models.Schedule{{
				ID: "S1", TaskID: "T1", StartTime: at(3, 0), EndTime: at(5, 0),
				Logs: []models.Log{{ID: "L1", ScheduleID: "S1", TaskID: "T1", StartTime: at(3, 5)}},
			}},
		}},
		Schedules: []models.Schedule{{ID: "S2", TaskID: "T1", StartTime: at(6, 0), EndTime: at(7, 0)}},
		Logs:      []models.Log{{ID: "L2", ScheduleID: "S2", TaskID: "T1", StartTime: at(6, 0), EndTime: at(6, 40), Remarks: "ok"}},
		Events:    []models.Event{{ID: "E1", Title: "Lunch", StartTime: at(7, 0), Indicators: map[string]any{"remarks": "x"}}},
		Selected:  "T1",
	}
}

func TestSnapshotRepository_EmptyLoad(t *testing.T) {
	gormDB := setupTestDB(t)
	defer teardownTestDB(gormDB, t)

	_, _, ok, err := NewSnapshotRepository(gormDB).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshotRepository_RoundTripThroughStore(t *testing.T) {
	gormDB := setupTestDB(t)
	defer teardownTestDB(gormDB, t)
	repo := NewSnapshotRepository(gormDB)
	ctx := context.Background()

	original := store.New()
	original.Load(sampleSnapshot())
	require.NoError(t, repo.Save(ctx, original.Snapshot()))

	snap, savedAt, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, savedAt.IsZero())

	restored := store.New()
	restored.Load(snap)

	assert.Equal(t, models.ID("T1"), snap.Selected)
	task, found := restored.Task("T1")
	require.True(t, found)
	assert.Equal(t, "Deep work", task.Title)
	assert.Equal(t, "daily", task.Settings["recurrence"].(map[string]any)["S1"].(map[string]any)["pattern"])
	require.Len(t, task.Schedules, 2)

	l1, found := restored.Log("L1")
	require.True(t, found)
	assert.True(t, l1.Running())

	l2, found := restored.Log("L2")
	require.True(t, found)
	assert.True(t, l2.EndTime.Equal(at(6, 40)))
	assert.Equal(t, "ok", l2.Remarks)

	flat := restored.Schedules()
	require.Len(t, flat, 1)
	assert.Equal(t, models.ID("S2"), flat[0].ID)
	require.Len(t, restored.Logs(), 1)

	events := restored.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].EndTime.Valid)
	assert.Equal(t, "x", events[0].Indicators["remarks"])
}

func scheduleIDs(task models.Task) []models.ID {
	ids := make([]models.ID, 0, len(task.Schedules))
	for _, s := range task.Schedules {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestSnapshotRepository_KeepsScheduleAndLogOrder(t *testing.T) {
	gormDB := setupTestDB(t)
	defer teardownTestDB(gormDB, t)
	repo := NewSnapshotRepository(gormDB)
	ctx := context.Background()

	// only the first schedule and the last log fall inside the windowed flat views
	logs := []models.Log{
		{ID: "La", ScheduleID: "S0", TaskID: "T1", StartTime: at(9, 0), EndTime: at(9, 20)},
		{ID: "Lb", ScheduleID: "S0", TaskID: "T1", StartTime: at(9, 30), EndTime: at(9, 50)},
	}
	today := models.Schedule{ID: "S0", TaskID: "T1", StartTime: at(9, 0), EndTime: at(10, 0), Logs: logs}
	later := models.Schedule{ID: "S1", TaskID: "T1", StartTime: models.At(time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)), EndTime: models.At(time.Date(2024, 1, 12, 10, 0, 0, 0, time.UTC))}
	original := store.New()
	original.Load(store.Snapshot{
		Tasks:     []models.Task{{ID: "T1", Title: "Deep work", Status: models.StatusInProgress, Schedules: []models.Schedule{today, later}}},
		Schedules: []models.Schedule{today},
		Logs:      logs[1:],
	})
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	before, _ := original.Task("T1")
	current, ok := resolver.ResolveCurrentSchedule(before, now)
	require.True(t, ok)
	require.Equal(t, models.ID("S0"), current.ID)

	require.NoError(t, repo.Save(ctx, original.Snapshot()))
	snap, _, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	restored := store.New()
	restored.Load(snap)
	after, found := restored.Task("T1")
	require.True(t, found)
	assert.Equal(t, []models.ID{"S0", "S1"}, scheduleIDs(after))

	current, ok = resolver.ResolveCurrentSchedule(after, now)
	require.True(t, ok)
	assert.Equal(t, models.ID("S0"), current.ID)

	sched, found := restored.Schedule("S0")
	require.True(t, found)
	require.Len(t, sched.Logs, 2)
	assert.Equal(t, models.ID("La"), sched.Logs[0].ID)
	assert.Equal(t, models.ID("Lb"), sched.Logs[1].ID)
	require.Len(t, restored.Schedules(), 1)
	require.Len(t, restored.Logs(), 1)
}

func TestSnapshotRepository_SaveReplaces(t *testing.T) {
	gormDB := setupTestDB(t)
	defer teardownTestDB(gormDB, t)
	repo := NewSnapshotRepository(gormDB)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleSnapshot()))
	require.NoError(t, repo.Save(ctx, store.Snapshot{Tasks: []models.Task{{ID: "T9", Title: "Only"}}}))

	snap, _, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, models.ID("T9"), snap.Tasks[0].ID)
	assert.Empty(t, snap.Schedules)
	assert.Empty(t, snap.Logs)
	assert.Empty(t, snap.Events)
	assert.True(t, snap.Selected.IsZero())
}

func TestAnalyticsRepository(t *testing.T) {
	gormDB := setupTestDB(t)
	defer teardownTestDB(gormDB, t)
	repo := NewAnalyticsRepository(gormDB)
	ctx := context.Background()

	short := models.Log{ID: "L1", TaskID: "T1", ScheduleID: "S1", StartTime: at(4, 0), EndTime: at(4, 2)}
	long := models.Log{ID: "L2", TaskID: "T1", ScheduleID: "S1", StartTime: at(5, 0), EndTime: at(6, 0)}
	other := models.Log{ID: "L3", TaskID: "T2", ScheduleID: "S9", StartTime: at(5, 0), EndTime: at(5, 30)}
	running := models.Log{ID: "L4", TaskID: "T2", StartTime: at(8, 0)}

	require.NoError(t, repo.Record(ctx, short, "Work"))
	require.NoError(t, repo.Record(ctx, long, "Work"))
	require.NoError(t, repo.Record(ctx, other, "Health"))
	require.NoError(t, repo.Record(ctx, running, "Health"))
	// recording again replaces rather than duplicates
	long.EndTime = at(6, 30)
	require.NoError(t, repo.Record(ctx, long, "Work"))

	totals, err := repo.DailyTotals(ctx, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "T1", totals[0].TaskID)
	assert.Equal(t, 92, totals[0].Minutes, "short logs count with their real length")
	assert.Equal(t, 2, totals[0].Logs)
	assert.Equal(t, "T2", totals[1].TaskID)
	assert.Equal(t, 30, totals[1].Minutes)

	var count int64
	require.NoError(t, gormDB.Model(&LogAnalytics{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	none, err := repo.DailyTotals(ctx, time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, none)
}
