package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/middrag/middrag/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "middrag.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func event(at time.Time, dir, action, outcome string) *models.GestureEvent {
	return &models.GestureEvent{
		Timestamp:     at,
		RunID:         "run-1",
		Direction:     dir,
		Action:        action,
		Outcome:       outcome,
		DisplayServer: "x11",
	}
}

func TestCreateAndQuery(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	require.NoError(t, repo.Create(event(now.Add(-2*time.Hour), "left", "switch-prev-app", "switched")))
	require.NoError(t, repo.Create(event(now.Add(-time.Hour), "left", "switch-prev-app", "boundary")))
	require.NoError(t, repo.Create(event(now, "down", "show-desktop", "failed")))

	events, err := repo.GetEventsSince(now.Add(-90*time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "boundary", events[0].Outcome)

	limited, err := repo.GetEventsSince(now.Add(-3*time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	assert.Equal(t, "show-desktop", latest.Action)

	byID, err := repo.GetByID(latest.ID)
	require.NoError(t, err)
	assert.Equal(t, "down", byID.Direction)
}

func TestSummaries(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	for _, e := range []*models.GestureEvent{
		event(now, "left", "switch-prev-app", "switched"),
		event(now, "left", "switch-prev-app", "switched"),
		event(now, "left", "switch-prev-app", "boundary"),
		event(now, "up", "mission-control", "fired"),
		event(now, "down", "show-desktop", "failed"),
	} {
		require.NoError(t, repo.Create(e))
	}

	actions, err := repo.GetActionSummarySince(now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, models.ActionSummary{Action: "switch-prev-app", EventCount: 3, Switched: 2, Boundary: 1}, actions[0])

	dirs, err := repo.GetDirectionSummarySince(now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, dirs, 3)
	assert.Equal(t, "left", dirs[0].Direction)
	assert.Equal(t, 3, dirs[0].EventCount)
}

func TestErrorLogAndClear(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	require.NoError(t, repo.Create(event(now, "up", "launchpad", "failed")))
	require.NoError(t, repo.CreateErrorLog(&models.ErrorLog{Timestamp: now, Source: "dispatch", ErrorMsg: "open: not found"}))

	logs, err := repo.GetErrorsSince(now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "dispatch", logs[0].Source)

	require.NoError(t, repo.Clear())

	latest, err := repo.GetLatest()
	require.NoError(t, err)
	assert.Nil(t, latest)

	logs, err = repo.GetErrorsSince(now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestDeleteOldEvents(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	require.NoError(t, repo.Create(event(now.AddDate(0, 0, -40), "left", "switch-prev-app", "switched")))
	require.NoError(t, repo.Create(event(now, "left", "switch-prev-app", "switched")))

	n, err := repo.DeleteOldEvents(now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDefaultPathCreatesDir(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "middrag", "middrag.db"), path)
	assert.DirExists(t, filepath.Join(base, "middrag"))
}

func TestConnectDefaultPath(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	db, err := Connect("")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Initialize())
	assert.FileExists(t, filepath.Join(base, "middrag", "middrag.db"))
}

func TestConnectUsesWAL(t *testing.T) {
	db, err := Connect(filepath.Join(t.TempDir(), "middrag.db"))
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)
}
