package database_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/dayplanbot/internal/database"
	"github.com/edgard/dayplanbot/internal/tracker"
)

func sampleStates() map[string]*tracker.ChannelState {
	st := tracker.NewChannelState()
	st.AddTask("Read")
	st.AddTask("Write")
	st.Tasks[0].Completed = true
	st.Days = 2
	st.Redistribute(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	return map[string]*tracker.ChannelState{
		"123": st,
		"456": tracker.NewChannelState(),
	}
}

func TestFileRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("missing file loads empty", func(t *testing.T) {
		t.Parallel()
		repo := database.NewFileRepository(filepath.Join(t.TempDir(), "tasks.json"), nil)
		states, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, states)
	})

	t.Run("save then load", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "tasks.json")
		repo := database.NewFileRepository(path, nil)

		require.NoError(t, repo.Save(ctx, sampleStates()))

		states, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, sampleStates(), states)

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temporary files left behind")
	})

	t.Run("reads the legacy layout", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "tasks.json")
		legacy := `{
    "987": {
        "tasks": [{"id": 1, "name": "Read", "completed": false}, {"id": 2, "name": "Run", "completed": true}],
        "days": 3,
        "setup_mode": false,
        "daily_tasks": {"day1": [1], "day2": [], "day3": []},
        "current_day": 1,
        "start_date": "2024-04-02"
    }
}`
		require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

		states, err := database.NewFileRepository(path, nil).Load(ctx)
		require.NoError(t, err)
		require.Contains(t, states, "987")
		st := states["987"]
		assert.Equal(t, 3, st.Days)
		assert.Equal(t, []int{1}, st.DailyTasks["day1"])
		assert.Equal(t, "2024-04-02", st.StartDate)
		assert.True(t, st.Tasks[1].Completed)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "tasks.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := database.NewFileRepository(path, nil).Load(ctx)
		assert.Error(t, err)
	})
}

func TestSQLRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "tasks.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db, nil) })

	repo := database.NewSQLRepository(db, nil)
	require.NoError(t, repo.Ping(ctx))

	states, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)

	require.NoError(t, repo.Save(ctx, sampleStates()))
	states, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleStates(), states)

	// Save replaces the whole set.
	only := map[string]*tracker.ChannelState{"456": tracker.NewChannelState()}
	require.NoError(t, repo.Save(ctx, only))
	states, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, only, states)

	require.NoError(t, repo.RunMaintenance(ctx))
	states, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, only, states)
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "tasks.db")

	db, err := database.NewDB(path, nil)
	require.NoError(t, err)
	require.NoError(t, database.ApplyMigrations(db.DB, path, nil))
	database.CloseDB(db, nil)
}

func TestExtractDBNameFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"tasks.db", "tasks.db"},
		{"file:tasks.db", "tasks.db"},
		{"file:data/tasks.db?_pragma=busy_timeout(5000)", "data/tasks.db"},
		{"my%20tasks.db", "my tasks.db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, database.ExtractDBNameFromPath(tt.in), tt.in)
	}
}
