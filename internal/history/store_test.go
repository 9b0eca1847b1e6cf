package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teerev/promptkit/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStoreAppliesMigrations(t *testing.T) {
	s := newTestStore(t)
	v, err := s.LatestVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)

	// Re-applying is a no-op.
	require.NoError(t, s.ApplyMigrations(context.Background()))
	v, err = s.LatestVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestRecordFillsIDAndTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Record(ctx, models.RunRecord{
		Template:   "audit",
		Preset:     "default",
		PacketDir:  "/runs/20240101_000000_audit",
		PromptHash: "p",
		ParamsHash: "q",
	})
	require.NoError(t, err)
	_, err = uuid.Parse(rec.ID)
	assert.NoError(t, err)
	assert.False(t, rec.CreatedAt.IsZero())

	runs, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rec.ID, runs[0].ID)
	assert.Equal(t, "default", runs[0].Preset)
	assert.True(t, rec.CreatedAt.Equal(runs[0].CreatedAt))
}

func TestListOrderingAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, tpl := range []string{"audit", "readme", "audit", "security"} {
		_, err := s.Record(ctx, models.RunRecord{
			Template:  tpl,
			PacketDir: tpl,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "security", all[0].Template)
	assert.Equal(t, "audit", all[3].Template)

	audits, err := s.List(ctx, Filter{Template: "audit"})
	require.NoError(t, err)
	require.Len(t, audits, 2)
	assert.True(t, audits[0].CreatedAt.After(audits[1].CreatedAt))

	limited, err := s.List(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	n, err := s.Count(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = s.Count(ctx, Filter{Template: "audit"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStorePersistsOnDisk(t *testing.T) {
	path := DefaultDBPath(filepath.Join(t.TempDir(), "runs"))
	assert.Equal(t, "history.db", filepath.Base(path))

	s, err := NewStore(path)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), models.RunRecord{Template: "audit", PacketDir: "x"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	n, err := reopened.Count(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
