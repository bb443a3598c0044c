package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/kv"
	"github.com/MrSnakeDoc/appdir/internal/store/sqlite"
)

func TestMirrorQueue(t *testing.T) {
	ctx := context.Background()
	m := NewMirror(kv.NewMemory(), "")

	n, err := m.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 0; i < 12; i++ {
		op, err := m.Enqueue(ctx, Op{Kind: OpDelete, Key: "https://a.example"})
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), op.Seq)
	}
	require.NoError(t, m.Remove(ctx, 1))
	require.NoError(t, m.Remove(ctx, 12))

	ops, err := m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 10)
	for i, op := range ops {
		assert.Equal(t, int64(i+2), op.Seq, "ops come back in queue order")
	}

	op, err := m.Enqueue(ctx, Op{Kind: OpCreate})
	require.NoError(t, err)
	assert.Equal(t, int64(12), op.Seq)
}

func TestMirrorPersistsInSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "mirror.db")
	now := time.UnixMilli(1_700_000_000_000)

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	m := NewMirror(store, "")

	_, _, ok, err := m.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Save(ctx, []domain.App{{ID: "a", DirectURL: "https://a.example", Name: "A"}}, now))
	_, err = m.Enqueue(ctx, Op{Kind: OpUpdate, Key: "https://a.example", Patch: &domain.Patch{Name: ptr("B")}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	m = NewMirror(reopened, "")

	apps, savedAt, ok, err := m.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", apps[0].Name)
	assert.Equal(t, now, savedAt)

	ops, err := m.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.NotNil(t, ops[0].Patch)
	assert.Equal(t, "B", *ops[0].Patch.Name)
}
