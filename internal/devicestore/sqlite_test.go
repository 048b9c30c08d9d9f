package devicestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()

	path := filepath.Join(t.TempDir(), "device.db")
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	store, err := NewSQLite(conn)
	require.NoError(t, err)
	return store
}

func TestSQLiteReadMissing(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Read(context.Background(), "cart:none")
	require.NoError(t, err)
	require.False(t, ok, "missing key should report not found")
}

func TestSQLiteWriteReadClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "cart:session-1", []byte(`{"lines":[]}`)))

	value, ok, err := store.Read(ctx, "cart:session-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"lines":[]}`, string(value))

	require.NoError(t, store.Clear(ctx, "cart:session-1"))

	_, ok, err = store.Read(ctx, "cart:session-1")
	require.NoError(t, err)
	require.False(t, ok, "key should be gone after clear")
}

func TestSQLiteWriteOverwrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, "wishlist:session-1", []byte("v1")))
	require.NoError(t, store.Write(ctx, "wishlist:session-1", []byte("v2")))

	value, ok, err := store.Read(ctx, "wishlist:session-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", string(value))
}
