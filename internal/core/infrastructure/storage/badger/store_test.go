package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	badgerconfig "github.com/weisyn/proofhost/internal/config/storage/badger"
	"github.com/weisyn/proofhost/internal/testutil"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(&badgerconfig.BadgerOptions{
		Path:         t.TempDir(),
		MemTableSize: 1 << 20,
	}, testutil.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestStore_BasicOperations 测试基本读写删
func TestStore_BasicOperations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	value, err := store.Get(ctx, []byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, store.Set(ctx, []byte("k1"), []byte("v1")))
	value, err = store.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)

	require.NoError(t, store.Delete(ctx, []byte("k1")))
	value, err = store.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, store.Delete(ctx, []byte("never-set")))
}

// TestStore_PrefixScan 测试前缀扫描只返回匹配键
func TestStore_PrefixScan(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, []byte("task/a"), []byte("1")))
	require.NoError(t, store.Set(ctx, []byte("task/b"), []byte("2")))
	require.NoError(t, store.Set(ctx, []byte("meta/x"), []byte("3")))

	result, err := store.PrefixScan(ctx, []byte("task/"))
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"task/a": []byte("1"), "task/b": []byte("2")}, result)
}

// TestStore_InMemoryAndClose 测试内存模式与关闭后写入被拒绝
func TestStore_InMemoryAndClose(t *testing.T) {
	store, err := Open(&badgerconfig.BadgerOptions{}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, []byte("k"), []byte("v")))
	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "重复关闭无副作用")

	assert.ErrorIs(t, store.Set(ctx, []byte("k"), []byte("v2")), ErrStoreClosed)
}
