package kv_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/attachvault/pkg/configs"
	"github.com/yeisme/attachvault/pkg/internal/storage/kv"
)

func newMemory(t *testing.T) kv.KVStore {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), configs.KVConfig{Type: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// TestMemoryKVBasic 测试基本的 Set/Get/Delete.
func TestMemoryKVBasic(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	require.NoError(t, store.Set(ctx, "storage:name:local", []byte(`{"id":1}`), 0))

	got, err := store.Get(ctx, "storage:name:local")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(got))

	ok, err := store.Exists(ctx, "storage:name:local")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "storage:name:local"))

	_, err = store.Get(ctx, "storage:name:local")
	assert.True(t, errors.Is(err, kv.ErrKeyNotFound))
}

// TestMemoryKVTTL 过期的键不可见.
func TestMemoryKVTTL(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	require.NoError(t, store.Set(ctx, "short", []byte("v"), time.Second))
	require.NoError(t, store.Set(ctx, "long", []byte("v"), time.Hour))

	got, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	time.Sleep(1100 * time.Millisecond)

	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)

	ok, err := store.Exists(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestMemoryKVKeys 按模式列出键.
func TestMemoryKVKeys(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	for _, k := range []string{"storage:name:a", "storage:name:b", "storage:id:1"} {
		require.NoError(t, store.Set(ctx, k, []byte("x"), 0))
	}

	keys, err := store.Keys(ctx, "storage:name:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"storage:name:a", "storage:name:b"}, keys)

	all, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// TestMemoryKVCopy 返回值与内部存储互不影响.
func TestMemoryKVCopy(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	v := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", v, 0))
	v[0] = 'x'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestUnsupportedKVType(t *testing.T) {
	_, err := kv.NewKVStore(context.Background(), configs.KVConfig{Type: "groupcache"})
	assert.Error(t, err)
	assert.Equal(t, []kv.KVType{kv.KVTypeMemory, kv.KVTypeNATS, kv.KVTypeRedis}, kv.GetRegisteredKVTypes())
}

// 设置 ENABLE_REDIS_TEST=1 和 REDIS_ADDR 启用.
func TestRedisKV(t *testing.T) {
	if os.Getenv("ENABLE_REDIS_TEST") == "" {
		t.Skip("set ENABLE_REDIS_TEST=1 to enable")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, configs.KVConfig{Type: "redis", Redis: configs.RedisKVConfig{Addr: addr}})
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}

	defer store.Close()

	require.NoError(t, store.Set(ctx, "attachvault:test", []byte("v"), time.Minute))
	keys, err := store.Keys(ctx, "attachvault:test*")
	require.NoError(t, err)
	assert.Contains(t, keys, "attachvault:test")
	require.NoError(t, store.Delete(ctx, "attachvault:test"))
}

// 设置 ENABLE_NATS_TEST=1 和 NATS_URL 启用，需要开启 JetStream.
func TestNATSKV(t *testing.T) {
	if os.Getenv("ENABLE_NATS_TEST") == "" {
		t.Skip("set ENABLE_NATS_TEST=1 to enable")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "127.0.0.1:4222"
	}

	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, configs.KVConfig{
		Type: "nats",
		NATS: configs.NATSKVConfig{URL: url, Bucket: "attachvault-test"},
	})
	if err != nil {
		t.Skipf("nats not available: %v", err)
	}

	defer store.Close()

	require.NoError(t, store.Set(ctx, "storage:name:local", []byte(`{"id":1}`), time.Minute))
	require.NoError(t, store.Set(ctx, "storage:id:1", []byte(`{"id":1}`), 0))

	got, err := store.Get(ctx, "storage:name:local")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(got))

	keys, err := store.Keys(ctx, "storage:name:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"storage:name:local"}, keys)

	require.NoError(t, store.Delete(ctx, "storage:name:local"))
	require.NoError(t, store.Delete(ctx, "storage:id:1"))

	_, err = store.Get(ctx, "storage:name:local")
	assert.ErrorIs(t, err, kv.ErrKeyNotFound)

	ok, err := store.Exists(ctx, "storage:id:1")
	require.NoError(t, err)
	assert.False(t, ok)
}
