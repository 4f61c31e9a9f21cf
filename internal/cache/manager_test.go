package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Manager 测试
// =============================================================================

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	mr := miniredis.RunT(t)

	manager, err := NewManager(Config{
		Addr:       mr.Addr(),
		KeyPrefix:  "test:",
		DefaultTTL: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return mr, manager
}

func TestNewManager_ConnectionFailure(t *testing.T) {
	_, err := NewManager(Config{Addr: "127.0.0.1:1"}, nil)
	assert.Error(t, err)
}

func TestManager_Key(t *testing.T) {
	_, manager := setupTestRedis(t)
	assert.Equal(t, "test:conversation:abc", manager.Key("conversation", "abc"))
	assert.Equal(t, "test:", manager.Key())
}

func TestManager_JSONRoundTrip(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.SetJSON(ctx, "p", doc{Name: "x", Count: 2}, 0))
	assert.Equal(t, time.Minute, mr.TTL("p"))

	var got doc
	require.NoError(t, manager.GetJSON(ctx, "p", &got))
	assert.Equal(t, doc{Name: "x", Count: 2}, got)

	err := manager.GetJSON(ctx, "missing", &got)
	assert.True(t, IsCacheMiss(err))

	assert.Error(t, manager.SetJSON(ctx, "bad", make(chan int), 0))

	require.NoError(t, mr.Set("raw", "not-json"))
	err = manager.GetJSON(ctx, "raw", &got)
	require.Error(t, err)
	assert.False(t, IsCacheMiss(err))
}

func TestManager_Expiry(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.SetJSON(ctx, "short", doc{Name: "s"}, 10*time.Second))
	assert.Equal(t, 10*time.Second, mr.TTL("short"))

	mr.FastForward(11 * time.Second)
	var got doc
	assert.True(t, IsCacheMiss(manager.GetJSON(ctx, "short", &got)))
}

func TestManager_SetJSONMany(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	failed := manager.SetJSONMany(ctx, map[string]any{
		"a":   doc{Name: "a", Count: 1},
		"b":   doc{Name: "b", Count: 2},
		"bad": make(chan int),
	}, 5*time.Minute)

	require.Len(t, failed, 1)
	assert.Contains(t, failed, "bad")
	assert.Equal(t, 5*time.Minute, mr.TTL("a"))

	var got doc
	require.NoError(t, manager.GetJSON(ctx, "b", &got))
	assert.Equal(t, 2, got.Count)

	assert.Nil(t, manager.SetJSONMany(ctx, nil, 0))
}

func TestManager_SetJSONMany_ServerError(t *testing.T) {
	mr, manager := setupTestRedis(t)

	mr.SetError("server down")
	failed := manager.SetJSONMany(context.Background(), map[string]any{"a": doc{}, "b": doc{}}, 0)
	assert.Len(t, failed, 2)
}

func TestManager_Delete(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.SetJSON(ctx, "a", doc{}, 0))
	require.NoError(t, manager.SetJSON(ctx, "b", doc{}, 0))
	require.NoError(t, manager.Delete(ctx, "a", "b", "never-existed"))
	require.NoError(t, manager.Delete(ctx))
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestManager_PingAndClose(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, manager.Ping(ctx))

	mr.SetError("server down")
	assert.Error(t, manager.Ping(ctx))
	mr.SetError("")

	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())
	assert.ErrorIs(t, manager.Ping(ctx), ErrClosed)
	assert.ErrorIs(t, manager.SetJSON(ctx, "k", doc{}, 0), ErrClosed)

	failed := manager.SetJSONMany(ctx, map[string]any{"k": doc{}}, 0)
	assert.ErrorIs(t, failed["k"], ErrClosed)
}

func TestManager_HealthCheckLoopStopsOnClose(t *testing.T) {
	mr := miniredis.RunT(t)
	manager, err := NewManager(Config{Addr: mr.Addr(), HealthCheckInterval: 5 * time.Millisecond}, nil)
	require.NoError(t, err)

	mr.SetError("server down")
	time.Sleep(20 * time.Millisecond)
	mr.SetError("")
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, manager.Close())
}

func TestManager_ConcurrentOperations(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", id)
			assert.NoError(t, manager.SetJSON(ctx, key, doc{Count: id}, 0))
			var got doc
			assert.NoError(t, manager.GetJSON(ctx, key, &got))
			assert.Equal(t, id, got.Count)
		}(i)
	}
	wg.Wait()
}
