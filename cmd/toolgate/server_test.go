package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/BaSui01/toolgate/api/handlers"
	"github.com/BaSui01/toolgate/audit"
	"github.com/BaSui01/toolgate/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newWiredServer 组装除监听端口外的全部组件：SQLite 审计、miniredis 快照、httptest 平台
func newWiredServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":1,"results":[{"id":7,"name":"deploy"}]}`))
	}))
	t.Cleanup(platform.Close)

	mr := miniredis.RunT(t)

	cfg := config.DefaultConfig()
	cfg.Platform.BaseURL = platform.URL
	cfg.Platform.RateLimitRPS = 0
	cfg.Database.Enabled = true
	cfg.Database.Driver = "sqlite"
	cfg.Database.Name = filepath.Join(t.TempDir(), "audit.db")
	cfg.Database.HealthCheckInterval = 0
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Orchestrator.CleanupInterval = 0
	cfg.Server.RateLimitRPS = 0

	s := NewServer(cfg, "", zap.NewNop(), zap.NewAtomicLevel())
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.collector = testCollector()
	s.healthHandler = handlers.NewHealthHandler(s.logger)

	require.NoError(t, s.initAudit(ctx))
	s.initSnapshots()
	require.NotNil(t, s.snapshots)
	require.NoError(t, s.initOrchestrator())
	s.startBackground(ctx)
	t.Cleanup(s.Shutdown)

	return s, s.newAPIHandler(ctx)
}

func TestServer_EndToEnd(t *testing.T) {
	s, h := newWiredServer(t)

	t.Run("ready with dependencies", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("invoke reaches platform", func(t *testing.T) {
		body, _ := json.Marshal(handlers.InvokeRequest{Model: "gpt-4o", Operation: "list_job_templates"})
		r := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/e2e/invoke", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "deploy")
	})

	t.Run("audit persisted", func(t *testing.T) {
		require.Eventually(t, func() bool {
			entries, err := s.auditLogger.Query(context.Background(), &audit.Filter{ConversationID: "e2e"})
			return err == nil && len(entries) == 1
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("snapshot flushed", func(t *testing.T) {
		require.Eventually(t, func() bool {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/conversations/e2e/snapshot", nil))
			return w.Code == http.StatusOK
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("eviction forgets snapshot", func(t *testing.T) {
		evicted := s.service.Cleanup(0)
		assert.Contains(t, evicted, "e2e")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/conversations/e2e/snapshot", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_MemoryAuditWithoutDatabase(t *testing.T) {
	cfg := config.DefaultConfig()
	s := NewServer(cfg, "", zap.NewNop(), zap.NewAtomicLevel())
	s.collector = testCollector()
	s.healthHandler = handlers.NewHealthHandler(nil)

	require.NoError(t, s.initAudit(context.Background()))
	s.initSnapshots()
	assert.Nil(t, s.pool)
	assert.Nil(t, s.snapshots)
	assert.NotNil(t, s.auditLogger)
	s.Shutdown()
}

func TestServer_ApplyReload(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	s := NewServer(config.DefaultConfig(), "", zap.NewNop(), level)

	old := config.DefaultConfig()
	updated := config.DefaultConfig()
	updated.Log.Level = "debug"
	s.applyReload(old, updated)

	assert.Equal(t, zapcore.DebugLevel, level.Level())
}

func TestRestartRequired(t *testing.T) {
	old := config.DefaultConfig()

	same := config.DefaultConfig()
	same.Log.Level = "debug"
	assert.False(t, restartRequired(old, same))

	port := config.DefaultConfig()
	port.Server.HTTPPort = 9999
	assert.True(t, restartRequired(old, port))

	ttl := config.DefaultConfig()
	ttl.Orchestrator.SnapshotTTL = time.Minute
	assert.True(t, restartRequired(old, ttl))
}
