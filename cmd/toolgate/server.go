package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/BaSui01/toolgate/api/handlers"
	"github.com/BaSui01/toolgate/audit"
	"github.com/BaSui01/toolgate/config"
	"github.com/BaSui01/toolgate/internal/cache"
	"github.com/BaSui01/toolgate/internal/database"
	"github.com/BaSui01/toolgate/internal/metrics"
	"github.com/BaSui01/toolgate/internal/server"
	"github.com/BaSui01/toolgate/internal/telemetry"
	"github.com/BaSui01/toolgate/internal/tokenizer"
	"github.com/BaSui01/toolgate/invoker"
	"github.com/BaSui01/toolgate/orchestrator"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// memoryAuditSize 未配置数据库时内存审计保留的条数
const memoryAuditSize = 10000

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server ToolGate 主服务器
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	level      zap.AtomicLevel

	telemetry *telemetry.Providers
	collector *metrics.Collector

	// 持久化
	pool        *database.PoolManager
	auditLogger *audit.AsyncLogger
	cache       *cache.Manager
	snapshots   *cache.SnapshotStore

	service       *orchestrator.Service
	healthHandler *handlers.HealthHandler
	orchHandler   *handlers.OrchestrationHandler

	httpManager    *server.Manager
	metricsManager *server.Manager

	// 后台任务（janitor、配置监听、限流清理）
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger, level zap.AtomicLevel) *Server {
	return &Server{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
		level:      level,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有组件
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	providers, err := telemetry.Init(s.cfg.Telemetry, Version, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	s.telemetry = providers

	s.collector = metrics.NewCollector("toolgate", s.logger)
	s.healthHandler = handlers.NewHealthHandler(s.logger)

	if err := s.initAudit(ctx); err != nil {
		return fmt.Errorf("failed to init audit: %w", err)
	}
	s.initSnapshots()

	if err := s.initOrchestrator(); err != nil {
		return fmt.Errorf("failed to init orchestrator: %w", err)
	}

	s.startBackground(ctx)

	if err := s.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("config_watch", s.configPath != ""),
	)
	return nil
}

// =============================================================================
// 🔧 初始化方法
// =============================================================================

// initAudit 数据库启用时写入 gorm 审计表，否则退化为内存审计
func (s *Server) initAudit(ctx context.Context) error {
	var backend audit.Backend
	if s.cfg.Database.Enabled {
		store, err := s.openAuditStore(ctx)
		if err != nil {
			return err
		}
		backend = store
	} else {
		s.logger.Info("database disabled, audit trail kept in memory", zap.Int("max_entries", memoryAuditSize))
		backend = audit.NewMemoryBackend(memoryAuditSize)
	}

	s.auditLogger = audit.NewAsyncLogger(audit.LoggerConfig{
		Backends:  []audit.Backend{backend},
		QueueSize: s.cfg.Orchestrator.AuditQueueSize,
		Workers:   s.cfg.Orchestrator.AuditWorkers,
		OnWrite:   func(err error) { s.collector.RecordHookWrite("audit", err) },
	}, s.logger)
	return nil
}

func (s *Server) openAuditStore(ctx context.Context) (*audit.GormStore, error) {
	db, err := database.Open(s.cfg.Database, s.logger)
	if err != nil {
		return nil, err
	}

	poolCfg := database.PoolConfigFrom(s.cfg.Database)
	s.pool, err = database.NewPoolManager(db, poolCfg, func(name string, st database.PoolStats) {
		s.collector.RecordDBConnections(name, st.OpenConnections, st.Idle, st.InUse)
	}, s.logger)
	if err != nil {
		return nil, err
	}
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("database", s.pool.Ping))

	store, err := audit.NewGormStore(db, s.logger)
	if err != nil {
		return nil, err
	}
	store.WithObserver(s.collector)

	// SQLite 只用于开发环境，直接建表；其它方言走 `toolgate migrate up`
	if s.cfg.Database.Driver == "sqlite" {
		if err := store.AutoMigrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate sqlite audit table: %w", err)
		}
	}
	return store, nil
}

// initSnapshots Redis 不可用时只记录告警，快照是可选能力
func (s *Server) initSnapshots() {
	if !s.cfg.Redis.Enabled {
		return
	}

	cacheCfg := cache.DefaultConfig()
	cacheCfg.Addr = s.cfg.Redis.Addr
	cacheCfg.Password = s.cfg.Redis.Password
	cacheCfg.DB = s.cfg.Redis.DB
	cacheCfg.PoolSize = s.cfg.Redis.PoolSize
	cacheCfg.MinIdleConns = s.cfg.Redis.MinIdleConns
	cacheCfg.KeyPrefix = s.cfg.Redis.KeyPrefix
	cacheCfg.DefaultTTL = s.cfg.Orchestrator.SnapshotTTL

	mgr, err := cache.NewManager(cacheCfg, s.logger)
	if err != nil {
		s.logger.Warn("Redis not available, conversation snapshots disabled", zap.Error(err))
		return
	}
	s.cache = mgr
	s.snapshots = cache.NewSnapshotStore(mgr, s.cfg.Orchestrator.SnapshotTTL,
		func(err error) { s.collector.RecordHookWrite("snapshot", err) }, s.logger)
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("redis", mgr.Ping))
}

func (s *Server) initOrchestrator() error {
	catalog, err := s.cfg.Orchestrator.Catalog()
	if err != nil {
		return err
	}

	inv, err := invoker.New(s.cfg.Platform, s.logger)
	if err != nil {
		return fmt.Errorf("failed to create platform invoker: %w", err)
	}

	opts := []orchestrator.Option{
		orchestrator.WithMetrics(s.collector),
		orchestrator.WithTokenCounter(tokenizer.NewCounter(s.logger)),
		orchestrator.WithHooks(audit.NewHook(s.auditLogger)),
	}
	if s.snapshots != nil {
		opts = append(opts,
			orchestrator.WithHooks(s.snapshots),
			orchestrator.WithEvictionHandler(s.forgetSnapshots),
			orchestrator.WithResetHandler(func(id string) { s.forgetSnapshots([]string{id}) }),
		)
	}

	s.service, err = orchestrator.New(s.cfg.Orchestrator.Registry(), catalog, inv, s.logger, opts...)
	if err != nil {
		return err
	}

	handlerOpts := []handlers.OrchestrationOption{handlers.WithAudit(s.auditLogger)}
	if s.snapshots != nil {
		handlerOpts = append(handlerOpts, handlers.WithSnapshots(s.snapshots))
	}
	s.orchHandler = handlers.NewOrchestrationHandler(s.service, s.logger, handlerOpts...)

	s.logger.Info("orchestrator initialized",
		zap.Int("models", len(s.service.Registry().Entries())),
		zap.Int("operations", catalog.Size()),
		zap.String("platform", s.cfg.Platform.BaseURL),
	)
	return nil
}

func (s *Server) forgetSnapshots(ids []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.snapshots.Forget(ctx, ids...); err != nil {
		s.logger.Warn("failed to delete conversation snapshots",
			zap.Int("count", len(ids)), zap.Error(err))
	}
}

// startBackground 启动会话清理与配置监听
func (s *Server) startBackground(ctx context.Context) {
	oc := s.cfg.Orchestrator
	janitorDone := s.service.StartJanitor(ctx, oc.CleanupInterval, oc.MaxConversations)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		<-janitorDone
	}()

	if s.configPath == "" {
		return
	}
	watcher, err := config.NewWatcher(config.NewLoader().WithConfigPath(s.configPath), s.cfg,
		config.WithWatcherLogger(s.logger))
	if err != nil {
		s.logger.Warn("config watcher disabled", zap.Error(err))
		return
	}
	watcher.OnReload(s.applyReload)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		watcher.Run(ctx)
	}()
}

// applyReload 只有日志级别可在运行时生效，其它字段变更需要重启
func (s *Server) applyReload(old, updated *config.Config) {
	if old.Log.Level != updated.Log.Level {
		s.level.SetLevel(parseLevel(updated.Log.Level))
		s.logger.Info("log level changed",
			zap.String("from", old.Log.Level),
			zap.String("to", updated.Log.Level))
	}
	if restartRequired(old, updated) {
		s.logger.Warn("configuration changed in sections that require a restart to take effect")
	}
}

func restartRequired(old, updated *config.Config) bool {
	return old.Server != updated.Server ||
		old.Redis != updated.Redis ||
		old.Database != updated.Database ||
		old.Telemetry != updated.Telemetry ||
		old.Platform != updated.Platform ||
		old.Orchestrator.MaxConversations != updated.Orchestrator.MaxConversations ||
		old.Orchestrator.CleanupInterval != updated.Orchestrator.CleanupInterval ||
		old.Orchestrator.SnapshotTTL != updated.Orchestrator.SnapshotTTL
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

// newAPIHandler 组装路由与中间件链
func (s *Server) newAPIHandler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	s.orchHandler.Register(mux)

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		OTelTracing(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		RateLimiter(ctx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)
}

func (s *Server) startHTTPServer(ctx context.Context) error {
	s.httpManager = server.NewManager("api", s.newAPIHandler(ctx),
		server.ConfigFrom(s.cfg.Server, s.cfg.Server.HTTPPort), s.logger)
	return s.httpManager.Start()
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsManager = server.NewManager("metrics", mux,
		server.ConfigFrom(s.cfg.Server, s.cfg.Server.MetricsPort), s.logger)
	return s.metricsManager.Start()
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 阻塞直到收到 SIGINT/SIGTERM 或任一监听异常退出，然后优雅关闭
func (s *Server) WaitForShutdown() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-s.httpManager.Errors():
		s.logger.Error("API server stopped unexpectedly", zap.Error(err))
	case err := <-s.metricsManager.Errors():
		s.logger.Error("metrics server stopped unexpectedly", zap.Error(err))
	}

	s.Shutdown()
}

// Shutdown 按依赖逆序关闭：先停入口，再排空钩子，最后释放连接
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")
	ctx := context.Background()

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if s.snapshots != nil {
		s.snapshots.Close()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if s.auditLogger != nil {
		if err := s.auditLogger.Close(); err != nil {
			s.logger.Error("audit logger shutdown error", zap.Error(err))
		}
	}
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			s.logger.Error("database pool shutdown error", zap.Error(err))
		}
	}

	if s.telemetry != nil {
		tctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.telemetry.Shutdown(tctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
