package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// =============================================================================
// 💾 Redis 文档存储
// =============================================================================

var (
	// ErrCacheMiss 键不存在或已过期
	ErrCacheMiss = errors.New("cache miss")
	// ErrClosed Manager 已关闭
	ErrClosed = errors.New("cache manager is closed")
)

// IsCacheMiss 判断是否为缓存未命中
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// Config Redis 连接配置
type Config struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	// 所有键统一加的前缀，例如 toolgate:
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
	// 写入时 ttl 为 0 使用的过期时间
	DefaultTTL   time.Duration `yaml:"default_ttl" json:"default_ttl"`
	MaxRetries   int           `yaml:"max_retries" json:"max_retries"`
	PoolSize     int           `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" json:"min_idle_conns"`
	// 后台 PING 间隔，<=0 关闭
	HealthCheckInterval time.Duration `yaml:"health_check_interval" json:"health_check_interval"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Addr:                "localhost:6379",
		KeyPrefix:           "toolgate:",
		DefaultTTL:          30 * time.Minute,
		MaxRetries:          3,
		PoolSize:            10,
		MinIdleConns:        2,
		HealthCheckInterval: 30 * time.Second,
	}
}

// Manager 以 JSON 文档形式读写 Redis 键
type Manager struct {
	client *redis.Client
	config Config
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	stop   chan struct{}
}

// NewManager 连接 Redis，PING 失败时返回错误
func NewManager(config Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	m := &Manager{
		client: client,
		config: config,
		logger: logger.With(zap.String("component", "cache")),
		stop:   make(chan struct{}),
	}
	if config.HealthCheckInterval > 0 {
		go m.healthCheckLoop()
	}

	m.logger.Info("redis connected",
		zap.String("addr", config.Addr),
		zap.Int("db", config.DB),
		zap.String("key_prefix", config.KeyPrefix),
	)
	return m, nil
}

// Key 拼接带前缀的键，各段以冒号分隔
func (m *Manager) Key(parts ...string) string {
	return m.config.KeyPrefix + strings.Join(parts, ":")
}

// use 在未关闭时以读锁执行 fn，Close 会等待进行中的调用
func (m *Manager) use(fn func(c *redis.Client) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return fn(m.client)
}

func (m *Manager) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return m.config.DefaultTTL
	}
	return ttl
}

// GetJSON 读取键并解码到 dest，键不存在时返回 ErrCacheMiss
func (m *Manager) GetJSON(ctx context.Context, key string, dest any) error {
	var raw []byte
	err := m.use(func(c *redis.Client) error {
		var err error
		raw, err = c.Get(ctx, key).Bytes()
		return err
	})
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON 编码 value 并写入，ttl 为 0 时使用 DefaultTTL
func (m *Manager) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return m.use(func(c *redis.Client) error {
		if err := c.Set(ctx, key, data, m.ttl(ttl)).Err(); err != nil {
			return fmt.Errorf("redis set %s: %w", key, err)
		}
		return nil
	})
}

// SetJSONMany 用一次 pipeline 写入多个文档，返回写入失败的键及原因；全部成功时返回 nil
func (m *Manager) SetJSONMany(ctx context.Context, values map[string]any, ttl time.Duration) map[string]error {
	if len(values) == 0 {
		return nil
	}

	failed := make(map[string]error)
	payloads := make(map[string][]byte, len(values))
	for key, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			failed[key] = fmt.Errorf("encode %s: %w", key, err)
			continue
		}
		payloads[key] = data
	}

	cmds := make(map[string]*redis.StatusCmd, len(payloads))
	err := m.use(func(c *redis.Client) error {
		_, err := c.Pipelined(ctx, func(p redis.Pipeliner) error {
			for key, data := range payloads {
				cmds[key] = p.Set(ctx, key, data, m.ttl(ttl))
			}
			return nil
		})
		return err
	})

	for key := range payloads {
		cmd, queued := cmds[key]
		switch {
		case !queued:
			failed[key] = err
		case cmd.Err() != nil:
			failed[key] = fmt.Errorf("redis set %s: %w", key, cmd.Err())
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return failed
}

// Delete 删除键，不存在的键忽略
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return m.use(func(c *redis.Client) error {
		if err := c.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		return nil
	})
}

// Ping 检查连接
func (m *Manager) Ping(ctx context.Context) error {
	return m.use(func(c *redis.Client) error {
		return c.Ping(ctx).Err()
	})
}

// Close 停止健康检查并关闭连接，重复调用无副作用
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.stop)
	m.logger.Info("closing redis connection")
	return m.client.Close()
}

func (m *Manager) healthCheckLoop() {
	ticker := time.NewTicker(m.config.HealthCheckInterval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := m.Ping(ctx)
		cancel()

		// 只在状态翻转时记日志
		switch {
		case err != nil && healthy:
			m.logger.Error("redis became unreachable", zap.Error(err))
		case err == nil && !healthy:
			m.logger.Info("redis reachable again")
		}
		healthy = err == nil
	}
}
