// =============================================================================
// 📦 ToolGate 默认配置
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:       DefaultServerConfig(),
		Log:          DefaultLogConfig(),
		Redis:        DefaultRedisConfig(),
		Database:     DefaultDatabaseConfig(),
		Telemetry:    DefaultTelemetryConfig(),
		Platform:     DefaultPlatformConfig(),
		Orchestrator: DefaultOrchestratorConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    50,
		RateLimitBurst:  100,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		KeyPrefix:    "toolgate:",
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Enabled:             false,
		Driver:              "postgres",
		Host:                "localhost",
		Port:                5432,
		User:                "toolgate",
		Name:                "toolgate",
		SSLMode:             "disable",
		MaxOpenConns:        25,
		MaxIdleConns:        5,
		ConnMaxLifetime:     5 * time.Minute,
		HealthCheckInterval: 30 * time.Second,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "toolgate",
		SampleRate:   0.1,
	}
}

// DefaultPlatformConfig 返回默认自动化平台配置
func DefaultPlatformConfig() PlatformConfig {
	return PlatformConfig{
		BaseURL:           "http://localhost:8052",
		Timeout:           30 * time.Second,
		RateLimitRPS:      10,
		RateLimitBurst:    20,
		MaxRetries:        2,
		RetryInitialDelay: 200 * time.Millisecond,
		RetryMaxDelay:     2 * time.Second,
	}
}

// DefaultOrchestratorConfig 返回默认编排配置
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxConversations: 1000,
		CleanupInterval:  5 * time.Minute,
		SnapshotTTL:      time.Hour,
		AuditQueueSize:   1000,
		AuditWorkers:     2,
	}
}
