package invoker

import (
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/BaSui01/toolgate/config"
)

// RetryPolicy 平台调用的重试策略。
// 只对 GET 路由生效，写操作失败后是否已落地无法判断，交给调用方处理。
type RetryPolicy struct {
	MaxRetries   int           // 最大重试次数（0 表示不重试）
	InitialDelay time.Duration // 首次重试前的等待
	MaxDelay     time.Duration // 单次等待上限
	Multiplier   float64       // 指数退避倍数
	Jitter       bool          // ±25% 随机抖动
}

// DefaultRetryPolicy 返回默认重试策略
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   2,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// RetryPolicyFrom 从平台配置构建重试策略
func RetryPolicyFrom(cfg config.PlatformConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxRetries = cfg.MaxRetries
	if cfg.RetryInitialDelay > 0 {
		p.InitialDelay = cfg.RetryInitialDelay
	}
	if cfg.RetryMaxDelay > 0 {
		p.MaxDelay = cfg.RetryMaxDelay
	}
	return p.normalized()
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 200 * time.Millisecond
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = 2.0
	}
	return p
}

// appliesTo 只读路由才重试
func (p RetryPolicy) appliesTo(route Route) bool {
	return p.MaxRetries > 0 && route.Method == http.MethodGet
}

// delay 第 attempt 次重试（从 1 开始）前的等待：initial * multiplier^(attempt-1)，
// 抖动 ±25% 后限制在 [0, MaxDelay]
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.Jitter {
		d += (rand.Float64()*2 - 1) * d * 0.25
	}
	d = max(0, min(d, float64(p.MaxDelay)))
	return time.Duration(d)
}
