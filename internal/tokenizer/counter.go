package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

const (
	encodingO200k  = "o200k_base"
	encodingCl100k = "cl100k_base"
)

// encoder 抽象出 tiktoken 的编码能力，测试可以替换
type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

type encoderState struct {
	once sync.Once
	enc  encoder
	err  error
}

// Counter 按模型选择编码并统计 token 数，可并发使用。
// 编码表在首次使用时懒加载（tiktoken 可能需要下载数据），加载失败后该编码一直走估算。
type Counter struct {
	mu     sync.Mutex
	states map[string]*encoderState
	load   func(encoding string) (encoder, error)
	logger *zap.Logger
}

// NewCounter 创建计数器
func NewCounter(logger *zap.Logger) *Counter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Counter{
		states: make(map[string]*encoderState),
		load: func(encoding string) (encoder, error) {
			enc, err := tiktoken.GetEncoding(encoding)
			if err != nil {
				return nil, err
			}
			return enc, nil
		},
		logger: logger.With(zap.String("component", "tokenizer")),
	}
}

// EncodingFor 返回模型使用的编码名：gpt-4o 系列用 o200k_base，其余一律 cl100k_base
func EncodingFor(model string) string {
	if strings.HasPrefix(model, "gpt-4o") || strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") {
		return encodingO200k
	}
	return encodingCl100k
}

// Count 统计文本 token 数，编码不可用时返回估算值
func (c *Counter) Count(model, text string) int {
	if text == "" {
		return 0
	}
	enc, err := c.encoder(EncodingFor(model))
	if err != nil {
		return Estimate(text)
	}
	return len(enc.Encode(text, nil, nil))
}

func (c *Counter) encoder(encoding string) (encoder, error) {
	c.mu.Lock()
	st, ok := c.states[encoding]
	if !ok {
		st = &encoderState{}
		c.states[encoding] = st
	}
	c.mu.Unlock()

	st.once.Do(func() {
		enc, err := c.load(encoding)
		if err != nil {
			st.err = fmt.Errorf("init tiktoken encoding %s: %w", encoding, err)
			c.logger.Warn("tiktoken unavailable, falling back to estimation",
				zap.String("encoding", encoding), zap.Error(err))
			return
		}
		st.enc = enc
	})
	return st.enc, st.err
}
