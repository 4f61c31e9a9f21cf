package tokenizer

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeEncoder struct{}

// 按空白切分，每个词算一个 token
func (fakeEncoder) Encode(text string, _ []string, _ []string) []int {
	return make([]int, len(strings.Fields(text)))
}

func TestEncodingFor(t *testing.T) {
	assert.Equal(t, "o200k_base", EncodingFor("gpt-4o"))
	assert.Equal(t, "o200k_base", EncodingFor("gpt-4o-mini-2024-07-18"))
	assert.Equal(t, "cl100k_base", EncodingFor("llama3.1:8b"))
	assert.Equal(t, "cl100k_base", EncodingFor(""))
}

func TestEstimate(t *testing.T) {
	assert.Equal(t, 0, Estimate(""))
	assert.Equal(t, 1, Estimate("a"))
	assert.Equal(t, 3, Estimate("abcdefghijkl"))
	assert.Equal(t, 2, Estimate("你好世"))
}

func TestCounter_UsesEncoder(t *testing.T) {
	c := NewCounter(zap.NewNop())
	c.load = func(string) (encoder, error) { return fakeEncoder{}, nil }

	assert.Equal(t, 4, c.Count("gpt-4o", "list jobs succeeded twice"))
	assert.Equal(t, 0, c.Count("gpt-4o", ""))
}

func TestCounter_FallsBackToEstimate(t *testing.T) {
	var loads int32
	c := NewCounter(zap.NewNop())
	c.load = func(string) (encoder, error) {
		atomic.AddInt32(&loads, 1)
		return nil, errors.New("offline")
	}

	text := strings.Repeat("abcd", 10)
	assert.Equal(t, Estimate(text), c.Count("mistral:7b", text))
	assert.Equal(t, Estimate(text), c.Count("qwen2.5:7b", text))
	// 同一编码只尝试加载一次
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestCounter_ConcurrentLazyInit(t *testing.T) {
	var loads int32
	c := NewCounter(nil)
	c.load = func(string) (encoder, error) {
		atomic.AddInt32(&loads, 1)
		return fakeEncoder{}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 2, c.Count("gpt-4o-mini", "two words"))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}
