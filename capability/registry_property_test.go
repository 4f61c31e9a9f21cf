package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// 不含任何种子词干的模型名一律解析为默认画像
func TestProperty_Registry_UnknownResolvesToDefault(t *testing.T) {
	r := NewDefaultRegistry()

	rapid.Check(t, func(rt *rapid.T) {
		model := rapid.StringMatching(`[xyz_]{0,16}`).Draw(rt, "model")

		p, kind, _ := r.Lookup(model)
		assert.Equal(rt, MatchDefault, kind)
		assert.Equal(rt, DefaultProfile(), p)
	})
}

// 种子键追加任意后缀后仍命中某个种子项
func TestProperty_Registry_SuffixedSeedNeverDefaults(t *testing.T) {
	r := NewDefaultRegistry()
	seeds := SeedEntries()

	rapid.Check(t, func(rt *rapid.T) {
		e := rapid.SampledFrom(seeds).Draw(rt, "seed")
		suffix := rapid.StringMatching(`[-a-z0-9]{1,8}`).Draw(rt, "suffix")

		_, kind, _ := r.Lookup(e.Name + suffix)
		assert.NotEqual(rt, MatchDefault, kind)
	})
}
