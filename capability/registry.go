package capability

import (
	"strings"
)

// MatchKind 描述一次解析命中的方式
type MatchKind string

const (
	MatchExact   MatchKind = "exact"
	MatchStem    MatchKind = "stem"
	MatchDefault MatchKind = "default"
)

type stemRule struct {
	stem    string
	name    string
	profile Profile
}

// Registry 模型能力注册表（构造后只读，可并发使用）
type Registry struct {
	entries  []Entry
	exact    map[string]Profile
	stems    []stemRule
	fallback Profile
}

// NewRegistry 用给定种子表创建注册表。
// entries 的顺序就是词干匹配的优先顺序；重名时先声明者生效。
func NewRegistry(entries []Entry) *Registry {
	r := &Registry{
		entries:  make([]Entry, len(entries)),
		exact:    make(map[string]Profile, len(entries)),
		stems:    make([]stemRule, 0, len(entries)),
		fallback: DefaultProfile(),
	}
	copy(r.entries, entries)

	for _, e := range entries {
		if _, dup := r.exact[e.Name]; !dup {
			r.exact[e.Name] = e.Profile
		}
		stem := Stem(e.Name)
		if stem == "" {
			// 空词干是任何字符串的子串，会吞掉所有模型
			continue
		}
		r.stems = append(r.stems, stemRule{stem: stem, name: e.Name, profile: e.Profile})
	}

	return r
}

// NewDefaultRegistry 使用内置种子表创建注册表
func NewDefaultRegistry() *Registry {
	return NewRegistry(SeedEntries())
}

// Stem 去掉第一个 ':' 及其之后的部分
func Stem(name string) string {
	if idx := strings.IndexByte(name, ':'); idx >= 0 {
		return name[:idx]
	}
	return name
}

// Resolve 解析模型能力画像，永不失败。
// 顺序：精确匹配 → 按声明顺序的词干子串匹配 → 保守默认画像。
func (r *Registry) Resolve(model string) Profile {
	p, _, _ := r.Lookup(model)
	return p
}

// Lookup 与 Resolve 相同，但额外返回命中方式和命中的种子键
func (r *Registry) Lookup(model string) (Profile, MatchKind, string) {
	if r == nil {
		return DefaultProfile(), MatchDefault, ""
	}

	if p, ok := r.exact[model]; ok {
		return p, MatchExact, model
	}

	// 多个词干都可能命中时按声明顺序取第一个，不按特异性
	for _, rule := range r.stems {
		if strings.Contains(model, rule.stem) {
			return rule.profile, MatchStem, rule.name
		}
	}

	return r.fallback, MatchDefault, ""
}

// ContextLimits 推导模型的会话上下文限制
func (r *Registry) ContextLimits(model string) ContextLimits {
	return LimitsFor(r.Resolve(model))
}

// IsSuitableForComplexTasks 模型是否适合执行复杂多步任务
func (r *Registry) IsSuitableForComplexTasks(model string) bool {
	p := r.Resolve(model)
	return p.MaxTools >= 15 && p.ComplexReasoning && p.ContextWindow >= 32768
}

// Entries 返回种子表副本
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
