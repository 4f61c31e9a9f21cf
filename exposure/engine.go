package exposure

import (
	"github.com/BaSui01/toolgate/capability"
)

// Engine 根据模型能力和会话进度决定暴露哪些工具
type Engine struct {
	registry *capability.Registry
	catalog  *Catalog
}

// NewEngine 创建工具暴露引擎
func NewEngine(registry *capability.Registry, catalog *Catalog) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Engine{registry: registry, catalog: catalog}
}

// Catalog 返回引擎使用的目录
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// ExposedTiers 返回按渐进顺序解锁的分层
func (e *Engine) ExposedTiers(model string, conversationLength int) []Tier {
	p := e.registry.Resolve(model)

	tiers := []Tier{TierBasic}
	if conversationLength >= 1 {
		tiers = append(tiers, TierInventory)
	}
	if p.MaxTools >= 8 {
		tiers = append(tiers, TierUsers)
	}
	if p.MaxTools >= 12 {
		tiers = append(tiers, TierProjects, TierOrganizations)
	}
	if p.ComplexReasoning && p.MaxTools >= 15 {
		tiers = append(tiers, TierSchedules)
	}
	if p.MaxTools >= 20 && p.ComplexReasoning {
		tiers = append(tiers, TierAdvanced)
	}
	return tiers
}

// AvailableTools 返回当前可暴露的有序操作列表，截断到 MaxTools。
// 超出上限的操作直接丢弃，不在分层之间重新平衡。
func (e *Engine) AvailableTools(model string, conversationLength int) []string {
	limit := e.registry.Resolve(model).MaxTools
	if limit <= 0 {
		return []string{}
	}

	tools := make([]string, 0, limit)
	for _, t := range e.ExposedTiers(model, conversationLength) {
		for _, op := range e.catalog.groups[t] {
			if len(tools) == limit {
				return tools
			}
			tools = append(tools, op)
		}
	}
	return tools
}

// IsExposed 操作当前是否对该模型暴露
func (e *Engine) IsExposed(model string, conversationLength int, tool string) bool {
	for _, op := range e.AvailableTools(model, conversationLength) {
		if op == tool {
			return true
		}
	}
	return false
}

// ShouldUseSimplifiedPrompt 是否应为该工具使用简化提示词
func (e *Engine) ShouldUseSimplifiedPrompt(model, tool string) bool {
	p := e.registry.Resolve(model)
	if p.MaxTools <= 10 {
		return true
	}
	return e.catalog.IsComplex(tool) && !p.ComplexReasoning
}
