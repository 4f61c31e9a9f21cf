package exposure

import (
	"fmt"
)

// Tier 工具分层名称
type Tier string

const (
	TierBasic         Tier = "basic"
	TierInventory     Tier = "inventory"
	TierUsers         Tier = "users"
	TierProjects      Tier = "projects"
	TierOrganizations Tier = "organizations"
	TierSchedules     Tier = "schedules"
	TierAdvanced      Tier = "advanced"
)

// AllTiers 按渐进暴露顺序排列的全部分层
var AllTiers = []Tier{
	TierBasic, TierInventory, TierUsers, TierProjects,
	TierOrganizations, TierSchedules, TierAdvanced,
}

// ToolGroup 一个分层及其包含的操作（声明顺序有意义）
type ToolGroup struct {
	Tier       Tier     `yaml:"tier" json:"tier"`
	Operations []string `yaml:"operations" json:"operations"`
}

// Catalog 操作分层目录：每个操作恰好属于一个分层，
// ComplexTools 横跨分层标记对低能力模型风险较高的操作。
type Catalog struct {
	groups  map[Tier][]string
	tierOf  map[string]Tier
	complex map[string]bool
	// 保持 complex 的声明顺序以便输出稳定
	complexOrder []string
}

// NewCatalog 校验并构建目录
func NewCatalog(groups []ToolGroup, complexTools []string) (*Catalog, error) {
	c := &Catalog{
		groups:  make(map[Tier][]string, len(groups)),
		tierOf:  make(map[string]Tier),
		complex: make(map[string]bool, len(complexTools)),
	}

	known := make(map[Tier]bool, len(AllTiers))
	for _, t := range AllTiers {
		known[t] = true
	}

	for _, g := range groups {
		if !known[g.Tier] {
			return nil, fmt.Errorf("unknown tier %q", g.Tier)
		}
		if _, dup := c.groups[g.Tier]; dup {
			return nil, fmt.Errorf("tier %q declared twice", g.Tier)
		}
		ops := make([]string, 0, len(g.Operations))
		for _, op := range g.Operations {
			if op == "" {
				return nil, fmt.Errorf("tier %q contains an empty operation name", g.Tier)
			}
			if prev, dup := c.tierOf[op]; dup {
				return nil, fmt.Errorf("operation %q belongs to both %q and %q", op, prev, g.Tier)
			}
			c.tierOf[op] = g.Tier
			ops = append(ops, op)
		}
		c.groups[g.Tier] = ops
	}

	for _, op := range complexTools {
		if _, ok := c.tierOf[op]; !ok {
			return nil, fmt.Errorf("complex tool %q is not in any tier", op)
		}
		if !c.complex[op] {
			c.complex[op] = true
			c.complexOrder = append(c.complexOrder, op)
		}
	}

	return c, nil
}

// MustCatalog 与 NewCatalog 相同，校验失败时 panic（用于内置目录）
func MustCatalog(groups []ToolGroup, complexTools []string) *Catalog {
	c, err := NewCatalog(groups, complexTools)
	if err != nil {
		panic(err)
	}
	return c
}

// Operations 返回分层内的操作副本
func (c *Catalog) Operations(t Tier) []string {
	ops := c.groups[t]
	out := make([]string, len(ops))
	copy(out, ops)
	return out
}

// TierOf 返回操作所属分层
func (c *Catalog) TierOf(op string) (Tier, bool) {
	t, ok := c.tierOf[op]
	return t, ok
}

// Has 操作是否在目录中
func (c *Catalog) Has(op string) bool {
	_, ok := c.tierOf[op]
	return ok
}

// IsComplex 操作是否属于 COMPLEX_TOOLS
func (c *Catalog) IsComplex(op string) bool {
	return c.complex[op]
}

// ComplexTools 返回 COMPLEX_TOOLS 副本
func (c *Catalog) ComplexTools() []string {
	out := make([]string, len(c.complexOrder))
	copy(out, c.complexOrder)
	return out
}

// Groups 按 AllTiers 顺序返回全部分层
func (c *Catalog) Groups() []ToolGroup {
	out := make([]ToolGroup, 0, len(c.groups))
	for _, t := range AllTiers {
		if _, ok := c.groups[t]; ok {
			out = append(out, ToolGroup{Tier: t, Operations: c.Operations(t)})
		}
	}
	return out
}

// Size 目录中的操作总数
func (c *Catalog) Size() int {
	return len(c.tierOf)
}
