package exposure

import (
	"testing"

	"github.com/BaSui01/toolgate/capability"
	"github.com/stretchr/testify/assert"
)

func testRegistry() *capability.Registry {
	return capability.NewRegistry([]capability.Entry{
		{Name: "tiny", Profile: capability.Profile{MaxTools: 4}},
		{Name: "eight", Profile: capability.Profile{MaxTools: 8}},
		{Name: "twelve", Profile: capability.Profile{MaxTools: 12}},
		{Name: "fifteen-simple", Profile: capability.Profile{MaxTools: 15}},
		{Name: "fifteen-smart", Profile: capability.Profile{MaxTools: 15, ComplexReasoning: true}},
		{Name: "big-smart", Profile: capability.Profile{MaxTools: 50, ComplexReasoning: true}},
		{Name: "zero", Profile: capability.Profile{MaxTools: 0}},
	})
}

func TestEngine_UnknownModelStartsWithBasicTier(t *testing.T) {
	c := DefaultCatalog()
	e := NewEngine(capability.NewDefaultRegistry(), c)

	// 默认画像 MaxTools=10：basic 完整保留，users 分层（MaxTools >= 8）补满剩余 4 个
	tools := e.AvailableTools("unknown-model", 0)
	assert.Len(t, tools, 10)
	assert.Equal(t, c.Operations(TierBasic), tools[:6])
	assert.Equal(t, c.Operations(TierUsers), tools[6:])
	assert.NotContains(t, tools, "list_inventories")
}

func TestEngine_ExposedTiers(t *testing.T) {
	e := NewEngine(testRegistry(), DefaultCatalog())

	tests := []struct {
		model  string
		length int
		want   []Tier
	}{
		{"tiny", 0, []Tier{TierBasic}},
		{"tiny", 1, []Tier{TierBasic, TierInventory}},
		{"eight", 0, []Tier{TierBasic, TierUsers}},
		{"twelve", 3, []Tier{TierBasic, TierInventory, TierUsers, TierProjects, TierOrganizations}},
		{"fifteen-simple", 0, []Tier{TierBasic, TierUsers, TierProjects, TierOrganizations}},
		{"fifteen-smart", 0, []Tier{TierBasic, TierUsers, TierProjects, TierOrganizations, TierSchedules}},
		{"big-smart", 2, AllTiers},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ExposedTiers(tt.model, tt.length))
		})
	}
}

func TestEngine_AvailableTools_TruncatesInTierOrder(t *testing.T) {
	c := DefaultCatalog()
	e := NewEngine(testRegistry(), c)

	// basic(6) 超出 4 个上限，只保留前 4 个
	assert.Equal(t, c.Operations(TierBasic)[:4], e.AvailableTools("tiny", 5))

	// eight：basic(6) + users 前 2 个；inventory 未解锁
	got := e.AvailableTools("eight", 0)
	want := append(c.Operations(TierBasic), c.Operations(TierUsers)[:2]...)
	assert.Equal(t, want, got)

	// eight 且会话已开始：inventory 先于 users 并入，users 被挤掉
	got = e.AvailableTools("eight", 1)
	want = append(c.Operations(TierBasic), c.Operations(TierInventory)[:2]...)
	assert.Equal(t, want, got)

	assert.Empty(t, e.AvailableTools("zero", 10))
}

func TestEngine_AvailableTools_BigModelGetsEverything(t *testing.T) {
	c := DefaultCatalog()
	e := NewEngine(testRegistry(), c)

	tools := e.AvailableTools("big-smart", 1)
	assert.Len(t, tools, c.Size())
	assert.Equal(t, "list_job_templates", tools[0])
	assert.Equal(t, "create_credential", tools[len(tools)-1])
}

func TestEngine_IsExposed(t *testing.T) {
	e := NewEngine(testRegistry(), DefaultCatalog())

	assert.True(t, e.IsExposed("tiny", 0, "list_job_templates"))
	assert.False(t, e.IsExposed("tiny", 0, "get_job_output"))
	assert.False(t, e.IsExposed("twelve", 0, "create_credential"))
	assert.True(t, e.IsExposed("big-smart", 0, "create_credential"))
	assert.False(t, e.IsExposed("big-smart", 0, "not_a_tool"))
}

func TestEngine_ShouldUseSimplifiedPrompt(t *testing.T) {
	e := NewEngine(testRegistry(), DefaultCatalog())

	// MaxTools <= 10 一律简化
	assert.True(t, e.ShouldUseSimplifiedPrompt("eight", "list_jobs"))
	assert.True(t, e.ShouldUseSimplifiedPrompt("unknown", "list_jobs"))
	// 复杂工具且无复杂推理
	assert.True(t, e.ShouldUseSimplifiedPrompt("fifteen-simple", "create_credential"))
	assert.False(t, e.ShouldUseSimplifiedPrompt("fifteen-simple", "list_jobs"))
	// 有复杂推理
	assert.False(t, e.ShouldUseSimplifiedPrompt("fifteen-smart", "create_credential"))
}

func TestNewEngine_NilCatalogUsesDefault(t *testing.T) {
	e := NewEngine(nil, nil)
	assert.Equal(t, DefaultCatalog().Size(), e.Catalog().Size())
	assert.Len(t, e.AvailableTools("x", 0), 10)
}
