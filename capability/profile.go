package capability

// JSONAccuracy 模型产出结构化参数（JSON）的可靠程度
type JSONAccuracy string

const (
	JSONAccuracyLow    JSONAccuracy = "low"
	JSONAccuracyMedium JSONAccuracy = "medium"
	JSONAccuracyHigh   JSONAccuracy = "high"
)

// Valid 判断取值是否合法
func (a JSONAccuracy) Valid() bool {
	switch a {
	case JSONAccuracyLow, JSONAccuracyMedium, JSONAccuracyHigh:
		return true
	}
	return false
}

// Profile 模型能力画像，查出后不可变
type Profile struct {
	// 可暴露工具数量硬上限
	MaxTools int `yaml:"max_tools" json:"max_tools"`
	// 上下文窗口（tokens）
	ContextWindow int `yaml:"context_window" json:"context_window"`
	// 是否具备复杂推理能力
	ComplexReasoning bool `yaml:"complex_reasoning" json:"complex_reasoning"`
	// JSON 参数准确度
	JSONAccuracy JSONAccuracy `yaml:"json_accuracy" json:"json_accuracy"`
	// 单次响应允许的并发工具调用数
	MaxConcurrentTools int `yaml:"max_concurrent_tools" json:"max_concurrent_tools"`
	// 是否支持多语言
	SupportsMultilingual bool `yaml:"supports_multilingual" json:"supports_multilingual"`
	// 推荐批大小，用于推导上下文保留上限
	RecommendedBatchSize int `yaml:"recommended_batch_size" json:"recommended_batch_size"`
}

// DefaultProfile 未识别模型使用的保守画像
func DefaultProfile() Profile {
	return Profile{
		MaxTools:             10,
		ContextWindow:        8192,
		ComplexReasoning:     false,
		JSONAccuracy:         JSONAccuracyMedium,
		MaxConcurrentTools:   2,
		SupportsMultilingual: false,
		RecommendedBatchSize: 3,
	}
}

// Entry 种子表中的一行：模型名 -> 能力画像
type Entry struct {
	Name    string  `yaml:"name" json:"name"`
	Profile Profile `yaml:"profile" json:"profile"`
}

// ContextLimits 由能力画像推导出的会话上下文限制
type ContextLimits struct {
	MaxContextItems         int `json:"max_context_items"`
	ContextSummaryTrigger   int `json:"context_summary_trigger"`
	MaxToolCallsPerResponse int `json:"max_tool_calls_per_response"`
}

// LimitsFor 按画像推导上下文限制
func LimitsFor(p Profile) ContextLimits {
	return ContextLimits{
		MaxContextItems:         min(10, p.RecommendedBatchSize*2),
		ContextSummaryTrigger:   p.RecommendedBatchSize * 3,
		MaxToolCallsPerResponse: p.MaxConcurrentTools,
	}
}
