package capability

// SeedEntries 返回内置的模型能力种子表。
// 顺序即声明顺序，词干匹配按此顺序取第一个命中项。
func SeedEntries() []Entry {
	return []Entry{
		// 小模型：工具面和上下文都需要严格收缩
		{Name: "phi3:mini", Profile: Profile{MaxTools: 5, ContextWindow: 4096, JSONAccuracy: JSONAccuracyLow, MaxConcurrentTools: 1, RecommendedBatchSize: 2}},
		{Name: "llama3.2:3b", Profile: Profile{MaxTools: 6, ContextWindow: 8192, JSONAccuracy: JSONAccuracyLow, MaxConcurrentTools: 1, RecommendedBatchSize: 2}},
		{Name: "mistral:7b", Profile: Profile{MaxTools: 8, ContextWindow: 32768, JSONAccuracy: JSONAccuracyMedium, MaxConcurrentTools: 2, RecommendedBatchSize: 3}},
		{Name: "gemma2:9b", Profile: Profile{MaxTools: 10, ContextWindow: 8192, JSONAccuracy: JSONAccuracyMedium, MaxConcurrentTools: 2, SupportsMultilingual: true, RecommendedBatchSize: 3}},
		{Name: "llama3.1:8b", Profile: Profile{MaxTools: 10, ContextWindow: 32768, JSONAccuracy: JSONAccuracyMedium, MaxConcurrentTools: 2, SupportsMultilingual: true, RecommendedBatchSize: 3}},
		{Name: "qwen2.5:7b", Profile: Profile{MaxTools: 12, ContextWindow: 32768, JSONAccuracy: JSONAccuracyMedium, MaxConcurrentTools: 2, SupportsMultilingual: true, RecommendedBatchSize: 3}},

		// 中等模型
		{Name: "deepseek-r1:14b", Profile: Profile{MaxTools: 14, ContextWindow: 65536, ComplexReasoning: true, JSONAccuracy: JSONAccuracyMedium, MaxConcurrentTools: 2, SupportsMultilingual: true, RecommendedBatchSize: 3}},
		{Name: "mixtral:8x7b", Profile: Profile{MaxTools: 15, ContextWindow: 32768, ComplexReasoning: true, JSONAccuracy: JSONAccuracyMedium, MaxConcurrentTools: 3, SupportsMultilingual: true, RecommendedBatchSize: 4}},
		{Name: "qwen2.5:14b", Profile: Profile{MaxTools: 16, ContextWindow: 32768, ComplexReasoning: true, JSONAccuracy: JSONAccuracyHigh, MaxConcurrentTools: 3, SupportsMultilingual: true, RecommendedBatchSize: 4}},
		{Name: "qwen2.5:32b", Profile: Profile{MaxTools: 22, ContextWindow: 32768, ComplexReasoning: true, JSONAccuracy: JSONAccuracyHigh, MaxConcurrentTools: 4, SupportsMultilingual: true, RecommendedBatchSize: 5}},
		{Name: "llama3.1:70b", Profile: Profile{MaxTools: 25, ContextWindow: 131072, ComplexReasoning: true, JSONAccuracy: JSONAccuracyHigh, MaxConcurrentTools: 4, SupportsMultilingual: true, RecommendedBatchSize: 5}},

		// 托管大模型（gpt-4o-mini 必须排在 gpt-4o 之前）
		{Name: "gpt-4o-mini", Profile: Profile{MaxTools: 30, ContextWindow: 128000, ComplexReasoning: true, JSONAccuracy: JSONAccuracyHigh, MaxConcurrentTools: 5, SupportsMultilingual: true, RecommendedBatchSize: 5}},
		{Name: "gpt-4o", Profile: Profile{MaxTools: 50, ContextWindow: 128000, ComplexReasoning: true, JSONAccuracy: JSONAccuracyHigh, MaxConcurrentTools: 8, SupportsMultilingual: true, RecommendedBatchSize: 5}},
		{Name: "claude-3-5-sonnet", Profile: Profile{MaxTools: 50, ContextWindow: 200000, ComplexReasoning: true, JSONAccuracy: JSONAccuracyHigh, MaxConcurrentTools: 8, SupportsMultilingual: true, RecommendedBatchSize: 5}},
	}
}
