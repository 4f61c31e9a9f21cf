package conversation

import (
	"fmt"
	"testing"

	"github.com/BaSui01/toolgate/capability"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// 记录 N 次后保留 min(N, cap) 条，且正是最近记录的那些，相对顺序不变
func TestProperty_Context_RetentionInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("retained calls are the most recent ones in order", prop.ForAll(
		func(capacity int, n int) bool {
			c := NewContext("p", "m", capability.ContextLimits{MaxContextItems: capacity, ContextSummaryTrigger: 1000})
			for i := 0; i < n; i++ {
				c.Record(fmt.Sprintf("op_%d", i), nil, nil, i%3 != 0, 0)
				if c.Len() > capacity {
					return false
				}
			}

			calls := c.Calls()
			want := min(n, capacity)
			if len(calls) != want {
				return false
			}
			for i, call := range calls {
				if call.ToolName != fmt.Sprintf("op_%d", n-want+i) {
					return false
				}
			}
			return c.TotalRecorded() == n
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}
