package fallback

import (
	"context"
	"testing"

	"github.com/BaSui01/toolgate/capability"
	"pgregory.net/rapid"
)

// JSON 准确度低的模型永远不会触发真实的 create_credential；
// 大容量高准确度模型永远会调用真实调用器。
func TestProperty_Orchestrator_CredentialRouting(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		low := capability.Profile{
			MaxTools:         rapid.IntRange(0, 100).Draw(rt, "low_max_tools"),
			ComplexReasoning: rapid.Bool().Draw(rt, "low_reasoning"),
			JSONAccuracy:     capability.JSONAccuracyLow,
		}
		registry := capability.NewRegistry([]capability.Entry{
			{Name: "low-model", Profile: low},
			{Name: "strong-model", Profile: capability.Profile{MaxTools: 50, ComplexReasoning: true, JSONAccuracy: capability.JSONAccuracyHigh}},
		})
		o := NewOrchestrator(registry, nil, nil)
		args := map[string]any{"name": rapid.String().Draw(rt, "name")}

		inv := &countingInvoker{result: "ok"}
		out, err := o.Execute(context.Background(), "create_credential", "low-model", inv, args)
		if err != nil || inv.calls != 0 || !out.FellBack {
			rt.Fatalf("low accuracy model reached the invoker: calls=%d err=%v", inv.calls, err)
		}

		inv = &countingInvoker{result: "ok"}
		out, err = o.Execute(context.Background(), "create_credential", "strong-model", inv, args)
		if err != nil || inv.calls != 1 || out.FellBack {
			rt.Fatalf("strong model did not reach the invoker: calls=%d err=%v", inv.calls, err)
		}
	})
}
