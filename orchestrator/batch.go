package orchestrator

import (
	"context"
	"fmt"

	"github.com/BaSui01/toolgate/capability"
	"github.com/BaSui01/toolgate/types"
	"golang.org/x/sync/errgroup"
)

// HandleBatch 在同一会话内并发处理多个调用。
// 调用数超过模型的 max_tool_calls_per_response 时整体拒绝；并发度不超过 max_concurrent_tools。
// 单个调用的失败只体现在对应的 BatchItem 中，结果顺序与输入一致。
func (s *Service) HandleBatch(ctx context.Context, conversationID, model string, calls []Call) ([]BatchItem, error) {
	if len(calls) == 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "batch must contain at least one call")
	}

	limits := capability.LimitsFor(s.registry.Resolve(model))
	if len(calls) > limits.MaxToolCallsPerResponse {
		return nil, types.NewError(types.ErrBatchTooLarge,
			fmt.Sprintf("model %q accepts at most %d tool calls per response, got %d",
				model, limits.MaxToolCallsPerResponse, len(calls)))
	}

	items := make([]BatchItem, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limits.MaxToolCallsPerResponse, 1))

	for i, call := range calls {
		g.Go(func() error {
			resp, err := s.Handle(gctx, Request{
				ConversationID: conversationID,
				Model:          model,
				Operation:      call.Operation,
				Args:           call.Args,
			})
			items[i] = BatchItem{Operation: call.Operation, Response: resp, Error: err}
			return nil // 单个失败不取消其它调用
		})
	}
	_ = g.Wait()

	return items, nil
}
