package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "kaushal-ai-api/internal/domain/service"
	wfmodel "kaushal-ai-api/internal/workflow/model"
	wfnode "kaushal-ai-api/internal/workflow/node"
	workflowport "kaushal-ai-api/internal/workflow/port"
	workflowprompt "kaushal-ai-api/internal/workflow/prompt"
	"kaushal-ai-api/pkg/logger"
)

// OptimizePostChain 草稿优化链：既有正文 -> 面向 LinkedIn 打磨后的载荷。
type OptimizePostChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.PostOptimizeInput, *schema.Message]
	chainErr  error
}

func NewOptimizePostChain(factory workflowport.ChatModelFactory) *OptimizePostChain {
	return &OptimizePostChain{factory: factory}
}

func (c *OptimizePostChain) Invoke(ctx context.Context, in *wfmodel.PostOptimizeInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type optimizeChainState struct {
	In       *wfmodel.PostOptimizeInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *OptimizePostChain) getChain() (compose.Runnable[*wfmodel.PostOptimizeInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *OptimizePostChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.PostOptimizeInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.PostOptimizeInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.PostOptimizeInput) (*optimizeChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &optimizeChainState{In: in}, nil
		}),
		compose.WithNodeName("optimize_post.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *optimizeChainState) (*optimizeChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatOptimizeMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("optimize_post.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *optimizeChainState) (*optimizeChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "optimize_post", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			params := modelParams{Model: st.In.Model, Temperature: st.In.Temperature, MaxTokens: st.In.MaxTokens}
			outMsg, err := chatModel.Generate(ctx, st.Messages, buildPostModelOptions(params, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildPostModelOptions(params, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("optimize_post.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *optimizeChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("optimize_post.finalize"),
	)

	return chain.Compile(ctx)
}

func formatOptimizeMessages(ctx context.Context, in *wfmodel.PostOptimizeInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptOptimizePostV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"content":  strings.TrimSpace(in.Content),
		"hashtags": strings.Join(in.Hashtags, " "),
		"industry": strings.TrimSpace(in.Industry),
		"tone":     strings.TrimSpace(in.Tone),
	}
	return tpl.Format(ctx, vars)
}
