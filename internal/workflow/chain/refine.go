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

// RefinePostChain 指令改写链：在原文基础上按用户指令一次性改写。
type RefinePostChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.PostRefineInput, *schema.Message]
	chainErr  error
}

func NewRefinePostChain(factory workflowport.ChatModelFactory) *RefinePostChain {
	return &RefinePostChain{factory: factory}
}

func (c *RefinePostChain) Invoke(ctx context.Context, in *wfmodel.PostRefineInput) (*schema.Message, error) {
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

type refineChainState struct {
	In       *wfmodel.PostRefineInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *RefinePostChain) getChain() (compose.Runnable[*wfmodel.PostRefineInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *RefinePostChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.PostRefineInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.PostRefineInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.PostRefineInput) (*refineChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &refineChainState{In: in}, nil
		}),
		compose.WithNodeName("refine_post.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *refineChainState) (*refineChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatRefineMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("refine_post.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *refineChainState) (*refineChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "refine_post", strings.TrimSpace(st.In.Provider))
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
		compose.WithNodeName("refine_post.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *refineChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("refine_post.finalize"),
	)

	return chain.Compile(ctx)
}

func formatRefineMessages(ctx context.Context, in *wfmodel.PostRefineInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptRefinePostV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"original_content": strings.TrimSpace(in.OriginalContent),
		"instruction":      buildRefineInstruction(in),
		"industry":         strings.TrimSpace(in.Industry),
		"tone":             strings.TrimSpace(in.Tone),
		"length":           strings.TrimSpace(in.Length),
	}
	return tpl.Format(ctx, vars)
}

// buildRefineInstruction 把各类指令合并为一段指令文本，保证一次调用内全部生效。
func buildRefineInstruction(in *wfmodel.PostRefineInput) string {
	var lines []string
	if s := strings.TrimSpace(in.Instruction); s != "" {
		lines = append(lines, s)
	}
	if s := strings.TrimSpace(in.LengthCue); s != "" {
		lines = append(lines, "Adjust the length: "+s)
	}
	if s := strings.TrimSpace(in.ToneCue); s != "" {
		lines = append(lines, "Adjust the tone: "+s)
	}
	if s := strings.TrimSpace(in.PerspectiveCue); s != "" {
		lines = append(lines, "Rewrite from this perspective: "+s)
	}
	for _, extra := range in.ExtraCues {
		if s := strings.TrimSpace(extra); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return "Improve the post while keeping its meaning."
	}
	return strings.Join(lines, "\n")
}
