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
	workflowport "kaushal-ai-api/internal/workflow/port"
	workflowprompt "kaushal-ai-api/internal/workflow/prompt"
)

// TipsChain 互动建议链：纯文本问答，不走结构化输出。
type TipsChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.TipsInput, *schema.Message]
	chainErr  error
}

func NewTipsChain(factory workflowport.ChatModelFactory) *TipsChain {
	return &TipsChain{factory: factory}
}

func (c *TipsChain) Invoke(ctx context.Context, in *wfmodel.TipsInput) (*schema.Message, error) {
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

type tipsChainState struct {
	In       *wfmodel.TipsInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *TipsChain) getChain() (compose.Runnable[*wfmodel.TipsInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *TipsChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.TipsInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.TipsInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.TipsInput) (*tipsChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &tipsChainState{In: in}, nil
		}),
		compose.WithNodeName("tips.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *tipsChainState) (*tipsChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptTipsV1)
			if err != nil {
				return nil, err
			}
			draftContext := strings.TrimSpace(st.In.DraftContext)
			if draftContext == "" {
				draftContext = "(no draft yet)"
			}
			msgs, err := tpl.Format(ctx, map[string]any{
				"question":      strings.TrimSpace(st.In.Question),
				"draft_context": draftContext,
			})
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("tips.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *tipsChainState) (*tipsChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "tips", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			params := modelParams{Model: st.In.Model, Temperature: st.In.Temperature, MaxTokens: st.In.MaxTokens}
			outMsg, err := chatModel.Generate(ctx, st.Messages, buildTextModelOptions(params)...)
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("tips.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *tipsChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("tips.finalize"),
	)

	return chain.Compile(ctx)
}
