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

// SuggestionsChain 选题建议链：按行业产出帖子话题列表。
type SuggestionsChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.SuggestionsInput, *schema.Message]
	chainErr  error
}

func NewSuggestionsChain(factory workflowport.ChatModelFactory) *SuggestionsChain {
	return &SuggestionsChain{factory: factory}
}

func (c *SuggestionsChain) Invoke(ctx context.Context, in *wfmodel.SuggestionsInput) (*schema.Message, error) {
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

type suggestionsChainState struct {
	In       *wfmodel.SuggestionsInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *SuggestionsChain) getChain() (compose.Runnable[*wfmodel.SuggestionsInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *SuggestionsChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.SuggestionsInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.SuggestionsInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.SuggestionsInput) (*suggestionsChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &suggestionsChainState{In: in}, nil
		}),
		compose.WithNodeName("suggestions.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *suggestionsChainState) (*suggestionsChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptSuggestionsV1)
			if err != nil {
				return nil, err
			}
			msgs, err := tpl.Format(ctx, map[string]any{
				"industry": strings.TrimSpace(st.In.Industry),
			})
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("suggestions.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *suggestionsChainState) (*suggestionsChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "suggestions", strings.TrimSpace(st.In.Provider))
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
		compose.WithNodeName("suggestions.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *suggestionsChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("suggestions.finalize"),
	)

	return chain.Compile(ctx)
}
