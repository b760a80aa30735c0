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

// CreatePostChain 首稿生成链：话题 + 偏好 -> 结构化帖子载荷。
type CreatePostChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.PostGenerateInput, *schema.Message]
	chainErr  error
}

func NewCreatePostChain(factory workflowport.ChatModelFactory) *CreatePostChain {
	return &CreatePostChain{factory: factory}
}

func (c *CreatePostChain) Invoke(ctx context.Context, in *wfmodel.PostGenerateInput) (*schema.Message, error) {
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

type createChainState struct {
	In       *wfmodel.PostGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *CreatePostChain) getChain() (compose.Runnable[*wfmodel.PostGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *CreatePostChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.PostGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.PostGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.PostGenerateInput) (*createChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &createChainState{In: in}, nil
		}),
		compose.WithNodeName("create_post.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *createChainState) (*createChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatCreateMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("create_post.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *createChainState) (*createChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "create_post", strings.TrimSpace(st.In.Provider))
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
		compose.WithNodeName("create_post.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *createChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("create_post.finalize"),
	)

	return chain.Compile(ctx)
}

func formatCreateMessages(ctx context.Context, in *wfmodel.PostGenerateInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptCreatePostV1)
	if err != nil {
		return nil, err
	}

	topic := strings.TrimSpace(in.Topic)
	if in.PhotoDerived {
		topic = "Photo attached. Context: " + topic
	}

	vars := map[string]any{
		"topic":    topic,
		"industry": strings.TrimSpace(in.Industry),
		"tone":     strings.TrimSpace(in.Tone),
		"length":   strings.TrimSpace(in.Length),
	}
	return tpl.Format(ctx, vars)
}
