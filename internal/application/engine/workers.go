package engine

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"kaushal-ai-api/internal/domain/entity"
	"kaushal-ai-api/internal/workflow/chain"
	wfmodel "kaushal-ai-api/internal/workflow/model"
	wfnode "kaushal-ai-api/internal/workflow/node"
	"kaushal-ai-api/pkg/errors"
	"kaushal-ai-api/pkg/logger"
	"kaushal-ai-api/pkg/metrics"
)

// CreateWorker 首稿工作者：话题 -> 初稿 -> LinkedIn 优化二次打磨。
// 二次打磨失败不致命，退回初稿继续本轮。
type CreateWorker struct {
	create   *chain.CreatePostChain
	optimize *chain.OptimizePostChain
	provider string
	timeout  time.Duration
}

// NewCreateWorker 创建首稿工作者
func NewCreateWorker(create *chain.CreatePostChain, optimize *chain.OptimizePostChain, provider string, timeout time.Duration) *CreateWorker {
	return &CreateWorker{create: create, optimize: optimize, provider: provider, timeout: timeout}
}

// Produce 生成一篇发布可用的草稿载荷
func (w *CreateWorker) Produce(ctx context.Context, sess *entity.Session, topic string, photoDerived bool) (*wfmodel.PostPayload, *wfmodel.PromptTrace, error) {
	ctx, cancel := withGenerationTimeout(ctx, w.timeout)
	defer cancel()

	in := &wfmodel.PostGenerateInput{
		Topic:        topic,
		Industry:     sess.Prefs.Industry,
		Tone:         sess.Prefs.Tone,
		Length:       sess.Prefs.Length,
		PhotoDerived: photoDerived,
		Provider:     w.provider,
	}

	start := time.Now()
	outMsg, err := w.create.Invoke(ctx, in)
	observeLLMCall(w.provider, "create_post", start, err)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeGenerationFailed, "create draft failed")
	}

	payload := wfnode.ParsePostPayload(outMsg.Content)
	if payload == nil || strings.TrimSpace(payload.Content) == "" {
		return nil, nil, errors.New(errors.CodeEmptyGeneration, "create draft returned empty content")
	}
	trace := buildTrace("create_post_v1", w.provider, outMsg)

	// 二次打磨：失败时保留初稿
	optimized, err := w.polish(ctx, sess, payload)
	if err != nil {
		logger.Warn(ctx, "optimize pass failed, keeping base draft", "error", err.Error())
		return payload, trace, nil
	}
	return optimized, trace, nil
}

func (w *CreateWorker) polish(ctx context.Context, sess *entity.Session, base *wfmodel.PostPayload) (*wfmodel.PostPayload, error) {
	in := &wfmodel.PostOptimizeInput{
		Content:  base.Content,
		Hashtags: base.Hashtags,
		Industry: sess.Prefs.Industry,
		Tone:     sess.Prefs.Tone,
		Provider: w.provider,
	}

	start := time.Now()
	outMsg, err := w.optimize.Invoke(ctx, in)
	observeLLMCall(w.provider, "optimize_post", start, err)
	if err != nil {
		return nil, err
	}

	payload := wfnode.ParsePostPayload(outMsg.Content)
	if payload == nil || strings.TrimSpace(payload.Content) == "" {
		return nil, errors.New(errors.CodeEmptyGeneration, "optimize pass returned empty content")
	}
	return payload, nil
}

// OptimizeWorker 打磨工作者：对既有草稿做结构与表达优化
type OptimizeWorker struct {
	optimize *chain.OptimizePostChain
	provider string
	timeout  time.Duration
}

// NewOptimizeWorker 创建打磨工作者
func NewOptimizeWorker(optimize *chain.OptimizePostChain, provider string, timeout time.Duration) *OptimizeWorker {
	return &OptimizeWorker{optimize: optimize, provider: provider, timeout: timeout}
}

// Polish 打磨当前草稿
func (w *OptimizeWorker) Polish(ctx context.Context, sess *entity.Session) (*wfmodel.PostPayload, *wfmodel.PromptTrace, error) {
	ctx, cancel := withGenerationTimeout(ctx, w.timeout)
	defer cancel()

	draft := sess.CurrentDraft
	in := &wfmodel.PostOptimizeInput{
		Content:  draft.Text,
		Hashtags: draft.Hashtags,
		Industry: sess.Prefs.Industry,
		Tone:     sess.Prefs.Tone,
		Provider: w.provider,
	}

	start := time.Now()
	outMsg, err := w.optimize.Invoke(ctx, in)
	observeLLMCall(w.provider, "optimize_post", start, err)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeGenerationFailed, "optimize draft failed")
	}

	payload := wfnode.ParsePostPayload(outMsg.Content)
	if payload == nil || strings.TrimSpace(payload.Content) == "" {
		return nil, nil, errors.New(errors.CodeEmptyGeneration, "optimize returned empty content")
	}
	return payload, buildTrace("optimize_post_v1", w.provider, outMsg), nil
}

// RefineWorker 改写工作者：在保留原稿主题与事实的前提下，一次性应用全部指令
type RefineWorker struct {
	refine   *chain.RefinePostChain
	provider string
	timeout  time.Duration
}

// NewRefineWorker 创建改写工作者
func NewRefineWorker(refine *chain.RefinePostChain, provider string, timeout time.Duration) *RefineWorker {
	return &RefineWorker{refine: refine, provider: provider, timeout: timeout}
}

// Apply 按指令集改写当前草稿
func (w *RefineWorker) Apply(ctx context.Context, sess *entity.Session, cues entity.CueSet) (*wfmodel.PostPayload, *wfmodel.PromptTrace, error) {
	ctx, cancel := withGenerationTimeout(ctx, w.timeout)
	defer cancel()

	draft := sess.CurrentDraft

	// 快捷修饰词同步进偏好，后续轮次沿用
	tone := sess.Prefs.Tone
	if cues.Tone != "" {
		tone = cues.Tone
	}
	length := sess.Prefs.Length
	if cues.Length != "" {
		length = cues.Length
	}

	in := &wfmodel.PostRefineInput{
		OriginalContent: draft.Text,
		LengthCue:       cues.Length,
		ToneCue:         cues.Tone,
		PerspectiveCue:  cues.Perspective,
		ExtraCues:       cues.Instructions,
		Industry:        sess.Prefs.Industry,
		Tone:            tone,
		Length:          length,
		Provider:        w.provider,
	}

	start := time.Now()
	outMsg, err := w.refine.Invoke(ctx, in)
	observeLLMCall(w.provider, "refine_post", start, err)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeGenerationFailed, "refine draft failed")
	}

	payload := wfnode.ParsePostPayload(outMsg.Content)
	if payload == nil || strings.TrimSpace(payload.Content) == "" {
		return nil, nil, errors.New(errors.CodeEmptyGeneration, "refine returned empty content")
	}
	return payload, buildTrace("refine_post_v1", w.provider, outMsg), nil
}

// TipsWorker 建议工作者：输出咨询性文本，不产生草稿
type TipsWorker struct {
	tips     *chain.TipsChain
	provider string
	timeout  time.Duration
}

// NewTipsWorker 创建建议工作者
func NewTipsWorker(tips *chain.TipsChain, provider string, timeout time.Duration) *TipsWorker {
	return &TipsWorker{tips: tips, provider: provider, timeout: timeout}
}

// Answer 回答内容策略问题，可带当前草稿作为上下文
func (w *TipsWorker) Answer(ctx context.Context, sess *entity.Session, question string) (string, error) {
	ctx, cancel := withGenerationTimeout(ctx, w.timeout)
	defer cancel()

	in := &wfmodel.TipsInput{
		Question: question,
		Provider: w.provider,
	}
	if sess.HasDraft() {
		in.DraftContext = sess.CurrentDraft.Text
	}

	start := time.Now()
	outMsg, err := w.tips.Invoke(ctx, in)
	observeLLMCall(w.provider, "tips", start, err)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeGenerationFailed, "tips generation failed")
	}

	answer := strings.TrimSpace(outMsg.Content)
	if answer == "" {
		return "", errors.New(errors.CodeEmptyGeneration, "tips returned empty content")
	}
	return answer, nil
}

func withGenerationTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func observeLLMCall(provider, model string, start time.Time, err error) {
	metrics.LLMCallDuration.WithLabelValues(provider, model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallErrors.WithLabelValues(provider, model).Inc()
	}
}

func buildTrace(promptID, provider string, outMsg *schema.Message) *wfmodel.PromptTrace {
	trace := &wfmodel.PromptTrace{
		PromptID:    promptID,
		Provider:    provider,
		GeneratedAt: time.Now(),
	}
	if outMsg != nil && outMsg.ResponseMeta != nil && outMsg.ResponseMeta.Usage != nil {
		usage := outMsg.ResponseMeta.Usage
		trace.PromptTokens = usage.PromptTokens
		trace.CompletionTokens = usage.CompletionTokens
		metrics.LLMTokensUsed.WithLabelValues(provider, trace.Model, "prompt").Add(float64(usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(provider, trace.Model, "completion").Add(float64(usage.CompletionTokens))
	}
	return trace
}
