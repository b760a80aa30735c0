package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kaushal-ai-api/internal/config"
	"kaushal-ai-api/internal/domain/entity"
	"kaushal-ai-api/internal/domain/repository"
	"kaushal-ai-api/internal/infrastructure/messaging"
	wfmodel "kaushal-ai-api/internal/workflow/model"
	"kaushal-ai-api/pkg/logger"
	"kaushal-ai-api/pkg/metrics"
)

// TurnResult 一轮编排的产出
type TurnResult struct {
	TurnID    string        `json:"turn_id"`
	Intent    entity.Intent `json:"intent"`
	ReplyText string        `json:"reply_text"`
	IsDraft   bool          `json:"is_draft"`
	PostID    string        `json:"post_id,omitempty"`

	failed bool
}

// Orchestrator 编排器：每轮按固定状态机推进，是草稿状态的唯一写入方。
// Received -> Classified -> StateLoaded -> Dispatched -> GenerationComplete -> Persisted -> Replied
type Orchestrator struct {
	store      *Store
	classifier *Classifier
	dispatcher *Dispatcher

	createWorker   *CreateWorker
	optimizeWorker *OptimizeWorker
	refineWorker   *RefineWorker
	tipsWorker     *TipsWorker

	users    repository.UserRepository
	posts    repository.PostRepository
	producer *messaging.Producer

	greetingEnabled bool
}

// OrchestratorConfig 编排器装配参数
type OrchestratorConfig struct {
	Store      *Store
	Classifier *Classifier
	Dispatcher *Dispatcher

	CreateWorker   *CreateWorker
	OptimizeWorker *OptimizeWorker
	RefineWorker   *RefineWorker
	TipsWorker     *TipsWorker

	Users    repository.UserRepository
	Posts    repository.PostRepository
	Producer *messaging.Producer

	Features config.FeaturesConfig
}

// NewOrchestrator 创建编排器
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		store:           cfg.Store,
		classifier:      cfg.Classifier,
		dispatcher:      cfg.Dispatcher,
		createWorker:    cfg.CreateWorker,
		optimizeWorker:  cfg.OptimizeWorker,
		refineWorker:    cfg.RefineWorker,
		tipsWorker:      cfg.TipsWorker,
		users:           cfg.Users,
		posts:           cfg.Posts,
		producer:        cfg.Producer,
		greetingEnabled: cfg.Features.ConnectGreeting,
	}
}

// HandleMessage 处理一条入站消息。
// 同一用户的轮次在其串行队列内按到达顺序执行，在途轮次不被抢占。
func (o *Orchestrator) HandleMessage(ctx context.Context, msg *Message) (*TurnResult, error) {
	if msg == nil || msg.UserID == 0 {
		return nil, fmt.Errorf("invalid message: missing user id")
	}

	var result *TurnResult
	err := o.dispatcher.Do(ctx, msg.UserID, func() {
		result = o.handleTurn(ctx, msg)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// handleTurn 单轮状态机，仅在用户的串行队列内运行
func (o *Orchestrator) handleTurn(ctx context.Context, msg *Message) *TurnResult {
	turnID := uuid.NewString()
	ctx = logger.WithContext(ctx, logger.TurnIDKey, turnID)
	ctx = logger.WithContext(ctx, logger.UserIDKey, msg.UserID)

	start := time.Now()
	logger.Info(ctx, "turn received", "has_photo", msg.HasPhoto)

	// StateLoaded
	sess := o.store.Get(ctx, msg.UserID)

	greeting := o.maybeGreeting(ctx, sess)

	content := msg.Content()
	if content == "" {
		if msg.HasPhoto {
			return o.finishTurn(ctx, turnID, entity.IntentAmbiguous, start, &TurnResult{
				TurnID:    turnID,
				Intent:    entity.IntentAmbiguous,
				ReplyText: greeting + "Got the photo! Please add a caption describing the event or key details, and I'll craft a post.",
			}, "success")
		}
		return o.finishTurn(ctx, turnID, entity.IntentAmbiguous, start, &TurnResult{
			TurnID:    turnID,
			Intent:    entity.IntentAmbiguous,
			ReplyText: greeting + "Please describe what you'd like me to write for your LinkedIn post.",
		}, "success")
	}

	// Classified
	cls := o.classifier.Classify(msg, sess)
	logger.Info(ctx, "turn classified",
		"intent", string(cls.Intent),
		"regenerate", cls.Regenerate,
		"cue_categories", cls.Cues.Categories(),
	)

	// Dispatched：意图为封闭枚举，新增分支必须在此补全
	var result *TurnResult
	switch cls.Intent {
	case entity.IntentCreate:
		result = o.runCreate(ctx, turnID, sess, msg, cls, false)
	case entity.IntentAmbiguous:
		result = o.runCreate(ctx, turnID, sess, msg, cls, true)
	case entity.IntentRefine:
		result = o.runRefine(ctx, turnID, sess, cls)
	case entity.IntentOptimize:
		result = o.runOptimize(ctx, turnID, sess, cls)
	case entity.IntentTips:
		result = o.runTips(ctx, turnID, sess, cls)
	default:
		result = &TurnResult{
			TurnID:    turnID,
			Intent:    cls.Intent,
			ReplyText: "Please describe what you'd like me to write for your LinkedIn post.",
		}
	}

	result.ReplyText = greeting + result.ReplyText

	status := "success"
	if result.failed {
		status = "failed"
	}
	return o.finishTurn(ctx, turnID, cls.Intent, start, result, status)
}

func (o *Orchestrator) finishTurn(ctx context.Context, turnID string, intent entity.Intent, start time.Time, result *TurnResult, status string) *TurnResult {
	metrics.TurnsTotal.WithLabelValues(string(intent), status).Inc()
	metrics.TurnDuration.WithLabelValues(string(intent)).Observe(time.Since(start).Seconds())
	logger.Info(ctx, "turn replied",
		"intent", string(intent),
		"status", status,
		"is_draft", result.IsDraft,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

// maybeGreeting 连接成功后的首次问候，只发一次
func (o *Orchestrator) maybeGreeting(ctx context.Context, sess *entity.Session) string {
	if !o.greetingEnabled || o.users == nil {
		return ""
	}

	user, err := o.users.GetByID(ctx, sess.UserID)
	if err != nil {
		logger.Warn(ctx, "greeting check failed", "error", err.Error())
		return ""
	}
	if user == nil {
		return ""
	}

	sess.Connected = user.IsConnected()
	if !user.IsConnected() || user.WelcomedAfterConnect {
		return ""
	}

	if err := o.users.MarkWelcomed(ctx, user.ID); err != nil {
		logger.Warn(ctx, "failed to mark user welcomed", "error", err.Error())
		return ""
	}
	now := time.Now()
	sess.LastGreetedAt = &now
	o.store.Save(ctx, sess)

	return fmt.Sprintf("Hi %s! You're connected to LinkedIn. Tell me what you need and I'll craft a LinkedIn-ready post for you.\n\n", user.DisplayName())
}

// runCreate 新建草稿。supersede 为真时旧稿移入历史（歧义转新建）。
func (o *Orchestrator) runCreate(ctx context.Context, turnID string, sess *entity.Session, msg *Message, cls Classification, supersede bool) *TurnResult {
	topic := strings.TrimSpace(cls.Topic)
	photoDerived := cls.PhotoDerived
	regenerated := false

	if cls.Regenerate {
		if !sess.HasDraft() || strings.TrimSpace(sess.CurrentDraft.Topic) == "" {
			return &TurnResult{
				TurnID:    turnID,
				Intent:    entity.IntentCreate,
				ReplyText: "I don't have your last request yet. Please describe what you'd like me to write.",
			}
		}
		// 复用原始话题：草稿文本可以不同，来源元数据不漂移
		topic = sess.CurrentDraft.Topic
		photoDerived = sess.CurrentDraft.SourceType == entity.PostSourcePhoto
		regenerated = true
	}

	payload, _, err := o.createWorker.Produce(ctx, sess, topic, photoDerived)
	if err != nil {
		// 生成失败不触碰当前草稿
		logger.Error(ctx, "create generation failed", err)
		return &TurnResult{
			TurnID:    turnID,
			Intent:    cls.Intent,
			ReplyText: generationFailureReply,
			failed:    true,
		}
	}

	source := entity.PostSourceText
	if photoDerived {
		source = entity.PostSourcePhoto
	}
	draft := entity.NewDraft(payload.Content, source, topic)
	draft.Hashtags = payload.Hashtags

	// GenerationComplete：提交状态变更
	if regenerated {
		sess.SupersedeDraft()
		sess.ResetLineage()
	} else if supersede {
		sess.SupersedeDraft()
	}
	sess.SetDraft(draft)

	// Persisted
	postID := o.persistDraft(ctx, turnID, sess, draft, payload)
	o.store.Save(ctx, sess)

	metrics.DraftWordCount.WithLabelValues(string(entity.IntentCreate)).Observe(float64(len(strings.Fields(payload.Content))))

	note := ""
	if regenerated {
		note = "\n(Regenerated)"
	}
	return &TurnResult{
		TurnID:    turnID,
		Intent:    cls.Intent,
		ReplyText: formatDraftReply(payload, note),
		IsDraft:   true,
		PostID:    postID,
	}
}

// runRefine 改写当前草稿。失败时当前草稿保持逐字节不变。
func (o *Orchestrator) runRefine(ctx context.Context, turnID string, sess *entity.Session, cls Classification) *TurnResult {
	payload, _, err := o.refineWorker.Apply(ctx, sess, cls.Cues)
	if err != nil {
		logger.Error(ctx, "refine generation failed", err)
		return &TurnResult{
			TurnID:    turnID,
			Intent:    entity.IntentRefine,
			ReplyText: generationFailureReply,
			failed:    true,
		}
	}

	// 快捷修饰词沉淀进偏好
	if cls.Cues.Tone != "" {
		sess.Prefs.Tone = cls.Cues.Tone
	}
	if cls.Cues.Length != "" {
		sess.Prefs.Length = cls.Cues.Length
	}

	base := sess.CurrentDraft
	draft := entity.NewDraft(payload.Content, base.SourceType, base.Topic)
	draft.Hashtags = payload.Hashtags

	sess.AppendRefinement(cls.Cues)
	sess.SetDraft(draft)

	postID := o.persistDraft(ctx, turnID, sess, draft, payload)
	o.store.Save(ctx, sess)

	metrics.DraftWordCount.WithLabelValues(string(entity.IntentRefine)).Observe(float64(len(strings.Fields(payload.Content))))

	return &TurnResult{
		TurnID:    turnID,
		Intent:    entity.IntentRefine,
		ReplyText: formatDraftReply(payload, ""),
		IsDraft:   true,
		PostID:    postID,
	}
}

// runOptimize 打磨当前草稿
func (o *Orchestrator) runOptimize(ctx context.Context, turnID string, sess *entity.Session, cls Classification) *TurnResult {
	payload, _, err := o.optimizeWorker.Polish(ctx, sess)
	if err != nil {
		logger.Error(ctx, "optimize generation failed", err)
		return &TurnResult{
			TurnID:    turnID,
			Intent:    entity.IntentOptimize,
			ReplyText: generationFailureReply,
			failed:    true,
		}
	}

	base := sess.CurrentDraft
	draft := entity.NewDraft(payload.Content, base.SourceType, base.Topic)
	draft.Hashtags = payload.Hashtags

	sess.AppendRefinement(entity.CueSet{Instructions: []string{cls.Topic}})
	sess.SetDraft(draft)

	postID := o.persistDraft(ctx, turnID, sess, draft, payload)
	o.store.Save(ctx, sess)

	metrics.DraftWordCount.WithLabelValues(string(entity.IntentOptimize)).Observe(float64(len(strings.Fields(payload.Content))))

	return &TurnResult{
		TurnID:    turnID,
		Intent:    entity.IntentOptimize,
		ReplyText: formatDraftReply(payload, ""),
		IsDraft:   true,
		PostID:    postID,
	}
}

// runTips 建议轮次：不写草稿、不落库
func (o *Orchestrator) runTips(ctx context.Context, turnID string, sess *entity.Session, cls Classification) *TurnResult {
	answer, err := o.tipsWorker.Answer(ctx, sess, cls.Topic)
	if err != nil {
		logger.Error(ctx, "tips generation failed", err)
		return &TurnResult{
			TurnID:    turnID,
			Intent:    entity.IntentTips,
			ReplyText: "Sorry, I couldn't come up with tips right now. Please try again later.",
			failed:    true,
		}
	}

	sess.LastActivityAt = time.Now()
	o.store.Save(ctx, sess)

	return &TurnResult{
		TurnID:    turnID,
		Intent:    entity.IntentTips,
		ReplyText: answer,
	}
}

// persistDraft 草稿落库。写失败不影响本轮回复：
// 内存会话已持有新草稿，仅把落库这一步丢进重试流。
func (o *Orchestrator) persistDraft(ctx context.Context, turnID string, sess *entity.Session, draft *entity.Draft, payload *wfmodel.PostPayload) string {
	post := entity.NewDraftPost(sess.UserID, draft.Text, draft.SourceType, draft.Topic)
	post.ID = uuid.NewString()
	post.Hashtags = draft.Hashtags
	post.Industry = sess.Prefs.Industry
	post.Tone = sess.Prefs.Tone
	post.SuggestedTime = payload.SuggestedTime

	if err := o.posts.Create(ctx, post); err != nil {
		logger.Error(ctx, "draft persistence failed, enqueueing retry", err)
		o.enqueuePersistRetry(ctx, turnID, sess, post)
		return post.ID
	}
	return post.ID
}

func (o *Orchestrator) enqueuePersistRetry(ctx context.Context, turnID string, sess *entity.Session, post *entity.Post) {
	if o.producer == nil {
		metrics.DraftPersistRetriesTotal.WithLabelValues("dropped").Inc()
		return
	}

	job := &messaging.DraftPersistMessage{
		PostID:        post.ID,
		UserID:        sess.UserID,
		TurnID:        turnID,
		Content:       post.Content,
		Topic:         post.Topic,
		Industry:      post.Industry,
		Tone:          post.Tone,
		Source:        string(post.SourceType),
		Hashtags:      post.Hashtags,
		SuggestedTime: post.SuggestedTime,
		GeneratedAt:   post.CreatedAt,
	}
	if _, err := o.producer.PublishDraftPersist(ctx, job); err != nil {
		logger.Error(ctx, "failed to enqueue draft persist retry", err)
		metrics.DraftPersistRetriesTotal.WithLabelValues("enqueue_failed").Inc()
		return
	}
	metrics.DraftPersistRetriesTotal.WithLabelValues("enqueued").Inc()
}

const generationFailureReply = "Sorry, I couldn't generate content right now. Your previous draft is untouched. Please try again later."

func formatDraftReply(payload *wfmodel.PostPayload, note string) string {
	var b strings.Builder
	b.WriteString("Draft based on your request:\n\n")
	b.WriteString(payload.Content)

	if len(payload.Hashtags) > 0 {
		tags := make([]string, 0, len(payload.Hashtags))
		for _, t := range payload.Hashtags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if !strings.HasPrefix(t, "#") {
				t = "#" + t
			}
			tags = append(tags, t)
		}
		if len(tags) > 0 {
			b.WriteString("\n\n")
			b.WriteString(strings.Join(tags, " "))
		}
	}

	if note != "" {
		b.WriteString(note)
	}

	b.WriteString("\n\nIf you'd like a different version, reply \"regenerate\" or refine with follow-ups like \"shorter\", \"more casual\", or specific instructions (e.g., \"from a student perspective\").")
	return b.String()
}
