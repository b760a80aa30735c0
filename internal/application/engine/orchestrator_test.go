package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaushal-ai-api/internal/config"
	"kaushal-ai-api/internal/domain/entity"
	"kaushal-ai-api/internal/domain/repository"
	"kaushal-ai-api/internal/workflow/chain"
)

const fakeDraftJSON = `{"content":"Thrilled to share our launch!","hashtags":["AI","Startup"],"suggested_time":"Tuesday 9 AM","linkedin_tips":["Post during business hours"]}`

// fakeChatModel 返回固定内容或固定错误
type fakeChatModel struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
}

func (f *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.content}, nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (f *fakeChatModel) setError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeFactory struct {
	model *fakeChatModel
}

func (f *fakeFactory) Get(_ context.Context, _ string) (model.BaseChatModel, error) {
	return f.model, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*entity.User)}
}

func (r *fakeUserRepo) Upsert(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) MarkConnected(_ context.Context, id int64, name, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.ConnectedAt = &now
		u.LinkedInName = name
		u.LinkedInEmail = email
	}
	return nil
}

func (r *fakeUserRepo) MarkWelcomed(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.WelcomedAfterConnect = true
	}
	return nil
}

type fakePostRepo struct {
	mu         sync.Mutex
	posts      []*entity.Post
	failCreate bool
}

func (r *fakePostRepo) Create(_ context.Context, post *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("database unavailable")
	}
	r.posts = append(r.posts, post)
	return nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id string) (*entity.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePostRepo) ListByUser(_ context.Context, userID int64, status entity.PostStatus, pagination repository.Pagination) (*repository.PagedResult[*entity.Post], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []*entity.Post
	for _, p := range r.posts {
		if p.UserID == userID && p.Status == status {
			items = append(items, p)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), pagination), nil
}

func (r *fakePostRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts)
}

type orchestratorFixture struct {
	orch  *Orchestrator
	store *Store
	model *fakeChatModel
	posts *fakePostRepo
	users *fakeUserRepo
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	m := &fakeChatModel{content: fakeDraftJSON}
	factory := &fakeFactory{model: m}

	createChain := chain.NewCreatePostChain(factory)
	optimizeChain := chain.NewOptimizePostChain(factory)
	refineChain := chain.NewRefinePostChain(factory)
	tipsChain := chain.NewTipsChain(factory)

	store := NewStore(nil)
	dispatcher := NewDispatcher(8, time.Minute)
	t.Cleanup(dispatcher.Close)

	users := newFakeUserRepo()
	posts := &fakePostRepo{}

	orch := NewOrchestrator(OrchestratorConfig{
		Store:          store,
		Classifier:     NewClassifier(DefaultRules()),
		Dispatcher:     dispatcher,
		CreateWorker:   NewCreateWorker(createChain, optimizeChain, "openai", 5*time.Second),
		OptimizeWorker: NewOptimizeWorker(optimizeChain, "openai", 5*time.Second),
		RefineWorker:   NewRefineWorker(refineChain, "openai", 5*time.Second),
		TipsWorker:     NewTipsWorker(tipsChain, "openai", 5*time.Second),
		Users:          users,
		Posts:          posts,
		Features:       config.FeaturesConfig{},
	})

	return &orchestratorFixture{orch: orch, store: store, model: m, posts: posts, users: users}
}

func TestOrchestratorCreateTurn(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	result, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "our product launch this week"})
	require.NoError(t, err)

	assert.True(t, result.IsDraft)
	assert.Equal(t, entity.IntentCreate, result.Intent)
	assert.Contains(t, result.ReplyText, "Thrilled to share our launch!")
	assert.Contains(t, result.ReplyText, "#AI")
	assert.NotEmpty(t, result.PostID)

	sess := f.store.Get(ctx, 42)
	require.True(t, sess.HasDraft())
	assert.Equal(t, "our product launch this week", sess.CurrentDraft.Topic)
	assert.Equal(t, 1, f.posts.count())
}

func TestOrchestratorGenerationFailurePreservesDraft(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	_, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "our product launch"})
	require.NoError(t, err)

	before := f.store.Get(ctx, 42).CurrentDraft.Text
	f.model.setError(errors.New("provider unavailable"))

	result, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "shorter"})
	require.NoError(t, err)

	assert.False(t, result.IsDraft)
	assert.Contains(t, result.ReplyText, "couldn't generate content")

	// 失败轮次不触碰当前草稿
	after := f.store.Get(ctx, 42).CurrentDraft.Text
	assert.Equal(t, before, after)
}

func TestOrchestratorRegenerateReusesTopic(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	_, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "launch day recap"})
	require.NoError(t, err)

	// 先积累一条修改历史，验证 regenerate 会清掉指令谱系
	_, err = f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "shorter"})
	require.NoError(t, err)

	result, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "regenerate"})
	require.NoError(t, err)

	assert.True(t, result.IsDraft)
	assert.Contains(t, result.ReplyText, "Regenerated")

	sess := f.store.Get(ctx, 42)
	require.True(t, sess.HasDraft())
	assert.Equal(t, "launch day recap", sess.CurrentDraft.Topic)

	// 指令历史被清空，被取代的旧稿保留
	for _, h := range sess.History {
		assert.Nil(t, h.Cues)
		assert.NotNil(t, h.SupersededDraft)
	}
}

func TestOrchestratorRegenerateWithoutHistory(t *testing.T) {
	f := newOrchestratorFixture(t)

	result, err := f.orch.HandleMessage(context.Background(), &Message{UserID: 42, Text: "regenerate"})
	require.NoError(t, err)

	assert.False(t, result.IsDraft)
	assert.Contains(t, result.ReplyText, "I don't have your last request yet")
	assert.Equal(t, 0, f.posts.count())
}

func TestOrchestratorTipsDoesNotPersist(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	_, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "our product launch"})
	require.NoError(t, err)
	persisted := f.posts.count()
	draftBefore := f.store.Get(ctx, 42).CurrentDraft.Text

	result, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "any tips for engagement?"})
	require.NoError(t, err)

	assert.Equal(t, entity.IntentTips, result.Intent)
	assert.False(t, result.IsDraft)
	assert.Empty(t, result.PostID)
	assert.Equal(t, persisted, f.posts.count())
	assert.Equal(t, draftBefore, f.store.Get(ctx, 42).CurrentDraft.Text)
}

func TestOrchestratorPersistFailureStillReplies(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.posts.failCreate = true
	ctx := context.Background()

	result, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "our product launch"})
	require.NoError(t, err)

	// 落库失败不影响本轮回复，内存草稿照常提交
	assert.True(t, result.IsDraft)
	assert.Contains(t, result.ReplyText, "Thrilled to share our launch!")
	assert.True(t, f.store.Get(ctx, 42).HasDraft())
}

func TestOrchestratorPhotoWithoutCaption(t *testing.T) {
	f := newOrchestratorFixture(t)

	result, err := f.orch.HandleMessage(context.Background(), &Message{UserID: 42, HasPhoto: true})
	require.NoError(t, err)

	assert.False(t, result.IsDraft)
	assert.Contains(t, result.ReplyText, "add a caption")
}

func TestOrchestratorPhotoWithCaption(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	result, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, HasPhoto: true, PhotoCaption: "Our booth at the expo"})
	require.NoError(t, err)

	assert.True(t, result.IsDraft)
	sess := f.store.Get(ctx, 42)
	assert.Equal(t, entity.PostSourcePhoto, sess.CurrentDraft.SourceType)
}

func TestOrchestratorRefineUpdatesPreferences(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	_, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "our product launch"})
	require.NoError(t, err)

	result, err := f.orch.HandleMessage(ctx, &Message{UserID: 42, Text: "more casual"})
	require.NoError(t, err)

	assert.True(t, result.IsDraft)
	assert.Equal(t, entity.IntentRefine, result.Intent)

	sess := f.store.Get(ctx, 42)
	assert.Equal(t, "casual", sess.Prefs.Tone)
	require.NotEmpty(t, sess.History)

	last := sess.History[len(sess.History)-1]
	require.NotNil(t, last.Cues)
	assert.Equal(t, "casual", last.Cues.Tone)
}
