package draftwriter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaushal-ai-api/internal/domain/entity"
	"kaushal-ai-api/internal/domain/repository"
	"kaushal-ai-api/internal/infrastructure/messaging"
)

type memPostRepo struct {
	mu         sync.Mutex
	posts      map[string]*entity.Post
	failCreate bool
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[string]*entity.Post)}
}

func (r *memPostRepo) Create(_ context.Context, post *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("database unavailable")
	}
	r.posts[post.ID] = post
	return nil
}

func (r *memPostRepo) GetByID(_ context.Context, id string) (*entity.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.posts[id], nil
}

func (r *memPostRepo) ListByUser(context.Context, int64, entity.PostStatus, repository.Pagination) (*repository.PagedResult[*entity.Post], error) {
	return nil, errors.New("not implemented")
}

func draftPersistMessage(t *testing.T, job *messaging.DraftPersistMessage) *messaging.Message {
	t.Helper()
	msg, err := messaging.NewMessage(job.PostID, messaging.MsgTypeDraftPersist, job.UserID, job)
	require.NoError(t, err)
	return msg
}

func TestHandleDraftPersistWritesPost(t *testing.T) {
	repo := newMemPostRepo()
	svc := NewService(repo)

	job := &messaging.DraftPersistMessage{
		PostID:        "post-1",
		UserID:        42,
		TurnID:        "turn-1",
		Content:       "Excited to announce our launch!",
		Topic:         "launch",
		Industry:      "tech",
		Tone:          "professional",
		Source:        "text",
		Hashtags:      []string{"AI"},
		SuggestedTime: "Tuesday 9 AM",
		GeneratedAt:   time.Now().Add(-time.Minute),
	}

	err := svc.HandleDraftPersist(context.Background(), draftPersistMessage(t, job))
	require.NoError(t, err)

	post, err := repo.GetByID(context.Background(), "post-1")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.EqualValues(t, 42, post.UserID)
	assert.Equal(t, entity.PostSourceText, post.SourceType)
	assert.Equal(t, entity.PostStatusDraft, post.Status)
	assert.Equal(t, "Tuesday 9 AM", post.SuggestedTime)
}

func TestHandleDraftPersistIdempotent(t *testing.T) {
	repo := newMemPostRepo()
	svc := NewService(repo)

	job := &messaging.DraftPersistMessage{
		PostID:  "post-1",
		UserID:  42,
		Content: "first write",
		Source:  "text",
	}
	require.NoError(t, svc.HandleDraftPersist(context.Background(), draftPersistMessage(t, job)))

	// 重放同一条消息：已落库的帖子不被覆盖
	job.Content = "replayed write"
	require.NoError(t, svc.HandleDraftPersist(context.Background(), draftPersistMessage(t, job)))

	post, _ := repo.GetByID(context.Background(), "post-1")
	assert.Equal(t, "first write", post.Content)
}

func TestHandleDraftPersistInvalidPayload(t *testing.T) {
	svc := NewService(newMemPostRepo())

	msg, err := messaging.NewMessage("x", messaging.MsgTypeDraftPersist, 42, map[string]string{"post_id": ""})
	require.NoError(t, err)

	assert.Error(t, svc.HandleDraftPersist(context.Background(), msg))
}

func TestHandleDraftPersistCreateFailurePropagates(t *testing.T) {
	repo := newMemPostRepo()
	repo.failCreate = true
	svc := NewService(repo)

	job := &messaging.DraftPersistMessage{PostID: "post-1", UserID: 42, Content: "body", Source: "text"}

	assert.Error(t, svc.HandleDraftPersist(context.Background(), draftPersistMessage(t, job)))
}
