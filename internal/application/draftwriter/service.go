// Package draftwriter 消费草稿落库重试流，把失败的写库操作补齐
package draftwriter

import (
	"context"
	"fmt"
	"time"

	"kaushal-ai-api/internal/domain/entity"
	"kaushal-ai-api/internal/domain/repository"
	"kaushal-ai-api/internal/infrastructure/messaging"
	"kaushal-ai-api/pkg/logger"
	"kaushal-ai-api/pkg/metrics"
)

// Service 草稿补写服务
type Service struct {
	posts repository.PostRepository
}

// NewService 创建草稿补写服务
func NewService(posts repository.PostRepository) *Service {
	return &Service{posts: posts}
}

// HandleDraftPersist 处理一条落库重试消息。
// 重放是幂等的：帖子已存在时直接确认，不重复写入。
func (s *Service) HandleDraftPersist(ctx context.Context, msg *messaging.Message) error {
	var job messaging.DraftPersistMessage
	if err := msg.UnmarshalPayload(&job); err != nil {
		return fmt.Errorf("failed to unmarshal draft persist payload: %w", err)
	}
	if job.PostID == "" || job.UserID == 0 || job.Content == "" {
		return fmt.Errorf("invalid draft persist payload: post_id=%q user_id=%d", job.PostID, job.UserID)
	}

	existing, err := s.posts.GetByID(ctx, job.PostID)
	if err != nil {
		return fmt.Errorf("failed to check existing post: %w", err)
	}
	if existing != nil {
		logger.Debug(ctx, "draft already persisted, skipping", "post_id", job.PostID)
		return nil
	}

	post := &entity.Post{
		ID:            job.PostID,
		UserID:        job.UserID,
		Content:       job.Content,
		SourceType:    entity.PostSource(job.Source),
		Topic:         job.Topic,
		Industry:      job.Industry,
		Tone:          job.Tone,
		Hashtags:      job.Hashtags,
		SuggestedTime: job.SuggestedTime,
		Status:        entity.PostStatusDraft,
		AIGenerated:   true,
		CreatedAt:     job.GeneratedAt,
		UpdatedAt:     time.Now(),
	}
	if post.SourceType == "" {
		post.SourceType = entity.PostSourceText
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	if err := s.posts.Create(ctx, post); err != nil {
		metrics.DraftPersistRetriesTotal.WithLabelValues("retry_failed").Inc()
		return fmt.Errorf("failed to persist draft %s: %w", job.PostID, err)
	}

	metrics.DraftPersistRetriesTotal.WithLabelValues("recovered").Inc()
	logger.Info(ctx, "draft persisted from retry stream", "post_id", job.PostID, "user_id", job.UserID)
	return nil
}
