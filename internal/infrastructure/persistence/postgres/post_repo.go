package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"kaushal-ai-api/internal/domain/entity"
	"kaushal-ai-api/internal/domain/repository"
)

// PostRepository 帖子仓储实现
type PostRepository struct {
	client *Client
}

// NewPostRepository 创建帖子仓储
func NewPostRepository(client *Client) *PostRepository {
	return &PostRepository{client: client}
}

// Create 落库一条草稿
func (r *PostRepository) Create(ctx context.Context, post *entity.Post) error {
	ctx, span := tracer.Start(ctx, "postgres.PostRepository.Create")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	if err := db.Create(post).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取帖子
func (r *PostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	ctx, span := tracer.Start(ctx, "postgres.PostRepository.GetByID")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	var post entity.Post
	if err := db.First(&post, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// ListByUser 获取用户帖子列表，status 为空表示不过滤状态
func (r *PostRepository) ListByUser(ctx context.Context, userID int64, status entity.PostStatus, pagination repository.Pagination) (*repository.PagedResult[*entity.Post], error) {
	ctx, span := tracer.Start(ctx, "postgres.PostRepository.ListByUser")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	query := db.Model(&entity.Post{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	// 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	// 获取列表
	var posts []*entity.Post
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&posts).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return repository.NewPagedResult(posts, total, pagination), nil
}
