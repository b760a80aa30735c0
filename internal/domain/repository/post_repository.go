// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"kaushal-ai-api/internal/domain/entity"
)

// PostRepository 帖子仓储接口
type PostRepository interface {
	// Create 保存帖子
	Create(ctx context.Context, post *entity.Post) error
	// GetByID 根据 ID 获取帖子，不存在返回 nil
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	// ListByUser 按状态获取用户帖子，按创建时间倒序
	ListByUser(ctx context.Context, userID int64, status entity.PostStatus, pagination Pagination) (*PagedResult[*entity.Post], error)
}
