// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kaushal-ai-api/internal/domain/entity"
)

// UserRepository 用户仓储实现
type UserRepository struct {
	client *Client
}

// NewUserRepository 创建用户仓储
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

// Upsert 创建或更新用户基础资料。
// 用户 ID 来自上游聊天渠道，冲突时只刷新资料字段，不碰连接状态。
func (r *UserRepository) Upsert(ctx context.Context, user *entity.User) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.Upsert")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.GetByID")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	var user entity.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// MarkConnected 记录 LinkedIn 授权完成后的身份信息
func (r *UserRepository) MarkConnected(ctx context.Context, id int64, name, email string) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.MarkConnected")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	now := time.Now()
	updates := map[string]any{
		"linked_in_name":  name,
		"linked_in_email": email,
		"connected_at":    now,
		"updated_at":      now,
	}
	if err := db.Model(&entity.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark user connected: %w", err)
	}
	return nil
}

// MarkWelcomed 记录连接后的欢迎语已发送，避免重复问候
func (r *UserRepository) MarkWelcomed(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "postgres.UserRepository.MarkWelcomed")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	if err := db.Model(&entity.User{}).Where("id = ?", id).
		Update("welcomed_after_connect", true).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to mark user welcomed: %w", err)
	}
	return nil
}
