// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"kaushal-ai-api/internal/domain/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// Upsert 保存用户，存在则更新基础资料
	Upsert(ctx context.Context, user *entity.User) error
	// GetByID 根据 ID 获取用户，不存在返回 nil
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	// MarkConnected 记录 LinkedIn 连接成功后的档案信息
	MarkConnected(ctx context.Context, id int64, name, email string) error
	// MarkWelcomed 标记连接后欢迎语已发送
	MarkWelcomed(ctx context.Context, id int64) error
}
