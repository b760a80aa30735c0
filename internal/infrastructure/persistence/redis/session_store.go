// Package redis 提供会话快照持久化
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SessionStore 会话快照存储。
// 进程内状态为权威副本，这里只做崩溃恢复用的 JSON 快照。
type SessionStore struct {
	client *Client
	ttl    time.Duration
}

// NewSessionStore 创建会话快照存储
func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Load 加载会话快照，不存在时 ok 返回 false
func (s *SessionStore) Load(ctx context.Context, userID int64) ([]byte, bool, error) {
	ctx, span := tracer.Start(ctx, "session.Load",
		trace.WithAttributes(attribute.Int64("session.user_id", userID)))
	defer span.End()

	val, err := s.client.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		span.RecordError(err)
		return nil, false, err
	}
	return val, true, nil
}

// Save 写入会话快照并续期
func (s *SessionStore) Save(ctx context.Context, userID int64, snapshot []byte) error {
	ctx, span := tracer.Start(ctx, "session.Save",
		trace.WithAttributes(attribute.Int64("session.user_id", userID)))
	defer span.End()

	if err := s.client.rdb.Set(ctx, sessionKey(userID), snapshot, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Delete 删除会话快照
func (s *SessionStore) Delete(ctx context.Context, userID int64) error {
	ctx, span := tracer.Start(ctx, "session.Delete",
		trace.WithAttributes(attribute.Int64("session.user_id", userID)))
	defer span.End()

	return s.client.rdb.Del(ctx, sessionKey(userID)).Err()
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}
