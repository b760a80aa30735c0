// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishDraftPersist 发布草稿落库重试任务。
// 主库写入失败时由 draft-writer 按退避重试，会话侧不阻塞用户。
func (p *Producer) PublishDraftPersist(ctx context.Context, job *DraftPersistMessage) (string, error) {
	msg, err := NewMessage(job.PostID, MsgTypeDraftPersist, job.UserID, job)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("turn_id", job.TurnID)
	if job.TraceID != "" {
		msg.SetMetadata("trace_id", job.TraceID)
	}

	return p.Publish(ctx, StreamDraftPersist, msg)
}

// DraftPersistMessage 草稿落库重试消息
type DraftPersistMessage struct {
	PostID        string    `json:"post_id"`
	UserID        int64     `json:"user_id"`
	TurnID        string    `json:"turn_id"`
	TraceID       string    `json:"trace_id,omitempty"`
	Content       string    `json:"content"`
	Topic         string    `json:"topic,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	Tone          string    `json:"tone,omitempty"`
	Source        string    `json:"source"`
	Hashtags      []string  `json:"hashtags,omitempty"`
	SuggestedTime string    `json:"suggested_time,omitempty"`
	GeneratedAt   time.Time `json:"generated_at"`
}
