package dto

import (
	"time"

	"kaushal-ai-api/internal/domain/entity"
)

// DraftResponse 草稿帖子响应
type DraftResponse struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	Content       string    `json:"content"`
	SourceType    string    `json:"source_type"`
	Topic         string    `json:"topic,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	Tone          string    `json:"tone,omitempty"`
	Hashtags      []string  `json:"hashtags,omitempty"`
	SuggestedTime string    `json:"suggested_time,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromPost 转换帖子实体
func FromPost(p *entity.Post) *DraftResponse {
	return &DraftResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		Content:       p.Content,
		SourceType:    string(p.SourceType),
		Topic:         p.Topic,
		Industry:      p.Industry,
		Tone:          p.Tone,
		Hashtags:      p.Hashtags,
		SuggestedTime: p.SuggestedTime,
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt,
	}
}

// FromPosts 批量转换帖子实体
func FromPosts(posts []*entity.Post) []*DraftResponse {
	out := make([]*DraftResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, FromPost(p))
	}
	return out
}
