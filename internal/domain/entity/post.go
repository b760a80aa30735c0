// Package entity 定义领域实体
package entity

import (
	"time"
)

// PostStatus 帖子状态
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// PostSource 帖子内容来源
type PostSource string

const (
	PostSourceText  PostSource = "text"
	PostSourcePhoto PostSource = "photo"
)

// Post 持久化的帖子草稿
type Post struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      int64      `json:"user_id" gorm:"index;not null"`
	Content     string     `json:"content" gorm:"type:text;not null"`
	SourceType  PostSource `json:"source_type" gorm:"type:varchar(16);not null;default:'text'"`
	Topic       string     `json:"topic" gorm:"type:text"`
	Industry    string     `json:"industry,omitempty" gorm:"type:varchar(64)"`
	Tone        string     `json:"tone,omitempty" gorm:"type:varchar(32)"`
	Hashtags    []string   `json:"hashtags,omitempty" gorm:"type:jsonb;serializer:json"`
	// SuggestedTime 生成器建议的发布时间，例如 "Tuesday 9 AM"
	SuggestedTime string     `json:"suggested_time,omitempty" gorm:"type:varchar(64)"`
	Status        PostStatus `json:"status" gorm:"type:varchar(16);not null;default:'draft';index"`
	AIGenerated bool       `json:"ai_generated" gorm:"not null;default:true"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Post) TableName() string {
	return "posts"
}

// NewDraftPost 创建草稿帖子
func NewDraftPost(userID int64, content string, source PostSource, topic string) *Post {
	now := time.Now()
	return &Post{
		UserID:      userID,
		Content:     content,
		SourceType:  source,
		Topic:       topic,
		Status:      PostStatusDraft,
		AIGenerated: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Preview 返回截断后的内容预览
func (p *Post) Preview(maxRunes int) string {
	if p == nil {
		return ""
	}
	runes := []rune(p.Content)
	if len(runes) <= maxRunes {
		return p.Content
	}
	return string(runes[:maxRunes]) + "..."
}
