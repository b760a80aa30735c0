package dto

import (
	"strings"

	"kaushal-ai-api/internal/application/engine"
)

// MessageRequest 入站聊天消息
type MessageRequest struct {
	UserID       int64  `json:"user_id" binding:"required"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Text         string `json:"text,omitempty"`
	HasPhoto     bool   `json:"has_photo,omitempty"`
	PhotoCaption string `json:"photo_caption,omitempty"`
}

// Validate 校验请求参数
func (r *MessageRequest) Validate() error {
	if r.UserID <= 0 {
		return errInvalidUserID
	}
	if !r.HasPhoto && strings.TrimSpace(r.Text) == "" {
		return errEmptyMessage
	}
	return nil
}

// ToEngineMessage 转换为引擎入站消息
func (r *MessageRequest) ToEngineMessage() *engine.Message {
	return &engine.Message{
		UserID:       r.UserID,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Text:         r.Text,
		HasPhoto:     r.HasPhoto,
		PhotoCaption: r.PhotoCaption,
	}
}

// MessageResponse 一轮对话的结果
type MessageResponse struct {
	TurnID  string `json:"turn_id"`
	Intent  string `json:"intent"`
	Reply   string `json:"reply"`
	IsDraft bool   `json:"is_draft"`
	PostID  string `json:"post_id,omitempty"`
}

// FromTurnResult 转换编排结果
func FromTurnResult(r *engine.TurnResult) *MessageResponse {
	return &MessageResponse{
		TurnID:  r.TurnID,
		Intent:  string(r.Intent),
		Reply:   r.ReplyText,
		IsDraft: r.IsDraft,
		PostID:  r.PostID,
	}
}
