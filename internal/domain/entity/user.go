// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
)

// User 用户实体。ID 为聊天平台分配的用户标识。
type User struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Username  string `json:"username,omitempty" gorm:"type:varchar(64)"`
	FirstName string `json:"first_name" gorm:"type:varchar(128)"`
	LastName  string `json:"last_name,omitempty" gorm:"type:varchar(128)"`

	// LinkedIn 连接状态
	LinkedInName  string     `json:"linkedin_name,omitempty" gorm:"type:varchar(255)"`
	LinkedInEmail string     `json:"linkedin_email,omitempty" gorm:"type:varchar(255)"`
	ConnectedAt   *time.Time `json:"connected_at,omitempty"`

	// WelcomedAfterConnect 连接后是否已发送过欢迎语（只发一次）
	WelcomedAfterConnect bool `json:"welcomed_after_connect" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// NewUser 创建新用户
func NewUser(id int64, username, firstName, lastName string) *User {
	now := time.Now()
	return &User{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsConnected 检查用户是否已连接 LinkedIn
func (u *User) IsConnected() bool {
	return u != nil && u.ConnectedAt != nil
}

// DisplayName 返回用于问候的名称
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.LinkedInName != "" {
		return u.LinkedInName
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return u.Username
}
