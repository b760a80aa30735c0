// Package entity 定义领域实体
package entity

import (
	"time"
)

// Intent 一条消息的处理意图。封闭枚举：新增意图必须补全所有 switch 分支。
type Intent string

const (
	IntentCreate    Intent = "create"
	IntentRefine    Intent = "refine"
	IntentTips      Intent = "tips"
	IntentOptimize  Intent = "optimize"
	IntentAmbiguous Intent = "ambiguous"
)

// CueSet 从一条跟进消息中解析出的修改指令集合。
// 各类目一次提取、一次应用；链式指令（"shorter, more casual"）是叠加关系。
type CueSet struct {
	Length       string   `json:"length,omitempty"`       // short / long
	Tone         string   `json:"tone,omitempty"`         // casual / professional / enthusiastic / thoughtful
	Perspective  string   `json:"perspective,omitempty"`  // 例如 "student"
	Instructions []string `json:"instructions,omitempty"` // 未匹配到类目的自由指令
}

// IsEmpty 检查指令集是否为空
func (c CueSet) IsEmpty() bool {
	return c.Length == "" && c.Tone == "" && c.Perspective == "" && len(c.Instructions) == 0
}

// Categories 返回命中的类目数
func (c CueSet) Categories() int {
	n := len(c.Instructions)
	if c.Length != "" {
		n++
	}
	if c.Tone != "" {
		n++
	}
	if c.Perspective != "" {
		n++
	}
	return n
}

// Draft 当前工作草稿及其元数据
type Draft struct {
	Text       string     `json:"text"`
	SourceType PostSource `json:"source_type"`
	Topic      string     `json:"topic"`
	Hashtags   []string   `json:"hashtags,omitempty"`
	Status     PostStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewDraft 创建草稿
func NewDraft(text string, source PostSource, topic string) *Draft {
	return &Draft{
		Text:       text,
		SourceType: source,
		Topic:      topic,
		Status:     PostStatusDraft,
		CreatedAt:  time.Now(),
	}
}

// HistoryEntry 一条修改历史。Cues 记录应用过的指令集；
// SupersededDraft 在草稿被新建内容取代（regenerate / 歧义转新建）时保留旧稿备查。
type HistoryEntry struct {
	Cues            *CueSet   `json:"cues,omitempty"`
	SupersededDraft *Draft    `json:"superseded_draft,omitempty"`
	AppliedAt       time.Time `json:"applied_at"`
}

// Preferences 跨轮次沿用的生成偏好
type Preferences struct {
	Industry string `json:"industry,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Length   string `json:"length,omitempty"`
}

// Session 单用户的会话/草稿状态。由 Draft State Store 独占持有，
// 仅编排器在该用户的串行队列内读写。
type Session struct {
	UserID         int64          `json:"user_id"`
	Connected      bool           `json:"connected"`
	LastGreetedAt  *time.Time     `json:"last_greeted_at,omitempty"`
	CurrentDraft   *Draft         `json:"current_draft,omitempty"`
	History        []HistoryEntry `json:"history,omitempty"`
	Prefs          Preferences    `json:"prefs"`
	CreatedAt      time.Time      `json:"created_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
}

// NewSession 创建空会话
func NewSession(userID int64) *Session {
	now := time.Now()
	return &Session{
		UserID:         userID,
		Prefs:          Preferences{Industry: "general", Tone: "professional", Length: "medium"},
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// HasDraft 检查是否存在当前草稿
func (s *Session) HasDraft() bool {
	return s != nil && s.CurrentDraft != nil && s.CurrentDraft.Text != ""
}

// SetDraft 替换当前草稿
func (s *Session) SetDraft(d *Draft) {
	s.CurrentDraft = d
	s.LastActivityAt = time.Now()
}

// AppendRefinement 记录一次已应用的指令集
func (s *Session) AppendRefinement(cues CueSet) {
	s.History = append(s.History, HistoryEntry{
		Cues:      &cues,
		AppliedAt: time.Now(),
	})
}

// SupersedeDraft 将当前草稿移入历史（被新建内容取代时）。
// 历史不丢弃：被取代的草稿保留备查。
func (s *Session) SupersedeDraft() {
	if !s.HasDraft() {
		return
	}
	s.History = append(s.History, HistoryEntry{
		SupersededDraft: s.CurrentDraft,
		AppliedAt:       time.Now(),
	})
	s.CurrentDraft = nil
}

// ResetLineage 开启新草稿谱系：清空修改历史但保留被取代的旧稿（regenerate 语义）。
func (s *Session) ResetLineage() {
	var kept []HistoryEntry
	for _, h := range s.History {
		if h.SupersededDraft != nil {
			kept = append(kept, h)
		}
	}
	s.History = kept
}
