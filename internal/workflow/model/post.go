package model

import "time"

// PostGenerateInput 首稿生成输入
type PostGenerateInput struct {
	Topic        string
	Industry     string
	Tone         string
	Length       string
	PhotoDerived bool

	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// PostOptimizeInput 针对既有草稿的优化输入
type PostOptimizeInput struct {
	Content  string
	Hashtags []string
	Industry string
	Tone     string

	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// PostRefineInput 按指令改写既有草稿的输入。
// 所有指令类目在同一次调用中一并应用，避免多次改写造成内容漂移。
type PostRefineInput struct {
	OriginalContent string
	Instruction     string
	LengthCue       string
	ToneCue         string
	PerspectiveCue  string
	ExtraCues       []string
	Industry        string
	Tone            string
	Length          string

	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// TipsInput 内容策略建议输入
type TipsInput struct {
	Question     string
	DraftContext string

	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// SuggestionsInput 选题建议输入
type SuggestionsInput struct {
	Industry string

	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// PostPayload 模型返回的结构化草稿载荷
type PostPayload struct {
	Content       string   `json:"content"`
	Hashtags      []string `json:"hashtags,omitempty"`
	SuggestedTime string   `json:"suggested_time,omitempty"`
	LinkedInTips  []string `json:"linkedin_tips,omitempty"`
}

// PromptTrace 一次生成调用的提示词与用量痕迹
type PromptTrace struct {
	PromptID         string    `json:"prompt_id"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	Temperature      float64   `json:"temperature,omitempty"`
	PromptTokens     int       `json:"prompt_tokens,omitempty"`
	CompletionTokens int       `json:"completion_tokens,omitempty"`
	GeneratedAt      time.Time `json:"generated_at"`
}
