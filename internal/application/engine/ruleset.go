// Package engine 实现会话编排引擎：意图识别、草稿状态与工作者调度。
package engine

import (
	"kaushal-ai-api/internal/config"
)

// Ruleset 意图识别的关键词规则表。
// 提取启发式与稳定的输出契约（Intent + CueSet）隔离，词表可随配置替换。
type Ruleset struct {
	RegenerateKeywords []string
	TipsKeywords       []string
	OptimizeKeywords   []string
	LengthCues         map[string]string
	ToneCues           map[string]string
	PerspectiveMarkers []string
	RefineMarkers      []string
}

// DefaultRules 内置词表
func DefaultRules() *Ruleset {
	return &Ruleset{
		RegenerateKeywords: []string{"regenerate", "recreate", "again", "another version"},
		TipsKeywords: []string{
			"best time",
			"tips",
			"advice",
			"how do i",
			"how can i",
			"what should i post",
			"strategy",
		},
		OptimizeKeywords: []string{"optimize", "polish", "tighten", "improve this"},
		LengthCues: map[string]string{
			"shorter": "short",
			"longer":  "long",
		},
		ToneCues: map[string]string{
			"more casual":       "casual",
			"more professional": "professional",
			"enthusiastic":      "enthusiastic",
			"thoughtful":        "thoughtful",
		},
		PerspectiveMarkers: []string{
			"from a student perspective",
			"student perspective",
			"from a recruiter perspective",
		},
		RefineMarkers: []string{"change tone", "rewrite", "refine", "adjust"},
	}
}

// RulesFromConfig 从配置构建规则表，留空的字段沿用内置词表
func RulesFromConfig(cfg config.RulesConfig) *Ruleset {
	rules := DefaultRules()

	if len(cfg.RegenerateKeywords) > 0 {
		rules.RegenerateKeywords = cfg.RegenerateKeywords
	}
	if len(cfg.TipsKeywords) > 0 {
		rules.TipsKeywords = cfg.TipsKeywords
	}
	if len(cfg.OptimizeKeywords) > 0 {
		rules.OptimizeKeywords = cfg.OptimizeKeywords
	}
	if len(cfg.LengthCues) > 0 {
		rules.LengthCues = cfg.LengthCues
	}
	if len(cfg.ToneCues) > 0 {
		rules.ToneCues = cfg.ToneCues
	}
	if len(cfg.PerspectiveMarkers) > 0 {
		rules.PerspectiveMarkers = cfg.PerspectiveMarkers
	}
	if len(cfg.RefineMarkers) > 0 {
		rules.RefineMarkers = cfg.RefineMarkers
	}

	return rules
}
