package engine

import (
	"strings"
	"time"

	"kaushal-ai-api/internal/domain/entity"
)

// Message 归一化后的入站消息事件
type Message struct {
	UserID       int64
	Username     string
	FirstName    string
	LastName     string
	Text         string
	PhotoCaption string
	HasPhoto     bool
	Timestamp    time.Time
}

// Content 返回消息的有效文本：图片消息取说明文字
func (m *Message) Content() string {
	if m.HasPhoto {
		return strings.TrimSpace(m.PhotoCaption)
	}
	return strings.TrimSpace(m.Text)
}

// Classification 意图识别结果
type Classification struct {
	Intent       entity.Intent
	Cues         entity.CueSet
	Topic        string
	PhotoDerived bool
	Regenerate   bool
}

// Classifier 基于关键词规则的意图识别器
type Classifier struct {
	rules *Ruleset
}

// NewClassifier 创建意图识别器
func NewClassifier(rules *Ruleset) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify 结合消息文本与会话状态识别意图。
// 判定次序：regenerate > 图片新建 > 无草稿新建 > tips > optimize > refine > 歧义新建。
func (c *Classifier) Classify(msg *Message, sess *entity.Session) Classification {
	content := msg.Content()
	lower := strings.ToLower(content)

	if containsAny(lower, c.rules.RegenerateKeywords) {
		return Classification{Intent: entity.IntentCreate, Regenerate: true}
	}

	if msg.HasPhoto {
		return Classification{
			Intent:       entity.IntentCreate,
			Topic:        content,
			PhotoDerived: true,
		}
	}

	// 没有草稿就没有可改写的对象，任何措辞都按新建处理
	if !sess.HasDraft() {
		return Classification{Intent: entity.IntentCreate, Topic: content}
	}

	if containsAny(lower, c.rules.TipsKeywords) {
		return Classification{Intent: entity.IntentTips, Topic: content}
	}

	if containsAny(lower, c.rules.OptimizeKeywords) {
		return Classification{Intent: entity.IntentOptimize, Topic: content}
	}

	cues, matched := c.extractCues(content, lower)
	if matched && !cues.IsEmpty() {
		return Classification{Intent: entity.IntentRefine, Cues: cues}
	}

	// 有草稿但没有可识别的修改词汇：保守按新建处理，旧稿移入历史
	return Classification{Intent: entity.IntentAmbiguous, Topic: content}
}

// extractCues 从一条消息中提取全部指令类目。
// 链式指令是叠加关系："shorter, more casual" 产出两个类目、一次应用。
func (c *Classifier) extractCues(content, lower string) (entity.CueSet, bool) {
	var cues entity.CueSet
	matched := false

	for phrase, value := range c.rules.LengthCues {
		if strings.Contains(lower, phrase) {
			cues.Length = value
			matched = true
		}
	}
	for phrase, value := range c.rules.ToneCues {
		if strings.Contains(lower, phrase) {
			cues.Tone = value
			matched = true
		}
	}
	for _, marker := range c.rules.PerspectiveMarkers {
		if strings.Contains(lower, marker) {
			cues.Perspective = marker
			matched = true
		}
	}

	if containsAny(lower, c.rules.RefineMarkers) {
		matched = true
		// 通用修改动词：整句作为自由指令传给改写工作者
		if cues.Length == "" && cues.Tone == "" && cues.Perspective == "" {
			cues.Instructions = append(cues.Instructions, content)
		}
	}

	return cues, matched
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
