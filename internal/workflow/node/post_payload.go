package node

import (
	"encoding/json"
	"strings"

	wfmodel "kaushal-ai-api/internal/workflow/model"
)

const (
	defaultSuggestedTime = "Tuesday 9 AM"
	maxHashtags          = 5
)

// ParsePostPayload 解析模型输出为帖子载荷。
// 容错逻辑：输出不是合法 JSON 时退化为纯文本正文，保证一轮对话不至于失败。
func ParsePostPayload(raw string) *wfmodel.PostPayload {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var payload wfmodel.PostPayload
	if err := json.Unmarshal([]byte(ExtractJSONObject(trimmed)), &payload); err == nil {
		if strings.TrimSpace(payload.Content) != "" {
			normalizePostPayload(&payload)
			return &payload
		}
	}

	// 纯文本兜底：原样保留正文，其余字段给出保守默认值。
	return &wfmodel.PostPayload{
		Content:       trimmed,
		Hashtags:      []string{},
		SuggestedTime: defaultSuggestedTime,
		LinkedInTips:  []string{"Post during business hours", "Engage with comments"},
	}
}

// ParseTopicList 解析模型输出为话题列表，兼容 JSON 数组与逐行文本两种形态。
func ParseTopicList(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var topics []string
	if err := json.Unmarshal([]byte(ExtractJSONObject(trimmed)), &topics); err == nil {
		return cleanLines(topics)
	}

	return cleanLines(strings.Split(trimmed, "\n"))
}

func normalizePostPayload(p *wfmodel.PostPayload) {
	p.Content = strings.TrimSpace(p.Content)
	p.Hashtags = cleanLines(p.Hashtags)
	if len(p.Hashtags) > maxHashtags {
		p.Hashtags = p.Hashtags[:maxHashtags]
	}
	if strings.TrimSpace(p.SuggestedTime) == "" {
		p.SuggestedTime = defaultSuggestedTime
	}
	p.LinkedInTips = cleanLines(p.LinkedInTips)
}

func cleanLines(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
