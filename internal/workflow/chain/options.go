package chain

import (
	"strings"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	workflowprompt "kaushal-ai-api/internal/workflow/prompt"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

type modelParams struct {
	Model       string
	Temperature *float32
	MaxTokens   *int
}

func buildPostModelOptions(p modelParams, enableSchema bool) []model.Option {
	opts := make([]model.Option, 0, 4)

	if p.Temperature != nil {
		opts = append(opts, model.WithTemperature(*p.Temperature))
	}
	if p.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*p.MaxTokens))
	}
	if strings.TrimSpace(p.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(p.Model)))
	}

	if enableSchema {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "linkedin_post",
					"strict": false,
					"schema": postJSONSchema(),
				},
			},
		}))
	}

	return opts
}

func buildTextModelOptions(p modelParams) []model.Option {
	opts := make([]model.Option, 0, 3)

	if p.Temperature != nil {
		opts = append(opts, model.WithTemperature(*p.Temperature))
	}
	if p.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*p.MaxTokens))
	}
	if strings.TrimSpace(p.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(p.Model)))
	}

	return opts
}

func postJSONSchema() map[string]any {
	// 说明：schema 以“最小可用”为目标，避免过度约束导致模型输出失败。
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"content"},
		"properties": map[string]any{
			"content": map[string]any{"type": "string"},
			"hashtags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"suggested_time": map[string]any{"type": "string"},
			"linkedin_tips": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}
}
