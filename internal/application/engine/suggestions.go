package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rediscache "kaushal-ai-api/internal/infrastructure/persistence/redis"
	"kaushal-ai-api/internal/workflow/chain"
	wfmodel "kaushal-ai-api/internal/workflow/model"
	"kaushal-ai-api/internal/workflow/node"
	"kaushal-ai-api/pkg/logger"
)

// SuggestionsService 为用户提供行业选题建议。生成失败时退回静态列表。
// 同一行业的结果按 suggestionsCacheTTL 缓存，避免重复调用模型。
type SuggestionsService struct {
	chain    *chain.SuggestionsChain
	store    *Store
	cache    *rediscache.Cache
	provider string
	timeout  time.Duration
}

// NewSuggestionsService 创建选题建议服务，cache 可为 nil（不缓存）
func NewSuggestionsService(c *chain.SuggestionsChain, store *Store, cache *rediscache.Cache, provider string, timeout time.Duration) *SuggestionsService {
	return &SuggestionsService{chain: c, store: store, cache: cache, provider: provider, timeout: timeout}
}

// Topics 返回指定用户的选题建议，行业取自会话偏好。
func (s *SuggestionsService) Topics(ctx context.Context, userID int64) ([]string, error) {
	sess := s.store.Get(ctx, userID)
	industry := sess.Prefs.Industry
	if industry == "" {
		industry = "general"
	}

	if s.cache == nil {
		return s.generate(ctx, industry), nil
	}

	key := fmt.Sprintf("suggestions:industry:%s", industry)
	raw, err := s.cache.GetOrLoadSafe(ctx, key, suggestionsCacheTTL, func() (interface{}, error) {
		return s.generate(ctx, industry), nil
	})
	if err != nil {
		logger.Warn(ctx, "suggestions cache unavailable", "error", err.Error())
		return s.generate(ctx, industry), nil
	}

	var topics []string
	if err := json.Unmarshal(raw, &topics); err != nil || len(topics) == 0 {
		return s.generate(ctx, industry), nil
	}
	return topics, nil
}

func (s *SuggestionsService) generate(ctx context.Context, industry string) []string {
	ctx, cancel := withGenerationTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.chain.Invoke(ctx, &wfmodel.SuggestionsInput{
		Industry: industry,
		Provider: s.provider,
	})
	if err != nil {
		logger.Warn(ctx, "suggestions generation failed, using fallback topics", "error", err.Error())
		return fallbackTopics(industry)
	}

	topics := node.ParseTopicList(out.Content)
	if len(topics) == 0 {
		return fallbackTopics(industry)
	}
	if len(topics) > maxSuggestedTopics {
		topics = topics[:maxSuggestedTopics]
	}
	return topics
}

const (
	maxSuggestedTopics  = 5
	suggestionsCacheTTL = time.Hour
)

func fallbackTopics(industry string) []string {
	return []string{
		fmt.Sprintf("Key trends shaping %s this year", industry),
		fmt.Sprintf("A lesson I learned the hard way in %s", industry),
		fmt.Sprintf("What newcomers to %s should know", industry),
		"A recent win my team is proud of",
		"A tool or habit that changed how I work",
	}
}
