package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kaushal-ai-api/internal/config"
)

func TestRulesFromConfigEmptyUsesDefaults(t *testing.T) {
	rules := RulesFromConfig(config.RulesConfig{})

	defaults := DefaultRules()
	assert.Equal(t, defaults.RegenerateKeywords, rules.RegenerateKeywords)
	assert.Equal(t, defaults.TipsKeywords, rules.TipsKeywords)
	assert.Equal(t, defaults.LengthCues, rules.LengthCues)
	assert.Equal(t, defaults.ToneCues, rules.ToneCues)
}

func TestRulesFromConfigOverridesOnlySetFields(t *testing.T) {
	rules := RulesFromConfig(config.RulesConfig{
		RegenerateKeywords: []string{"redo"},
		ToneCues:           map[string]string{"friendlier": "casual"},
	})

	assert.Equal(t, []string{"redo"}, rules.RegenerateKeywords)
	assert.Equal(t, map[string]string{"friendlier": "casual"}, rules.ToneCues)
	// 未覆盖的字段沿用内置词表
	assert.Equal(t, DefaultRules().OptimizeKeywords, rules.OptimizeKeywords)
	assert.Equal(t, DefaultRules().LengthCues, rules.LengthCues)
}

func TestCueSetHelpers(t *testing.T) {
	cues, matched := NewClassifier(DefaultRules()).extractCues("shorter and more casual", "shorter and more casual")
	assert.True(t, matched)
	assert.False(t, cues.IsEmpty())
	assert.Equal(t, 2, cues.Categories())
}
