package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePostPayloadJSON(t *testing.T) {
	raw := `{"content":"Big news today!","hashtags":["AI"," Growth ",""],"suggested_time":"Wednesday 10 AM","linkedin_tips":["Reply to comments"]}`

	p := ParsePostPayload(raw)

	require.NotNil(t, p)
	assert.Equal(t, "Big news today!", p.Content)
	assert.Equal(t, []string{"AI", "Growth"}, p.Hashtags)
	assert.Equal(t, "Wednesday 10 AM", p.SuggestedTime)
	assert.Equal(t, []string{"Reply to comments"}, p.LinkedInTips)
}

func TestParsePostPayloadJSONWrappedInProse(t *testing.T) {
	raw := "Here is your post:\n```json\n{\"content\":\"Launch day!\",\"hashtags\":[\"Startup\"]}\n```"

	p := ParsePostPayload(raw)

	require.NotNil(t, p)
	assert.Equal(t, "Launch day!", p.Content)
	assert.Equal(t, []string{"Startup"}, p.Hashtags)
	// 缺省字段补默认值
	assert.Equal(t, "Tuesday 9 AM", p.SuggestedTime)
}

func TestParsePostPayloadPlainTextFallback(t *testing.T) {
	raw := "Excited to announce our new office opening next month!"

	p := ParsePostPayload(raw)

	require.NotNil(t, p)
	assert.Equal(t, raw, p.Content)
	assert.Empty(t, p.Hashtags)
	assert.Equal(t, "Tuesday 9 AM", p.SuggestedTime)
	assert.NotEmpty(t, p.LinkedInTips)
}

func TestParsePostPayloadEmptyInput(t *testing.T) {
	assert.Nil(t, ParsePostPayload(""))
	assert.Nil(t, ParsePostPayload("   \n  "))
}

func TestParsePostPayloadHashtagCap(t *testing.T) {
	raw := `{"content":"x","hashtags":["a","b","c","d","e","f","g"]}`

	p := ParsePostPayload(raw)

	require.NotNil(t, p)
	assert.Len(t, p.Hashtags, 5)
}

func TestParseTopicListJSONArray(t *testing.T) {
	topics := ParseTopicList(`["Key trends in tech","A lesson learned",""]`)
	assert.Equal(t, []string{"Key trends in tech", "A lesson learned"}, topics)
}

func TestParseTopicListPlainLines(t *testing.T) {
	topics := ParseTopicList("1. First topic\n\n2. Second topic\n")
	assert.Equal(t, []string{"1. First topic", "2. Second topic"}, topics)
}

func TestParseTopicListEmpty(t *testing.T) {
	assert.Nil(t, ParseTopicList("  "))
}
