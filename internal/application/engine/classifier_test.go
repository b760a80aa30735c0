package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaushal-ai-api/internal/domain/entity"
)

func sessionWithDraft(t *testing.T) *entity.Session {
	t.Helper()
	sess := entity.NewSession(42)
	sess.SetDraft(entity.NewDraft("Excited to share our product launch!", entity.PostSourceText, "product launch"))
	return sess
}

func TestClassifyCreateWithoutDraft(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := entity.NewSession(42)

	cls := c.Classify(&Message{UserID: 42, Text: "We just hosted a climate tech meetup"}, sess)

	assert.Equal(t, entity.IntentCreate, cls.Intent)
	assert.Equal(t, "We just hosted a climate tech meetup", cls.Topic)
	assert.False(t, cls.Regenerate)
	assert.False(t, cls.PhotoDerived)
}

func TestClassifyRefinementWordsWithoutDraftStillCreate(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := entity.NewSession(42)

	// 没有草稿就没有可改写的对象
	cls := c.Classify(&Message{UserID: 42, Text: "make it shorter please"}, sess)

	assert.Equal(t, entity.IntentCreate, cls.Intent)
}

func TestClassifyPhotoMessage(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := sessionWithDraft(t)

	cls := c.Classify(&Message{UserID: 42, HasPhoto: true, PhotoCaption: "Our booth at the expo"}, sess)

	assert.Equal(t, entity.IntentCreate, cls.Intent)
	assert.True(t, cls.PhotoDerived)
	assert.Equal(t, "Our booth at the expo", cls.Topic)
}

func TestClassifyRegenerateBeatsEverything(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := sessionWithDraft(t)

	for _, text := range []string{"regenerate", "please recreate it", "try again", "another version"} {
		cls := c.Classify(&Message{UserID: 42, Text: text}, sess)
		assert.Equal(t, entity.IntentCreate, cls.Intent, text)
		assert.True(t, cls.Regenerate, text)
	}
}

func TestClassifyTips(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := sessionWithDraft(t)

	cls := c.Classify(&Message{UserID: 42, Text: "What's the best time to post on LinkedIn?"}, sess)

	assert.Equal(t, entity.IntentTips, cls.Intent)
	assert.Equal(t, "What's the best time to post on LinkedIn?", cls.Topic)
}

func TestClassifyOptimize(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := sessionWithDraft(t)

	cls := c.Classify(&Message{UserID: 42, Text: "can you polish it?"}, sess)

	assert.Equal(t, entity.IntentOptimize, cls.Intent)
}

func TestClassifyRefineSingleCue(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := sessionWithDraft(t)

	cls := c.Classify(&Message{UserID: 42, Text: "shorter"}, sess)

	require.Equal(t, entity.IntentRefine, cls.Intent)
	assert.Equal(t, "short", cls.Cues.Length)
	assert.Empty(t, cls.Cues.Tone)
}

func TestClassifyChainedCuesAppliedTogether(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := sessionWithDraft(t)

	// 链式指令产出一个指令集，一次应用
	cls := c.Classify(&Message{UserID: 42, Text: "shorter and more casual"}, sess)

	require.Equal(t, entity.IntentRefine, cls.Intent)
	assert.Equal(t, "short", cls.Cues.Length)
	assert.Equal(t, "casual", cls.Cues.Tone)
	assert.Equal(t, 2, cls.Cues.Categories())
}

func TestClassifyPerspectiveCue(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := sessionWithDraft(t)

	cls := c.Classify(&Message{UserID: 42, Text: "rewrite it from a student perspective"}, sess)

	require.Equal(t, entity.IntentRefine, cls.Intent)
	assert.Contains(t, cls.Cues.Perspective, "student perspective")
	// 已命中具体类目，整句不再作为自由指令重复下发
	assert.Empty(t, cls.Cues.Instructions)
}

func TestClassifyFreeFormRefineInstruction(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := sessionWithDraft(t)

	cls := c.Classify(&Message{UserID: 42, Text: "adjust the opening to mention our funding round"}, sess)

	require.Equal(t, entity.IntentRefine, cls.Intent)
	require.Len(t, cls.Cues.Instructions, 1)
	assert.Contains(t, cls.Cues.Instructions[0], "funding round")
}

func TestClassifyAmbiguousWithDraft(t *testing.T) {
	c := NewClassifier(DefaultRules())
	sess := sessionWithDraft(t)

	// 有草稿但没有任何修改词汇：保守按新建处理
	cls := c.Classify(&Message{UserID: 42, Text: "my trip to the mountains last weekend"}, sess)

	assert.Equal(t, entity.IntentAmbiguous, cls.Intent)
	assert.Equal(t, "my trip to the mountains last weekend", cls.Topic)
}

func TestClassifyPhotoCaptionUsedAsContent(t *testing.T) {
	msg := &Message{UserID: 42, Text: "ignored", HasPhoto: true, PhotoCaption: "  team offsite  "}
	assert.Equal(t, "team offsite", msg.Content())
}
