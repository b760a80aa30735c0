package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupersedeDraftKeepsHistory(t *testing.T) {
	sess := NewSession(1)
	sess.SetDraft(NewDraft("first draft", PostSourceText, "topic a"))

	sess.SupersedeDraft()

	assert.False(t, sess.HasDraft())
	require.Len(t, sess.History, 1)
	require.NotNil(t, sess.History[0].SupersededDraft)
	assert.Equal(t, "first draft", sess.History[0].SupersededDraft.Text)
}

func TestSupersedeDraftNoopWithoutDraft(t *testing.T) {
	sess := NewSession(1)
	sess.SupersedeDraft()
	assert.Empty(t, sess.History)
}

func TestResetLineageClearsCuesKeepsSupersededDrafts(t *testing.T) {
	sess := NewSession(1)
	sess.SetDraft(NewDraft("first draft", PostSourceText, "topic a"))
	sess.AppendRefinement(CueSet{Length: "short"})
	sess.AppendRefinement(CueSet{Tone: "casual"})
	sess.SupersedeDraft()

	sess.ResetLineage()

	require.Len(t, sess.History, 1)
	assert.Nil(t, sess.History[0].Cues)
	assert.NotNil(t, sess.History[0].SupersededDraft)
}

func TestCueSetIsEmpty(t *testing.T) {
	assert.True(t, CueSet{}.IsEmpty())
	assert.False(t, CueSet{Length: "short"}.IsEmpty())
	assert.False(t, CueSet{Instructions: []string{"mention the team"}}.IsEmpty())
}
