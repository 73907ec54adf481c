package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversation_Transcript(t *testing.T) {
	conv := Conversation{
		SessionID: "abc",
		Messages: []Message{
			{Role: RoleSystem, Content: "preamble"},
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, Content: "hi there"},
			{Role: RoleUser, Content: "thanks"},
		},
	}

	transcript := conv.Transcript()

	assert.Len(t, transcript, 3)
	for _, m := range transcript {
		assert.NotEqual(t, RoleSystem, m.Role)
	}
	assert.Equal(t, "hello", transcript[0].Content)
	assert.Equal(t, "hi there", transcript[1].Content)
	assert.Equal(t, "thanks", transcript[2].Content)
}

func TestConversation_Transcript_OnlySystem(t *testing.T) {
	conv := Conversation{
		Messages: []Message{{Role: RoleSystem, Content: "preamble"}},
	}

	assert.Empty(t, conv.Transcript())
}

func TestConversation_EffectiveTime(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(2 * time.Hour)

	fresh := Conversation{CreatedAt: created}
	assert.Equal(t, created, fresh.EffectiveTime())

	touched := Conversation{CreatedAt: created, UpdatedAt: &updated}
	assert.Equal(t, updated, touched.EffectiveTime())
}
