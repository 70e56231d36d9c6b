package services

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serenify/models"
)

func TestBuildConversationPrompt(t *testing.T) {
	prompt := BuildConversationPrompt([]models.CompletionMessage{
		{Role: "user", Content: "I can't sleep"},
		{Role: "assistant", Content: "That sounds exhausting."},
		{Role: "user", Content: "   "}, // dropped
		{Role: "user", Content: "It is"},
	})

	assert.True(t, strings.HasPrefix(prompt, "You are Serenify"))
	assert.Contains(t, prompt, "Human: I can't sleep\n")
	assert.Contains(t, prompt, "Serenify: That sounds exhausting.\n")
	assert.Contains(t, prompt, "Human: It is\n")
	assert.True(t, strings.HasSuffix(prompt, "Serenify:"))

	// The blank turn contributes nothing.
	assert.Equal(t, 3, strings.Count(prompt, ": I can't sleep")+strings.Count(prompt, ": That sounds exhausting.")+strings.Count(prompt, ": It is"))
}

func TestPickFallbackResponse(t *testing.T) {
	for i := 0; i < 20; i++ {
		require.True(t, lo.Contains(FallbackResponses, PickFallbackResponse()))
	}
}
