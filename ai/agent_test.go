package ai

import (
	"context"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestIsAgentMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		match bool
	}{
		{"Canonical trigger", "@Agent hello there", true},
		{"Lowercase trigger", "@agent what time is it", true},
		{"Mixed case trigger", "@AGENT help", true},
		{"Trigger mid-sentence", "hey @Agent hello", false},
		{"No space after marker", "@Agenthello", false},
		{"Plain message", "hello room", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.match, IsAgentMessage(tt.input))
		})
	}
}

func TestPrompt_Strips_Trigger_And_Whitespace(t *testing.T) {
	req := require.New(t)

	req.Equal("what time is it", Prompt("@Agent what time is it"))
	req.Equal("what time is it", Prompt("@agent   what time is it  "))
	req.Equal("", Prompt("@Agent    "))
}

func TestResponder_Unconfigured_Replies_With_Diagnostic(t *testing.T) {
	req := require.New(t)
	responder := NewResponder(logs.GetLoggerFromString("ERROR"), Config{Provider: ProviderOpenAI})

	req.False(responder.Configured())

	reply, err := responder.Reply(context.Background(), "hello", "LOBBY", "Alice")
	req.NoError(err)
	req.Contains(reply, "AI is not configured")
	req.Contains(reply, "OPENAI_API_KEY")
}

func TestResponder_OpenRouter_Requires_Its_Own_Key(t *testing.T) {
	req := require.New(t)
	responder := NewResponder(logs.GetLoggerFromString("ERROR"), Config{
		Provider:  ProviderOpenRouter,
		OpenAIKey: "set-but-irrelevant",
	})

	req.False(responder.Configured())

	reply, err := responder.Reply(context.Background(), "hello", "LOBBY", "Alice")
	req.NoError(err)
	req.Contains(reply, "OPENROUTER_API_KEY")
}
