package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Config selects the language model provider. Provider is "openai"
// (default) or "openrouter"; the latter reuses the OpenAI wire protocol
// through a different base URL.
type Config struct {
	Provider          string
	Model             string
	OpenAIKey         string
	OpenRouterKey     string
	OpenRouterBaseURL string
}

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	defaultOpenAIModel     = "gpt-3.5-turbo"
	defaultOpenRouterModel = "openrouter/auto"
)

// Responder generates agent replies. When no provider credentials are
// configured it stays usable and answers with a diagnostic message, so a
// half-configured deployment degrades instead of failing requests.
type Responder struct {
	log    *slog.Logger
	client *openai.Client
	model  string
	reason string
}

func NewResponder(log *slog.Logger, cfg Config) *Responder {
	r := &Responder{log: log}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenRouter:
		if cfg.OpenRouterKey == "" {
			r.reason = "Missing OPENROUTER_API_KEY"
			return r
		}
		clientCfg := openai.DefaultConfig(cfg.OpenRouterKey)
		clientCfg.BaseURL = cfg.OpenRouterBaseURL
		r.client = openai.NewClientWithConfig(clientCfg)
		r.model = cfg.Model
		if r.model == "" {
			r.model = defaultOpenRouterModel
		}
	default:
		if cfg.OpenAIKey == "" {
			r.reason = "Missing OPENAI_API_KEY"
			return r
		}
		r.client = openai.NewClient(cfg.OpenAIKey)
		r.model = cfg.Model
		if r.model == "" {
			r.model = defaultOpenAIModel
		}
	}
	return r
}

// Configured reports whether a provider client is available.
func (r *Responder) Configured() bool {
	return r.client != nil
}

// Reply asks the provider for a concise answer addressed to the room.
// An empty prompt gets the fixed greeting without a provider round trip.
func (r *Responder) Reply(ctx context.Context, prompt, room, username string) (string, error) {
	if r.client == nil {
		return fmt.Sprintf("AI is not configured: %s. Set environment variables and restart.", r.reason), nil
	}
	if prompt == "" {
		return Greeting, nil
	}

	systemPrompt := fmt.Sprintf(
		"You are a helpful AI assistant in a chat room called %q. "+
			"A user named %q is asking you a question. "+
			"Provide a concise, friendly response under 200 words.",
		room, username)

	completion, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "(No response)", nil
	}
	return completion.Choices[0].Message.Content, nil
}
