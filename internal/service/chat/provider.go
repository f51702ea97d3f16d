package chat

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kapu/linkedin-profile-edge/internal/config"
	"github.com/kapu/linkedin-profile-edge/internal/constants"
	"go.uber.org/zap"
)

// Provider is a chat-completion backend that understands the scrape tool.
// Start sends the user message with the tool declared. Resume replays the exchange
// with the tool result appended and returns the final answer text.
type Provider interface {
	Name() string
	Start(ctx context.Context, message string) (*Turn, error)
	Resume(ctx context.Context, message string, first *Turn, result string) (string, error)
}

// Turn is one assistant response. Text is the first text block, ToolCall is set when
// the model asked for a tool. raw keeps the provider's own content for replay.
type Turn struct {
	Text     string
	ToolCall *ToolCall
	raw      any
}

type ToolCall struct {
	ID   string
	Name string
	URL  string
}

// NewProvider selects the configured backend. Missing credentials are not an error
// here; they surface per request as a ConfigError.
func NewProvider(ctx context.Context, cfg config.ChatConfig, httpClient *http.Client, logger *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case config.ChatProviderAnthropic, "":
		return NewAnthropicProvider(httpClient, AnthropicConfig{
			APIKey:    cfg.AnthropicAPIKey,
			BaseURL:   cfg.AnthropicBaseURL,
			Model:     modelOrDefault(cfg.Model, constants.AnthropicConfig.DefaultModel),
			MaxTokens: cfg.MaxTokens,
		}, logger), nil
	case config.ChatProviderOpenAI:
		return NewOpenAIProvider(httpClient, OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     modelOrDefault(cfg.Model, constants.ChatDefaults.OpenAIModel),
			MaxTokens: cfg.MaxTokens,
		}, logger), nil
	case config.ChatProviderGemini:
		return NewGeminiProvider(ctx, httpClient, GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			Model:     modelOrDefault(cfg.Model, constants.ChatDefaults.GeminiModel),
			MaxTokens: cfg.MaxTokens,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported chat provider %q", cfg.Provider)
	}
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}
