package chat

import (
	"context"
	"fmt"

	"github.com/kapu/linkedin-profile-edge/internal/constants"
	"github.com/kapu/linkedin-profile-edge/internal/domain"
	apperrors "github.com/kapu/linkedin-profile-edge/pkg/errors"
	"go.uber.org/zap"
)

type ProfileScraper interface {
	Scrape(ctx context.Context, rawURL string) (domain.ProfileRecord, error)
}

// Reply is the body of a chat response.
type Reply struct {
	Response    string               `json:"response"`
	ProfileData domain.ProfileRecord `json:"profile_data,omitempty"`
	ToolUsed    bool                 `json:"tool_used"`
	Error       bool                 `json:"error,omitempty"`
}

// Bridge runs a single chat exchange in which the model may ask for one profile scrape.
// Nothing is kept between calls.
type Bridge struct {
	provider Provider
	scraper  ProfileScraper
	logger   *zap.Logger
}

func NewBridge(provider Provider, scraper ProfileScraper, logger *zap.Logger) *Bridge {
	return &Bridge{
		provider: provider,
		scraper:  scraper,
		logger:   logger,
	}
}

func (b *Bridge) ProviderName() string {
	return b.provider.Name()
}

// Converse forwards message to the chat provider. Errors are returned only when the
// first chat call cannot be made or is rejected; tool failures become a reply.
func (b *Bridge) Converse(ctx context.Context, message string) (*Reply, error) {
	b.logger.Info("Chat request",
		zap.String("provider", b.provider.Name()),
		zap.Int("message_length", len(message)),
	)

	turn, err := b.provider.Start(ctx, message)
	if err != nil {
		b.logger.Error("Chat completion failed", zap.String("provider", b.provider.Name()), zap.Error(err))
		return nil, err
	}

	if turn.ToolCall == nil || turn.ToolCall.Name != constants.ScrapeTool.Name {
		if turn.ToolCall != nil {
			b.logger.Warn("Ignoring unknown tool call", zap.String("tool", turn.ToolCall.Name))
		}
		return &Reply{Response: textOr(turn.Text, constants.ChatReplies.NoText)}, nil
	}

	b.logger.Info("Tool call requested",
		zap.String("tool", turn.ToolCall.Name),
		zap.String("url", turn.ToolCall.URL),
	)

	record, err := b.scraper.Scrape(ctx, turn.ToolCall.URL)
	if err != nil {
		b.logger.Error("Tool execution failed", zap.String("url", turn.ToolCall.URL), zap.Error(err))
		return &Reply{
			Response: fmt.Sprintf(constants.ChatReplies.ToolFailure, apperrors.Message(err)),
			ToolUsed: true,
			Error:    true,
		}, nil
	}

	final, err := b.provider.Resume(ctx, message, turn, string(record))
	if err != nil {
		b.logger.Error("Chat follow-up failed", zap.String("provider", b.provider.Name()), zap.Error(err))
		final = ""
	}

	return &Reply{
		Response:    textOr(final, constants.ChatReplies.ScrapeSuccess),
		ProfileData: record,
		ToolUsed:    true,
	}, nil
}

func textOr(text, fallback string) string {
	if text == "" {
		return fallback
	}
	return text
}
