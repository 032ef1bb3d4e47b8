package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	"github.com/infogenius-ai/chat-relay/internal/config"
)

// NewChatModel builds the chat model selected by cfg.Provider.
func NewChatModel(ctx context.Context, cfg config.AIConfig) (model.ChatModel, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		return cfg.NewArkChatModel(ctx)
	case config.ProviderOpenAI:
		return cfg.NewOpenAIChatModel(ctx)
	case config.ProviderMock:
		return NewMockChatModel(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
