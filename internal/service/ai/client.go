package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/infogenius-ai/chat-relay/pkg/logger"
)

// FallbackReply is returned when the model answers with no usable content.
const FallbackReply = "Sorry, I couldn't generate a response."

// Completer is the contract the relay depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client sends a composed prompt to a chat model as a single user message.
type Client struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	timeout   time.Duration
	log       *logger.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout bounds every completion call. Zero leaves the provider default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger attaches a logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient compiles the prompt -> model chain around chatModel.
func NewClient(ctx context.Context, chatModel model.ChatModel, opts ...Option) (*Client, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{prompt}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	c := &Client{
		chatModel: chatModel,
		chain:     runnable,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete returns the generated text, FallbackReply for empty output, or a
// *CompletionError when the provider fails.
func (c *Client) Complete(ctx context.Context, composed string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.chain.Invoke(ctx, map[string]any{"prompt": composed})
	if err != nil {
		classified := Classify(err)
		c.log.Warn("completion failed", "code", classified.Code, "error", err, "elapsed", time.Since(start))
		return "", classified
	}

	if resp == nil || resp.Content == "" {
		c.log.Warn("completion returned no content, using fallback", "elapsed", time.Since(start))
		return FallbackReply, nil
	}

	c.log.Debug("completion generated", "length", len(resp.Content), "elapsed", time.Since(start))
	return resp.Content, nil
}

// ChatModel returns the underlying model.
func (c *Client) ChatModel() model.ChatModel {
	return c.chatModel
}
