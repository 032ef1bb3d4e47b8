package ai

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockChatModel answers locally without any network access. It greets like the
// default policy asks and otherwise echoes the latest user line.
type MockChatModel struct{}

var _ model.ChatModel = (*MockChatModel)(nil)

func NewMockChatModel() *MockChatModel { return &MockChatModel{} }

var greetings = map[string]struct{}{
	"hello": {}, "hi": {}, "hey": {}, "hola": {}, "namaste": {},
}

func (m *MockChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if len(input) == 0 {
		return nil, errors.New("mock model: empty input")
	}
	last := lastUserLine(input[len(input)-1].Content)

	key := strings.Trim(strings.ToLower(last), " !.?,")
	if _, ok := greetings[key]; ok {
		return schema.AssistantMessage("<p>Hello! 👋</p><p>I am happy to meet you.</p><p>What is your <strong>name</strong>?</p>", nil), nil
	}
	return schema.AssistantMessage(fmt.Sprintf("<p>You said: <strong>%s</strong></p>", html.EscapeString(last)), nil), nil
}

func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *MockChatModel) BindTools([]*schema.ToolInfo) error { return nil }

// lastUserLine extracts the newest "user: " entry from a composed prompt.
func lastUserLine(composed string) string {
	body := strings.TrimSuffix(strings.TrimSpace(composed), "Bot:")
	idx := strings.LastIndex(body, "\nuser: ")
	if idx < 0 {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(body[idx+len("\nuser: "):])
}
