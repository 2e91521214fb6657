package provider

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pet-assistant/backend/internal/config"
)

// Conversation roles shared by every provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// LLMProvider defines the interface for AI model integration
type LLMProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, messages []Message, tools []Tool) (*Reply, error)
	Name() string
}

// Message is one turn of a conversation. An assistant message carries either
// Content or a ToolCall; a tool message carries a ToolResult.
type Message struct {
	Role       string
	Content    string
	ToolCall   *ToolCall
	ToolResult *ToolResult
}

// Tool declares a function the model may call. Parameters is a JSON schema.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult answers a ToolCall.
type ToolResult struct {
	CallID  string
	Name    string
	Payload map[string]any
}

// Reply is the model's answer to a Chat call.
type Reply struct {
	Text     string
	ToolCall *ToolCall
}

// New builds the provider named in cfg
func New(cfg config.LLMConfig, logger *logrus.Entry) (LLMProvider, error) {
	client := NewHTTPClient(cfg.MaxRetries, cfg.Timeout, logger)

	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(cfg.BaseURL, cfg.Model, cfg.APIKey, client), nil
	case "openai":
		return NewOpenAIProvider(cfg.BaseURL, cfg.Model, cfg.APIKey, client), nil
	case "ollama":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, client), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
