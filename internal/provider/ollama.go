package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type OllamaProvider struct {
	BaseURL string
	Model   string
	client  *http.Client
}

// NewOllamaProvider takes the server root, e.g. http://localhost:11434.
func NewOllamaProvider(baseURL, model string, client *http.Client) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		client:  client,
	}
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":  p.Model,
		"prompt": prompt,
		"stream": false,
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := postJSON(ctx, p.client, p.BaseURL+"/api/generate", nil, payload, &result); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}

	return result.Response, nil
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, tools []Tool) (*Reply, error) {
	msgs := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, toOllamaMessage(m))
	}

	payload := map[string]interface{}{
		"model":    p.Model,
		"messages": msgs,
		"stream":   false,
	}
	if t := toOpenAITools(tools); t != nil {
		payload["tools"] = t
	}

	var result struct {
		Message ollamaMessage `json:"message"`
	}
	if err := postJSON(ctx, p.client, p.BaseURL+"/api/chat", nil, payload, &result); err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}

	reply := &Reply{Text: result.Message.Content}
	if len(result.Message.ToolCalls) > 0 {
		call := result.Message.ToolCalls[0]
		reply.ToolCall = &ToolCall{Name: call.Function.Name, Args: call.Function.Arguments}
	}
	return reply, nil
}

func toOllamaMessage(m Message) ollamaMessage {
	switch {
	case m.ToolResult != nil:
		return ollamaMessage{Role: RoleTool, Content: formatPayload(m.ToolResult.Payload), ToolName: m.ToolResult.Name}
	case m.ToolCall != nil:
		var call ollamaToolCall
		call.Function.Name = m.ToolCall.Name
		call.Function.Arguments = m.ToolCall.Args
		return ollamaMessage{Role: RoleAssistant, Content: m.Content, ToolCalls: []ollamaToolCall{call}}
	default:
		return ollamaMessage{Role: m.Role, Content: m.Content}
	}
}
