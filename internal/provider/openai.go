package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type OpenAIProvider struct {
	BaseURL string
	Model   string
	APIKey  string
	client  *http.Client
}

func NewOpenAIProvider(baseURL, model, apiKey string, client *http.Client) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/chat/completions"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAIProvider{
		BaseURL: baseURL,
		Model:   model,
		APIKey:  apiKey,
		client:  client,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// openAITool is also the tool shape Ollama accepts.
type openAITool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters,omitempty"`
	} `json:"function"`
}

func toOpenAITools(tools []Tool) []openAITool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openAITool, len(tools))
	for i, t := range tools {
		out[i].Type = "function"
		out[i].Function.Name = t.Name
		out[i].Function.Description = t.Description
		out[i].Function.Parameters = t.Parameters
	}
	return out
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reply, err := p.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, nil)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, tools []Tool) (*Reply, error) {
	msgs := make([]openAIMessage, 0, len(messages))
	for _, m := range messages {
		msg, err := toOpenAIMessage(m)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	payload := map[string]interface{}{
		"model":    p.Model,
		"messages": msgs,
	}
	if t := toOpenAITools(tools); t != nil {
		payload["tools"] = t
	}

	headers := map[string]string{}
	if p.APIKey != "" {
		headers["Authorization"] = "Bearer " + p.APIKey
	}

	var result struct {
		Choices []struct {
			Message openAIMessage `json:"message"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, p.client, p.BaseURL, headers, payload, &result); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from openai")
	}

	msg := result.Choices[0].Message
	reply := &Reply{Text: msg.Content}
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("openai: bad tool arguments: %w", err)
			}
		}
		reply.ToolCall = &ToolCall{ID: call.ID, Name: call.Function.Name, Args: args}
	}
	return reply, nil
}

func toOpenAIMessage(m Message) (openAIMessage, error) {
	switch {
	case m.ToolResult != nil:
		body, err := json.Marshal(m.ToolResult.Payload)
		if err != nil {
			return openAIMessage{}, err
		}
		return openAIMessage{Role: RoleTool, Content: string(body), ToolCallID: m.ToolResult.CallID}, nil
	case m.ToolCall != nil:
		args, err := json.Marshal(m.ToolCall.Args)
		if err != nil {
			return openAIMessage{}, err
		}
		call := openAIToolCall{ID: m.ToolCall.ID, Type: "function"}
		call.Function.Name = m.ToolCall.Name
		call.Function.Arguments = string(args)
		return openAIMessage{Role: RoleAssistant, Content: m.Content, ToolCalls: []openAIToolCall{call}}, nil
	default:
		return openAIMessage{Role: m.Role, Content: m.Content}, nil
	}
}
