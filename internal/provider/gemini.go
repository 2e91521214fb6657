package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type GeminiProvider struct {
	BaseURL string
	Model   string
	APIKey  string
	client  *http.Client
}

func NewGeminiProvider(baseURL, model, apiKey string, client *http.Client) *GeminiProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GeminiProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		APIKey:  apiKey,
		client:  client,
	}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type geminiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiFunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	Tools    []geminiTool    `json:"tools,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reply, err := p.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, nil)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

func (p *GeminiProvider) Chat(ctx context.Context, messages []Message, tools []Tool) (*Reply, error) {
	if p.APIKey == "" {
		return nil, errors.New("gemini api key is empty")
	}

	req := geminiRequest{Contents: make([]geminiContent, 0, len(messages))}
	for _, m := range messages {
		req.Contents = append(req.Contents, toGeminiContent(m))
	}
	if len(tools) > 0 {
		decls := make([]geminiFunctionDeclaration, len(tools))
		for i, t := range tools {
			decls[i] = geminiFunctionDeclaration{Name: t.Name, Description: t.Description, Parameters: t.Parameters}
		}
		req.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}

	// key goes in a header: transport errors and retry logs quote the URL
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.BaseURL, url.PathEscape(p.Model))
	headers := map[string]string{"x-goog-api-key": p.APIKey}

	var result geminiResponse
	if err := postJSON(ctx, p.client, endpoint, headers, req, &result); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no candidates returned from gemini")
	}

	reply := &Reply{}
	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.FunctionCall != nil && reply.ToolCall == nil {
			reply.ToolCall = &ToolCall{Name: part.FunctionCall.Name, Args: part.FunctionCall.Args}
			continue
		}
		text.WriteString(part.Text)
	}
	reply.Text = text.String()
	return reply, nil
}

func toGeminiContent(m Message) geminiContent {
	switch {
	case m.ToolResult != nil:
		return geminiContent{Role: "user", Parts: []geminiPart{{
			FunctionResponse: &geminiFunctionResponse{Name: m.ToolResult.Name, Response: m.ToolResult.Payload},
		}}}
	case m.ToolCall != nil:
		return geminiContent{Role: "model", Parts: []geminiPart{{
			FunctionCall: &geminiFunctionCall{Name: m.ToolCall.Name, Args: m.ToolCall.Args},
		}}}
	case m.Role == RoleAssistant:
		return geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}}
	default:
		return geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}}
	}
}
