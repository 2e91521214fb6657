package engine

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pet-assistant/backend/internal/config"
	"github.com/pet-assistant/backend/internal/provider"
	"github.com/pet-assistant/backend/internal/search"
)

// Engine wires the service catalog to the language model. It is safe for
// concurrent use; per-user state lives in Conversation.
type Engine struct {
	Config  *config.Config
	Logger  *logrus.Entry
	Catalog *search.Catalog
	LLM     provider.LLMProvider

	queries   atomic.Int64
	matched   atomic.Int64
	unmatched atomic.Int64
	startTime time.Time
}

// EngineStats is a point-in-time copy of the engine counters
type EngineStats struct {
	Services  int
	Queries   int64
	Matched   int64
	Unmatched int64
	StartTime time.Time
}

// LocalMatchNotice is shown when the model skipped the lookup tool and the
// raw input was matched instead.
const LocalMatchNotice = "No function call made. Matching locally..."

// Turn is the outcome of one user message
type Turn struct {
	Query    string
	Result   search.MatchResult
	Reply    string
	ToolUsed bool
}

func NewEngine(cfg *config.Config, logger *logrus.Entry, catalog *search.Catalog, llm provider.LLMProvider) *Engine {
	if catalog == nil {
		catalog = search.NewCatalog(nil, nil)
	}
	return &Engine{
		Config:    cfg,
		Logger:    logger,
		Catalog:   catalog,
		LLM:       llm,
		startTime: time.Now(),
	}
}

// LookupService matches query against the catalog and records the outcome
func (e *Engine) LookupService(query string) search.MatchResult {
	result := e.Catalog.Match(query)

	e.queries.Add(1)
	if result.Matched() {
		e.matched.Add(1)
	} else {
		e.unmatched.Add(1)
	}

	e.Logger.WithFields(logrus.Fields{
		"query":   query,
		"service": result.Title,
		"matched": result.Matched(),
	}).Debug("Service lookup")

	return result
}

// Snapshot returns the current counters
func (e *Engine) Snapshot() EngineStats {
	return EngineStats{
		Services:  e.Catalog.Len(),
		Queries:   e.queries.Load(),
		Matched:   e.matched.Load(),
		Unmatched: e.unmatched.Load(),
		StartTime: e.startTime,
	}
}

// NewConversation starts an empty chat history
func (e *Engine) NewConversation() *Conversation {
	return &Conversation{engine: e}
}

// IsExit reports whether input asks to leave the chat loop
func IsExit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return true
	}
	return false
}

// Conversation holds the message history of a single chat. It is not safe for
// concurrent use.
type Conversation struct {
	engine  *Engine
	history []provider.Message
}

// History returns a copy of the messages exchanged so far
func (c *Conversation) History() []provider.Message {
	out := make([]provider.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Respond runs one turn: let the model pick the lookup tool (or match the raw
// input when it doesn't), then ask it to phrase the matched service.
// On error the history is left as it was before the call.
func (c *Conversation) Respond(ctx context.Context, userInput string) (*Turn, error) {
	e := c.engine
	mark := len(c.history)
	tools := []provider.Tool{provider.ServiceLookupTool()}

	c.history = append(c.history, provider.Message{Role: provider.RoleUser, Content: userInput})

	first, err := e.LLM.Chat(ctx, c.history, tools)
	if err != nil {
		c.history = c.history[:mark]
		return nil, fmt.Errorf("failed to get tool decision: %w", err)
	}

	turn := &Turn{Query: userInput}
	if call := first.ToolCall; call != nil && call.Name == provider.ServiceLookupToolName {
		if q, ok := call.Args["user_query"].(string); ok && strings.TrimSpace(q) != "" {
			turn.Query = q
		}
		turn.ToolUsed = true
		turn.Result = e.LookupService(turn.Query)

		c.history = append(c.history,
			provider.Message{Role: provider.RoleAssistant, Content: first.Text, ToolCall: call},
			provider.Message{Role: provider.RoleTool, ToolResult: &provider.ToolResult{
				CallID:  call.ID,
				Name:    call.Name,
				Payload: provider.ResultPayload(turn.Result),
			}},
		)
	} else {
		e.Logger.WithField("query", userInput).Debug(LocalMatchNotice)
		turn.Result = e.LookupService(userInput)
	}

	c.history = append(c.history, provider.Message{
		Role:    provider.RoleUser,
		Content: provider.BuildServicePrompt(turn.Query, turn.Result),
	})

	final, err := e.LLM.Chat(ctx, c.history, tools)
	if err != nil {
		c.history = c.history[:mark]
		return nil, fmt.Errorf("failed to phrase service reply: %w", err)
	}

	turn.Reply = final.Text
	c.history = append(c.history, provider.Message{Role: provider.RoleAssistant, Content: final.Text})

	e.Logger.WithFields(logrus.Fields{
		"service":   turn.Result.Title,
		"tool_used": turn.ToolUsed,
	}).Info("Turn completed")

	return turn, nil
}
