package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pet-assistant/backend/internal/config"
	"github.com/pet-assistant/backend/internal/engine"
	"github.com/pet-assistant/backend/internal/provider"
	"github.com/pet-assistant/backend/internal/search"
)

// Mocks

type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockLLMProvider) Chat(ctx context.Context, messages []provider.Message, tools []provider.Tool) (*provider.Reply, error) {
	// copy so later appends to the history do not alter recorded calls
	snapshot := append([]provider.Message(nil), messages...)
	args := m.Called(ctx, snapshot, tools)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Reply), args.Error(1)
}

func (m *MockLLMProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func testCatalog() *search.Catalog {
	return search.NewCatalog([]search.ServiceRecord{
		{Title: "Grooming", Description: "We groom pets", Keywords: []string{"bath", "haircut"}},
		{Title: "Pet Sitting", Description: "We watch your pet while you travel", Keywords: []string{"travel", "sitting"}},
		{Title: "Behavior Training", Description: "Training for aggressive or anxious pets", Keywords: []string{"aggressive", "barking"}},
	}, nil)
}

func setupEngine() (*engine.Engine, *MockLLMProvider) {
	logger := logrus.New().WithField("test", "engine")
	llm := new(MockLLMProvider)
	return engine.NewEngine(config.Load(), logger, testCatalog(), llm), llm
}

// lastContent is a matcher for a history whose final message has the given content.
func lastContent(want string) interface{} {
	return mock.MatchedBy(func(msgs []provider.Message) bool {
		return len(msgs) > 0 && msgs[len(msgs)-1].Content == want
	})
}

func TestNewEngine(t *testing.T) {
	eng, llm := setupEngine()

	assert.NotNil(t, eng)
	assert.Equal(t, llm, eng.LLM)
	assert.Equal(t, 3, eng.Snapshot().Services)

	empty := engine.NewEngine(config.Load(), logrus.New().WithField("test", "engine"), nil, llm)
	assert.Equal(t, 0, empty.Snapshot().Services)
	assert.Equal(t, search.NoMatch, empty.LookupService("grooming"))
}

func TestLookupServiceCountsOutcomes(t *testing.T) {
	eng, _ := setupEngine()

	assert.Equal(t, "Pet Sitting", eng.LookupService("someone to watch my dog while I travel").Title)
	assert.Equal(t, search.NoMatch, eng.LookupService("xyzzyqux"))

	stats := eng.Snapshot()
	assert.Equal(t, int64(2), stats.Queries)
	assert.Equal(t, int64(1), stats.Matched)
	assert.Equal(t, int64(1), stats.Unmatched)
}

func TestRespondWithToolCall(t *testing.T) {
	eng, llm := setupEngine()
	ctx := context.Background()

	call := &provider.ToolCall{
		ID:   "call_1",
		Name: provider.ServiceLookupToolName,
		Args: map[string]any{"user_query": "my dog is aggressive"},
	}
	expectedPrompt := provider.BuildServicePrompt("my dog is aggressive", search.MatchResult{
		Title:       "Behavior Training",
		Description: "Training for aggressive or anxious pets",
	})

	llm.On("Chat", ctx, lastContent("Help! My dog keeps biting people"), mock.Anything).
		Return(&provider.Reply{ToolCall: call}, nil).Once()
	llm.On("Chat", ctx, lastContent(expectedPrompt), mock.Anything).
		Return(&provider.Reply{Text: "Our behavior training can help."}, nil).Once()

	conv := eng.NewConversation()
	turn, err := conv.Respond(ctx, "Help! My dog keeps biting people")

	require.NoError(t, err)
	assert.True(t, turn.ToolUsed)
	assert.Equal(t, "my dog is aggressive", turn.Query)
	assert.Equal(t, "Behavior Training", turn.Result.Title)
	assert.Equal(t, "Our behavior training can help.", turn.Reply)
	llm.AssertExpectations(t)

	history := conv.History()
	require.Len(t, history, 5)
	assert.Equal(t, provider.RoleUser, history[0].Role)
	assert.Equal(t, call, history[1].ToolCall)
	require.NotNil(t, history[2].ToolResult)
	assert.Equal(t, "call_1", history[2].ToolResult.CallID)
	assert.Equal(t, provider.RoleAssistant, history[4].Role)
}

func TestRespondWithoutToolCallMatchesLocally(t *testing.T) {
	eng, llm := setupEngine()
	ctx := context.Background()
	input := "my cat needs a bath"

	expectedPrompt := provider.BuildServicePrompt(input, search.MatchResult{Title: "Grooming", Description: "We groom pets"})
	llm.On("Chat", ctx, lastContent(input), mock.Anything).
		Return(&provider.Reply{Text: "Hello!"}, nil).Once()
	llm.On("Chat", ctx, lastContent(expectedPrompt), mock.Anything).
		Return(&provider.Reply{Text: "Grooming is perfect."}, nil).Once()

	turn, err := eng.NewConversation().Respond(ctx, input)

	require.NoError(t, err)
	assert.False(t, turn.ToolUsed)
	assert.Equal(t, "Grooming", turn.Result.Title)
	assert.Equal(t, "Grooming is perfect.", turn.Reply)
	llm.AssertExpectations(t)
}

func TestRespondToolCallWithoutQueryFallsBack(t *testing.T) {
	eng, llm := setupEngine()
	ctx := context.Background()
	input := "going to travel next week"

	call := &provider.ToolCall{Name: provider.ServiceLookupToolName, Args: map[string]any{"user_query": 42}}
	llm.On("Chat", ctx, lastContent(input), mock.Anything).Return(&provider.Reply{ToolCall: call}, nil).Once()
	llm.On("Chat", ctx, mock.Anything, mock.Anything).Return(&provider.Reply{Text: "ok"}, nil).Once()

	turn, err := eng.NewConversation().Respond(ctx, input)

	require.NoError(t, err)
	assert.True(t, turn.ToolUsed)
	assert.Equal(t, input, turn.Query)
	assert.Equal(t, "Pet Sitting", turn.Result.Title)
}

func TestRespondNoMatchStillReplies(t *testing.T) {
	eng, llm := setupEngine()
	ctx := context.Background()

	expectedPrompt := provider.BuildServicePrompt("xyzzyqux", search.NoMatch)
	llm.On("Chat", ctx, lastContent("xyzzyqux"), mock.Anything).Return(&provider.Reply{}, nil).Once()
	llm.On("Chat", ctx, lastContent(expectedPrompt), mock.Anything).Return(&provider.Reply{Text: "Sorry."}, nil).Once()

	turn, err := eng.NewConversation().Respond(ctx, "xyzzyqux")

	require.NoError(t, err)
	assert.Equal(t, search.NoMatch, turn.Result)
	assert.Equal(t, "Sorry.", turn.Reply)
	assert.Equal(t, int64(1), eng.Snapshot().Unmatched)
}

func TestRespondRollsBackOnError(t *testing.T) {
	eng, llm := setupEngine()
	ctx := context.Background()
	conv := eng.NewConversation()

	llm.On("Chat", ctx, lastContent("first"), mock.Anything).Return(nil, errors.New("quota exceeded")).Once()

	_, err := conv.Respond(ctx, "first")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, conv.History())

	// failure on the phrasing call also leaves no partial turn
	llm.On("Chat", ctx, lastContent("grooming please"), mock.Anything).Return(&provider.Reply{}, nil).Once()
	llm.On("Chat", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

	_, err = conv.Respond(ctx, "grooming please")
	assert.Error(t, err)
	assert.Empty(t, conv.History())
}

func TestConversationKeepsHistoryAcrossTurns(t *testing.T) {
	eng, llm := setupEngine()
	ctx := context.Background()
	llm.On("Chat", ctx, mock.Anything, mock.Anything).Return(&provider.Reply{Text: "reply"}, nil)

	conv := eng.NewConversation()
	_, err := conv.Respond(ctx, "bath")
	require.NoError(t, err)
	_, err = conv.Respond(ctx, "travel")
	require.NoError(t, err)

	// user, prompt, reply per turn
	assert.Len(t, conv.History(), 6)
	assert.Len(t, eng.NewConversation().History(), 0)
}

func TestIsExit(t *testing.T) {
	assert.True(t, engine.IsExit("exit"))
	assert.True(t, engine.IsExit("  QUIT "))
	assert.False(t, engine.IsExit("exit now"))
	assert.False(t, engine.IsExit(""))
}
