package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/namvu/mentorchat/internal/domain"
	"github.com/namvu/mentorchat/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestChatService(repo *MockConversationRepository, provider *MockProvider) *ChatService {
	router := llm.NewRouter("mock-provider")
	router.RegisterProvider(provider)
	return NewChatService(repo, NewSessionManager(repo), router, nil)
}

func TestChatService_HandleTurn_EmptyMessage(t *testing.T) {
	mockRepo := new(MockConversationRepository)
	svc := newTestChatService(mockRepo, new(MockProvider))

	for _, text := range []string{"", "   ", "\n\t"} {
		result, err := svc.HandleTurn(context.Background(), text, "")
		assert.Nil(t, result)
		assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	}

	mockRepo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestChatService_HandleTurn_FreshSession(t *testing.T) {
	mockRepo := new(MockConversationRepository)
	mockProvider := new(MockProvider)
	svc := newTestChatService(mockRepo, mockProvider)
	ctx := context.Background()

	mockRepo.On("Get", ctx, mock.AnythingOfType("string")).Return(nil, domain.ErrNotFound)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.Conversation")).Return(nil)
	mockProvider.On("Chat", ctx, mock.AnythingOfType("[]llm.ChatMessage"), "").
		Return(&llm.Response{Content: "Hi! How can I help?", Model: "mock-model"}, nil)

	var stored []domain.Message
	mockRepo.On("ReplaceMessages", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("[]domain.Message"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			stored = args.Get(2).([]domain.Message)
		}).
		Return(nil)

	result, err := svc.HandleTurn(ctx, "Hello", "")

	assert.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, "Hi! How can I help?", result.Response)

	// One turn appends exactly one user and one assistant entry after the preamble
	assert.Len(t, stored, 3)
	assert.Equal(t, domain.RoleSystem, stored[0].Role)
	assert.Equal(t, domain.RoleUser, stored[1].Role)
	assert.Equal(t, "Hello", stored[1].Content)
	assert.Equal(t, domain.RoleAssistant, stored[2].Role)

	mockRepo.AssertExpectations(t)
	mockProvider.AssertExpectations(t)
}

func TestChatService_HandleTurn_ExistingSession(t *testing.T) {
	mockRepo := new(MockConversationRepository)
	mockProvider := new(MockProvider)
	svc := newTestChatService(mockRepo, mockProvider)
	ctx := context.Background()

	existing := &domain.Conversation{
		SessionID: "s1",
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "preamble"},
			{Role: domain.RoleUser, Content: "first"},
			{Role: domain.RoleAssistant, Content: "reply"},
		},
		CreatedAt: time.Now().Add(-time.Hour),
	}
	mockRepo.On("Get", ctx, "s1").Return(existing, nil)

	var sentHistory []llm.ChatMessage
	mockProvider.On("Chat", ctx, mock.AnythingOfType("[]llm.ChatMessage"), "").
		Run(func(args mock.Arguments) {
			sentHistory = args.Get(1).([]llm.ChatMessage)
		}).
		Return(&llm.Response{Content: "second reply"}, nil)
	mockRepo.On("ReplaceMessages", ctx, "s1", mock.AnythingOfType("[]domain.Message"), mock.AnythingOfType("time.Time")).Return(nil)

	result, err := svc.HandleTurn(ctx, "second", "s1")

	assert.NoError(t, err)
	assert.Equal(t, "s1", result.SessionID)

	// The provider sees the full history including the preamble and the new message
	assert.Len(t, sentHistory, 4)
	assert.Equal(t, "system", sentHistory[0].Role)
	assert.Equal(t, "second", sentHistory[3].Content)

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestChatService_HandleTurn_ProviderFails(t *testing.T) {
	mockRepo := new(MockConversationRepository)
	mockProvider := new(MockProvider)
	svc := newTestChatService(mockRepo, mockProvider)
	ctx := context.Background()

	existing := &domain.Conversation{
		SessionID: "s1",
		Messages:  []domain.Message{{Role: domain.RoleSystem, Content: "preamble"}},
	}
	mockRepo.On("Get", ctx, "s1").Return(existing, nil)
	mockProvider.On("Chat", ctx, mock.Anything, "").Return(nil, errors.New("upstream down"))

	result, err := svc.HandleTurn(ctx, "hello", "s1")

	assert.Nil(t, result)
	assert.Error(t, err)
	// Nothing is persisted when the backend fails
	mockRepo.AssertNotCalled(t, "ReplaceMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Two turns whose reads interleave before either write lands: the second
// writer's read misses the first writer's append, and the last write wins.
// This is the store contract's documented lost-update race, not a bug in
// the test.
func TestChatService_HandleTurn_ConcurrentAppendsLastWriteWins(t *testing.T) {
	mockRepo := new(MockConversationRepository)
	mockProvider := new(MockProvider)
	svc := newTestChatService(mockRepo, mockProvider)
	ctx := context.Background()

	base := domain.Conversation{
		SessionID: "shared",
		Messages:  []domain.Message{{Role: domain.RoleSystem, Content: "preamble"}},
		CreatedAt: time.Now().Add(-time.Minute),
	}

	// Both turns read the same snapshot, as two tabs sharing a session would
	mockRepo.On("Get", ctx, "shared").Return(&base, nil)
	mockProvider.On("Chat", ctx, mock.Anything, "").Return(&llm.Response{Content: "reply"}, nil)

	var writes [][]domain.Message
	mockRepo.On("ReplaceMessages", ctx, "shared", mock.AnythingOfType("[]domain.Message"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			msgs := args.Get(2).([]domain.Message)
			writes = append(writes, append([]domain.Message(nil), msgs...))
		}).
		Return(nil)

	_, err := svc.HandleTurn(ctx, "from tab one", "shared")
	assert.NoError(t, err)
	_, err = svc.HandleTurn(ctx, "from tab two", "shared")
	assert.NoError(t, err)

	assert.Len(t, writes, 2)

	final := writes[1]
	contents := make([]string, 0, len(final))
	for _, m := range final {
		contents = append(contents, m.Content)
	}
	assert.Contains(t, contents, "from tab two")
	// The first turn's message is gone from the winning write
	assert.NotContains(t, contents, "from tab one")
}

func TestChatService_ListSessions_Sorted(t *testing.T) {
	mockRepo := new(MockConversationRepository)
	svc := newTestChatService(mockRepo, new(MockProvider))
	ctx := context.Background()

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	system := domain.Message{Role: domain.RoleSystem, Content: "preamble"}
	mockRepo.On("ListAll", ctx).Return([]domain.Conversation{
		// Never-updated conversation sorts by createdAt
		{SessionID: "only-created", Messages: []domain.Message{system}, CreatedAt: t3},
		{SessionID: "updated-old", Messages: []domain.Message{system,
			{Role: domain.RoleUser, Content: "a question that is quite long but under the preview cap"},
			{Role: domain.RoleAssistant, Content: "answer"},
		}, CreatedAt: t1, UpdatedAt: &t2},
		// Same effective timestamp as only-created: store order must hold
		{SessionID: "tied", Messages: []domain.Message{system}, CreatedAt: t1, UpdatedAt: &t3},
	}, nil)

	summaries, err := svc.ListSessions(ctx)

	assert.NoError(t, err)
	assert.Len(t, summaries, 3)
	assert.Equal(t, "only-created", summaries[0].SessionID)
	assert.Equal(t, "tied", summaries[1].SessionID)
	assert.Equal(t, "updated-old", summaries[2].SessionID)

	// Summaries hide the preamble
	assert.Equal(t, 0, summaries[0].MessageCount)
	assert.Equal(t, "No messages yet", summaries[0].Preview)
	assert.Equal(t, 2, summaries[2].MessageCount)
	assert.Equal(t, "a question that is quite long but under the preview cap", summaries[2].Preview)
}

func TestChatService_ListSessions_PreviewTruncated(t *testing.T) {
	mockRepo := new(MockConversationRepository)
	svc := newTestChatService(mockRepo, new(MockProvider))
	ctx := context.Background()

	long := "this user question is deliberately much longer than the sixty character preview cap"
	mockRepo.On("ListAll", ctx).Return([]domain.Conversation{
		{SessionID: "s", Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "preamble"},
			{Role: domain.RoleUser, Content: long},
		}, CreatedAt: time.Now()},
	}, nil)

	summaries, err := svc.ListSessions(ctx)

	assert.NoError(t, err)
	assert.Equal(t, long[:previewMaxLen]+"...", summaries[0].Preview)
}

func TestChatService_DeleteConversation(t *testing.T) {
	mockRepo := new(MockConversationRepository)
	svc := newTestChatService(mockRepo, new(MockProvider))
	ctx := context.Background()

	mockRepo.On("Delete", ctx, "gone").Return(nil)

	assert.NoError(t, svc.DeleteConversation(ctx, "gone"))
	mockRepo.AssertExpectations(t)
}

func TestChatService_GetConversation_NotFound(t *testing.T) {
	mockRepo := new(MockConversationRepository)
	svc := newTestChatService(mockRepo, new(MockProvider))
	ctx := context.Background()

	mockRepo.On("Get", ctx, "missing").Return(nil, domain.ErrNotFound)

	conv, err := svc.GetConversation(ctx, "missing")

	assert.Nil(t, conv)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
