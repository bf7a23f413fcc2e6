package core

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/robo-univ/agent-portal/internal/apperrors"
	"github.com/robo-univ/agent-portal/internal/store"
)

var (
	manager = Actor{UserID: "prof-kim", Role: store.RoleAgentAdmin}
	student = Actor{UserID: "student-1", Role: store.RoleUser}
	admin   = Actor{UserID: "root", Role: store.RoleSuperAdmin}
)

func newServiceStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createAgent(t *testing.T, s *store.SQLiteStore, chatbotType, visibility string) *store.Agent {
	t.Helper()
	agent := &store.Agent{
		Name:        "Academic Affairs",
		Description: "Registration and grades",
		ManagerID:   manager.UserID,
		ChatbotType: chatbotType,
		Visibility:  visibility,
		IsActive:    true,
	}
	require.NoError(t, s.CreateAgent(context.Background(), agent))
	return agent
}

func newChatFixture(t *testing.T, chatbotType string) (*ChatService, *store.SQLiteStore, *MockCompleter, *store.Agent) {
	t.Helper()
	db := newServiceStore(t)
	agent := createAgent(t, db, chatbotType, store.VisibilityPublic)
	llm := new(MockCompleter)
	engine := NewResponseEngine(db, llm, nil, EngineConfig{Timeout: time.Second})
	return NewChatService(db, engine, 10), db, llm, agent
}

func TestChatService_SendMessage(t *testing.T) {
	svc, _, llm, agent := newChatFixture(t, store.ChatbotTypeGeneralLLM)
	llm.On("Complete", mock.Anything, mock.Anything).Return("Registration opens on Monday.", nil)
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)

	result, err := svc.SendMessage(ctx, conv.ID, student.UserID, "  When does registration open?  ", "en")
	require.NoError(t, err)

	assert.Equal(t, "When does registration open?", result.UserMessage.Content)
	assert.True(t, result.UserMessage.IsFromUser)
	assert.Equal(t, "Registration opens on Monday.", result.AIMessage.Content)
	assert.False(t, result.AIMessage.IsFromUser)
	assert.Empty(t, result.AIMessage.TriggerAction)
	assert.NotNil(t, result.UsedDocuments)

	messages, err := svc.GetMessages(ctx, conv.ID, student.UserID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, result.UserMessage.ID, messages[0].ID)
	assert.Equal(t, result.AIMessage.ID, messages[1].ID)

	// The first message of a conversation has no history.
	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Empty(t, reqs[0].History)
}

func TestChatService_SendMessage_HistoryWindow(t *testing.T) {
	svc, db, llm, agent := newChatFixture(t, store.ChatbotTypeGeneralLLM)
	llm.On("Complete", mock.Anything, mock.Anything).Return("ok", nil)
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, student, agent.ID, "")
	require.NoError(t, err)
	for i := 1; i <= 15; i++ {
		msg := store.Message{ConversationID: conv.ID, Content: fmt.Sprintf("prior %d", i), IsFromUser: i%2 == 1}
		require.NoError(t, db.CreateMessage(ctx, &msg))
	}

	_, err = svc.SendMessage(ctx, conv.ID, student.UserID, "current question", "en")
	require.NoError(t, err)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].History, 10)
	assert.Equal(t, "prior 6", reqs[0].History[0].Content)
	assert.Equal(t, "prior 15", reqs[0].History[9].Content)
	assert.True(t, strings.HasPrefix(reqs[0].Prompt, "current question"))
}

func TestChatService_SendMessage_UsesAgentDocuments(t *testing.T) {
	svc, db, llm, agent := newChatFixture(t, store.ChatbotTypeStrictDoc)
	llm.On("Complete", mock.Anything, mock.Anything).Return("Tuition is due March 1.", nil)
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)

	result, err := svc.SendMessage(ctx, conv.ID, student.UserID, "When is tuition due?", "en")
	require.NoError(t, err)
	assert.Equal(t, cannedText(msgNoDocuments, "en"), result.AIMessage.Content)
	llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)

	content := "Tuition must be paid by March 1."
	require.NoError(t, db.CreateDocument(ctx, &store.Document{AgentID: agent.ID, Filename: "a.txt", OriginalName: "tuition.txt", Content: &content}))

	result, err = svc.SendMessage(ctx, conv.ID, student.UserID, "When is tuition due?", "en")
	require.NoError(t, err)
	assert.Equal(t, "Tuition is due March 1.", result.AIMessage.Content)
	assert.Equal(t, []string{"tuition.txt"}, result.UsedDocuments)
}

func TestChatService_SendMessage_ManagementCommand(t *testing.T) {
	svc, _, llm, agent := newChatFixture(t, store.ChatbotTypeGeneralLLM)
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, manager, agent.ID, store.ConversationTypeManagement)
	require.NoError(t, err)

	result, err := svc.SendMessage(ctx, conv.ID, manager.UserID, "upload a new document", "en")
	require.NoError(t, err)
	assert.Equal(t, TriggerOpenFileModal, result.AIMessage.TriggerAction)
	assert.Equal(t, cannedText(msgDocumentCommand, "en"), result.AIMessage.Content)
	llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestChatService_SendMessage_Validation(t *testing.T) {
	svc, _, _, agent := newChatFixture(t, store.ChatbotTypeGeneralLLM)
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, conv.ID, student.UserID, "   ", "en")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.SendMessage(ctx, conv.ID, "someone-else", "hi", "en")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.SendMessage(ctx, "missing", student.UserID, "hi", "en")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestChatService_GetOrCreateConversation(t *testing.T) {
	svc, db, _, agent := newChatFixture(t, store.ChatbotTypeGeneralLLM)
	ctx := context.Background()

	first, err := svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)
	second, err := svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	mgmt, err := svc.GetOrCreateConversation(ctx, manager, agent.ID, store.ConversationTypeManagement)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, mgmt.ID)

	_, err = svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeManagement)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.GetOrCreateConversation(ctx, admin, agent.ID, store.ConversationTypeManagement)
	assert.NoError(t, err)

	_, err = svc.GetOrCreateConversation(ctx, student, agent.ID, "support")
	assert.True(t, apperrors.IsValidationError(err))

	private := createAgent(t, db, store.ChatbotTypeGeneralLLM, store.VisibilityPrivate)
	_, err = svc.GetOrCreateConversation(ctx, student, private.ID, store.ConversationTypeGeneral)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestChatService_HideAndList(t *testing.T) {
	svc, _, _, agent := newChatFixture(t, store.ChatbotTypeGeneralLLM)
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)

	convs, err := svc.ListConversations(ctx, student.UserID)
	require.NoError(t, err)
	assert.Len(t, convs, 1)

	require.NoError(t, svc.HideConversation(ctx, conv.ID, student.UserID))
	convs, err = svc.ListConversations(ctx, student.UserID)
	require.NoError(t, err)
	assert.Empty(t, convs)

	reopened, err := svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, reopened.ID)
	assert.False(t, reopened.IsHidden)
}

func TestChatService_ClearMessages(t *testing.T) {
	svc, _, llm, agent := newChatFixture(t, store.ChatbotTypeGeneralLLM)
	llm.On("Complete", mock.Anything, mock.Anything).Return("hi", nil)
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, conv.ID, student.UserID, "hello", "en")
	require.NoError(t, err)

	require.NoError(t, svc.ClearMessages(ctx, conv.ID, student.UserID))
	messages, err := svc.GetMessages(ctx, conv.ID, student.UserID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestChatService_Broadcast(t *testing.T) {
	svc, db, _, agent := newChatFixture(t, store.ChatbotTypeGeneralLLM)
	ctx := context.Background()

	other := Actor{UserID: "student-2", Role: store.RoleUser}
	c1, err := svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)
	c2, err := svc.GetOrCreateConversation(ctx, other, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)
	_, err = svc.GetOrCreateConversation(ctx, manager, agent.ID, store.ConversationTypeManagement)
	require.NoError(t, err)

	_, err = svc.Broadcast(ctx, student, agent.ID, "hello all")
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.Broadcast(ctx, manager, agent.ID, "  ")
	assert.True(t, apperrors.IsValidationError(err))

	result, err := svc.Broadcast(ctx, manager, agent.ID, "Registration closes Friday.")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Delivered)
	assert.Empty(t, result.Failed)

	for _, id := range []string{c1.ID, c2.ID} {
		conv, err := db.GetConversation(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, conv.UnreadCount)
		assert.NotNil(t, conv.LastMessageAt)

		messages, err := db.GetMessagesByConversationID(ctx, id, 10, 0)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, "Registration closes Friday.", messages[0].Content)
		assert.False(t, messages[0].IsFromUser)
	}

	require.NoError(t, svc.MarkRead(ctx, c1.ID, student.UserID))
	conv, err := db.GetConversation(ctx, c1.ID)
	require.NoError(t, err)
	assert.Zero(t, conv.UnreadCount)
}

func TestChatService_Reactions(t *testing.T) {
	svc, _, llm, agent := newChatFixture(t, store.ChatbotTypeGeneralLLM)
	llm.On("Complete", mock.Anything, mock.Anything).Return("answer", nil)
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, student, agent.ID, store.ConversationTypeGeneral)
	require.NoError(t, err)
	result, err := svc.SendMessage(ctx, conv.ID, student.UserID, "question", "en")
	require.NoError(t, err)
	msgID := result.AIMessage.ID

	_, err = svc.SetReaction(ctx, msgID, student.UserID, "like")
	require.NoError(t, err)
	reaction, err := svc.SetReaction(ctx, msgID, student.UserID, "dislike")
	require.NoError(t, err)
	assert.Equal(t, store.ReactionDislike, reaction.Value)

	reactions, err := svc.ListReactions(ctx, conv.ID, student.UserID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{msgID: store.ReactionDislike}, reactions)

	_, err = svc.SetReaction(ctx, msgID, student.UserID, "👍")
	require.NoError(t, err)
	reactions, err = svc.ListReactions(ctx, conv.ID, student.UserID)
	require.NoError(t, err)
	assert.Equal(t, store.ReactionLike, reactions[msgID])

	_, err = svc.SetReaction(ctx, msgID, student.UserID, "love")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = svc.SetReaction(ctx, msgID, "intruder", "like")
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, svc.DeleteReaction(ctx, msgID, student.UserID))
	reactions, err = svc.ListReactions(ctx, conv.ID, student.UserID)
	require.NoError(t, err)
	assert.Empty(t, reactions)
}
