package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robo-univ/agent-portal/internal/apperrors"
	"github.com/robo-univ/agent-portal/internal/store"
	"github.com/robo-univ/agent-portal/internal/utils"
)

// maxMessagePageSize bounds GetMessages.
const maxMessagePageSize = 500

// reactionAliases maps UI emoji to stored reaction values.
var reactionAliases = map[string]string{
	store.ReactionLike:    store.ReactionLike,
	store.ReactionDislike: store.ReactionDislike,
	"👍":                   store.ReactionLike,
	"👎":                   store.ReactionDislike,
}

// AIMessage is the stored reply plus the trigger action, which is only
// returned, never persisted.
type AIMessage struct {
	store.Message
	TriggerAction string `json:"triggerAction,omitempty"`
}

type SendMessageResult struct {
	UserMessage   store.Message `json:"userMessage"`
	AIMessage     AIMessage     `json:"aiMessage"`
	UsedDocuments []string      `json:"usedDocuments"`
}

type BroadcastResult struct {
	Delivered int      `json:"delivered"`
	Failed    []string `json:"failed"` // conversation ids
}

type ChatService struct {
	dbStore      *store.SQLiteStore
	engine       *ResponseEngine
	documents    DocumentProvider
	historyLimit int
}

func NewChatService(db *store.SQLiteStore, engine *ResponseEngine, historyLimit int) *ChatService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &ChatService{
		dbStore:      db,
		engine:       engine,
		documents:    db,
		historyLimit: historyLimit,
	}
}

// GetOrCreateConversation returns the single conversation of this type
// between the user and the agent. Management conversations are restricted
// to the agent's administrators.
func (s *ChatService) GetOrCreateConversation(ctx context.Context, actor Actor, agentID int64, convType string) (*store.Conversation, error) {
	if convType == "" {
		convType = store.ConversationTypeGeneral
	}
	if convType != store.ConversationTypeGeneral && convType != store.ConversationTypeManagement {
		return nil, apperrors.NewValidationError("invalid conversation type", "type must be general or management")
	}

	agent, err := loadAgent(ctx, s.dbStore, agentID)
	if err != nil {
		return nil, err
	}
	if convType == store.ConversationTypeManagement {
		if !actor.canManage(agent) {
			return nil, apperrors.NewForbiddenError("only the agent manager or a super admin can open a management conversation")
		}
	} else if !actor.canView(agent) {
		return nil, apperrors.NewNotFoundError("agent", strconv.FormatInt(agentID, 10))
	}

	conv, err := s.dbStore.GetOrCreateConversation(ctx, actor.UserID, agentID, convType)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open conversation", err)
	}
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]store.Conversation, error) {
	convs, err := s.dbStore.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list conversations", err)
	}
	if convs == nil {
		convs = []store.Conversation{}
	}
	return convs, nil
}

func (s *ChatService) GetMessages(ctx context.Context, conversationID, userID string) ([]store.Message, error) {
	if _, err := s.ownedConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	messages, err := s.dbStore.GetMessagesByConversationID(ctx, conversationID, maxMessagePageSize, 0)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load messages", err)
	}
	if messages == nil {
		messages = []store.Message{}
	}
	return messages, nil
}

// SendMessage records the user's message, generates the agent's reply and
// records it. Reply generation never fails the call; only storage errors do.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, userID, content, language string) (*SendMessageResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("message content is required", "")
	}
	language = utils.NormalizeLanguage(language)

	conv, err := s.ownedConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	userMsg := store.Message{
		ConversationID: conv.ID,
		Content:        content,
		IsFromUser:     true,
	}
	if err := s.dbStore.CreateMessage(ctx, &userMsg); err != nil {
		return nil, apperrors.NewInternalError("failed to store user message", err)
	}

	history, err := s.dbStore.GetLastNMessages(ctx, conv.ID, s.historyLimit+1)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("Failed to load history, proceeding without it")
		history = nil
	}
	history = excludeMessage(history, userMsg.ID)

	docs, err := s.documents.GetDocuments(ctx, conv.AgentID)
	if err != nil {
		log.Warn().Err(err).Int64("agent_id", conv.AgentID).Msg("Failed to load documents, proceeding without them")
		docs = nil
	}

	reply := s.engine.GenerateResponse(ctx, GenerateRequest{
		ConversationType: conv.Type,
		AgentID:          conv.AgentID,
		UserMessage:      content,
		History:          history,
		Documents:        docs,
		Language:         language,
	})

	aiMsg := store.Message{
		ConversationID: conv.ID,
		Content:        reply.Message,
		IsFromUser:     false,
	}
	if err := s.dbStore.CreateMessage(ctx, &aiMsg); err != nil {
		return nil, apperrors.NewInternalError("failed to store agent reply", err)
	}
	if err := s.dbStore.TouchConversation(ctx, conv.ID, aiMsg.CreatedAt, 0); err != nil {
		log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("Failed to update conversation activity")
	}

	used := reply.UsedDocuments
	if used == nil {
		used = []string{}
	}
	return &SendMessageResult{
		UserMessage:   userMsg,
		AIMessage:     AIMessage{Message: aiMsg, TriggerAction: reply.TriggerAction},
		UsedDocuments: used,
	}, nil
}

// ClearMessages deletes every message of the conversation. The conversation
// itself stays.
func (s *ChatService) ClearMessages(ctx context.Context, conversationID, userID string) error {
	if _, err := s.ownedConversation(ctx, conversationID, userID); err != nil {
		return err
	}
	if err := s.dbStore.DeleteConversationMessages(ctx, conversationID); err != nil {
		return apperrors.NewInternalError("failed to clear messages", err)
	}
	return nil
}

// HideConversation removes the conversation from the user's list until the
// next GetOrCreateConversation.
func (s *ChatService) HideConversation(ctx context.Context, conversationID, userID string) error {
	if _, err := s.ownedConversation(ctx, conversationID, userID); err != nil {
		return err
	}
	if err := s.dbStore.SetConversationHidden(ctx, conversationID, true); err != nil {
		return apperrors.NewInternalError("failed to hide conversation", err)
	}
	return nil
}

func (s *ChatService) MarkRead(ctx context.Context, conversationID, userID string) error {
	if _, err := s.ownedConversation(ctx, conversationID, userID); err != nil {
		return err
	}
	if err := s.dbStore.MarkConversationRead(ctx, conversationID); err != nil {
		return apperrors.NewInternalError("failed to mark conversation read", err)
	}
	return nil
}

// Broadcast posts text as an agent message into every general conversation
// of the agent and bumps each unread counter.
func (s *ChatService) Broadcast(ctx context.Context, actor Actor, agentID int64, text string) (*BroadcastResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("notification text is required", "")
	}
	if _, err := managedAgent(ctx, s.dbStore, actor, agentID); err != nil {
		return nil, err
	}

	convs, err := s.dbStore.ListConversationsByAgent(ctx, agentID, store.ConversationTypeGeneral)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list agent conversations", err)
	}

	result := &BroadcastResult{Failed: []string{}}
	for _, conv := range convs {
		msg := store.Message{ConversationID: conv.ID, Content: text}
		if err := s.dbStore.CreateMessage(ctx, &msg); err != nil {
			log.Error().Err(err).Str("conversation_id", conv.ID).Msg("Failed to deliver notification")
			result.Failed = append(result.Failed, conv.ID)
			continue
		}
		if err := s.dbStore.TouchConversation(ctx, conv.ID, msg.CreatedAt, 1); err != nil {
			log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("Failed to update unread count")
		}
		result.Delivered++
	}

	log.Info().
		Int64("agent_id", agentID).
		Int("delivered", result.Delivered).
		Int("failed", len(result.Failed)).
		Msg("Notification broadcast")
	return result, nil
}

// SetReaction replaces the user's reaction on the message.
func (s *ChatService) SetReaction(ctx context.Context, messageID, userID, value string) (*store.Reaction, error) {
	normalized, ok := reactionAliases[strings.TrimSpace(value)]
	if !ok {
		return nil, apperrors.NewValidationError("invalid reaction", "reaction must be like or dislike")
	}
	if _, err := s.ownedMessage(ctx, messageID, userID); err != nil {
		return nil, err
	}
	reaction, err := s.dbStore.SetReaction(ctx, messageID, userID, normalized)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to save reaction", err)
	}
	return reaction, nil
}

func (s *ChatService) DeleteReaction(ctx context.Context, messageID, userID string) error {
	if _, err := s.ownedMessage(ctx, messageID, userID); err != nil {
		return err
	}
	if err := s.dbStore.DeleteReaction(ctx, messageID, userID); err != nil {
		return apperrors.NewInternalError("failed to delete reaction", err)
	}
	return nil
}

// ListReactions returns the user's reactions in the conversation keyed by
// message id.
func (s *ChatService) ListReactions(ctx context.Context, conversationID, userID string) (map[string]string, error) {
	if _, err := s.ownedConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	reactions, err := s.dbStore.GetConversationReactions(ctx, conversationID, userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load reactions", err)
	}
	out := make(map[string]string, len(reactions))
	for id, r := range reactions {
		out[id] = r.Value
	}
	return out, nil
}

// ownedConversation loads the conversation and hides it from anyone but
// its owner.
func (s *ChatService) ownedConversation(ctx context.Context, conversationID, userID string) (*store.Conversation, error) {
	conv, err := s.dbStore.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load conversation", err)
	}
	if conv == nil || conv.UserID != userID {
		return nil, apperrors.NewNotFoundError("conversation", conversationID)
	}
	return conv, nil
}

func (s *ChatService) ownedMessage(ctx context.Context, messageID, userID string) (*store.Message, error) {
	msg, err := s.dbStore.GetMessage(ctx, messageID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load message", err)
	}
	if msg == nil {
		return nil, apperrors.NewNotFoundError("message", messageID)
	}
	if _, err := s.ownedConversation(ctx, msg.ConversationID, userID); err != nil {
		return nil, fmt.Errorf("message %s: %w", messageID, err)
	}
	return msg, nil
}

func excludeMessage(messages []store.Message, id string) []store.Message {
	out := make([]store.Message, 0, len(messages))
	for _, m := range messages {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
