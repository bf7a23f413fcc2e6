package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const messageColumns = "id, conversation_id, content, is_from_user, created_at"

// Message methods
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *Message) error {
	msg.ID = uuid.NewString() // Ensure ID is set
	msg.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages ("+messageColumns+") VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.ConversationID, msg.Content, msg.IsFromUser, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*Message, error) {
	messages, err := s.queryMessages(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return &messages[0], nil
}

// GetMessagesByConversationID returns messages oldest first.
func (s *SQLiteStore) GetMessagesByConversationID(ctx context.Context, conversationID string, limit int, offset int) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE conversation_id = ?
        ORDER BY created_at ASC, rowid ASC
        LIMIT ? OFFSET ?`
	return s.queryMessages(ctx, query, conversationID, limit, offset)
}

// GetLastNMessages returns the n most recent messages, oldest first.
func (s *SQLiteStore) GetLastNMessages(ctx context.Context, conversationID string, n int) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM (
            SELECT ` + messageColumns + `, rowid AS seq FROM messages
            WHERE conversation_id = ?
            ORDER BY created_at DESC, rowid DESC
            LIMIT ?
        ) ORDER BY created_at ASC, seq ASC`
	return s.queryMessages(ctx, query, conversationID, n)
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Content, &msg.IsFromUser, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *SQLiteStore) DeleteConversationMessages(ctx context.Context, conversationID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}
