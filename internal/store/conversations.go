package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const conversationColumns = "id, user_id, agent_id, type, unread_count, last_message_at, is_hidden, created_at"

func scanConversation(row rowScanner) (*Conversation, error) {
	var c Conversation
	var lastMessageAt sql.NullTime
	if err := row.Scan(&c.ID, &c.UserID, &c.AgentID, &c.Type, &c.UnreadCount, &lastMessageAt, &c.IsHidden, &c.CreatedAt); err != nil {
		return nil, err
	}
	if lastMessageAt.Valid {
		c.LastMessageAt = &lastMessageAt.Time
	}
	return &c, nil
}

// GetOrCreateConversation returns the single conversation for
// (userID, agentID, convType), creating it on first use. A hidden
// conversation is un-hidden.
func (s *SQLiteStore) GetOrCreateConversation(ctx context.Context, userID string, agentID int64, convType string) (*Conversation, error) {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, agent_id, type, created_at) VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(user_id, agent_id, type) DO UPDATE SET is_hidden = FALSE`,
		uuid.NewString(), userID, agentID, convType, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert conversation: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE user_id = ? AND agent_id = ? AND type = ?",
		userID, agentID, convType)
	conv, err := scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}
	return conv, nil
}

func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+conversationColumns+" FROM conversations WHERE id = ?", id)
	conv, err := scanConversation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

func (s *SQLiteStore) ListConversationsByUser(ctx context.Context, userID string) ([]Conversation, error) {
	return s.queryConversations(ctx,
		`SELECT `+conversationColumns+` FROM conversations
        WHERE user_id = ? AND is_hidden = FALSE
        ORDER BY COALESCE(last_message_at, created_at) DESC`, userID)
}

func (s *SQLiteStore) ListConversationsByAgent(ctx context.Context, agentID int64, convType string) ([]Conversation, error) {
	return s.queryConversations(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE agent_id = ? AND type = ? ORDER BY created_at",
		agentID, convType)
}

func (s *SQLiteStore) queryConversations(ctx context.Context, query string, args ...any) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		convs = append(convs, *conv)
	}
	return convs, rows.Err()
}

// TouchConversation records activity; unreadDelta is added to the unread counter.
func (s *SQLiteStore) TouchConversation(ctx context.Context, id string, at time.Time, unreadDelta int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE conversations SET last_message_at = ?, unread_count = unread_count + ? WHERE id = ?",
		at, unreadDelta, id)
	if err != nil {
		return fmt.Errorf("failed to update conversation activity: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MarkConversationRead(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE conversations SET unread_count = 0 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetConversationHidden(ctx context.Context, id string, hidden bool) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE conversations SET is_hidden = ? WHERE id = ?", hidden, id); err != nil {
		return fmt.Errorf("failed to update conversation visibility: %w", err)
	}
	return nil
}
