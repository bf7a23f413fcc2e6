package store

import (
	"context"
	"fmt"
	"time"
)

// SetReaction stores value as the only reaction of userID on messageID,
// replacing any earlier one.
func (s *SQLiteStore) SetReaction(ctx context.Context, messageID, userID, value string) (*Reaction, error) {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_reactions (message_id, user_id, value, created_at) VALUES (?, ?, ?, ?)
        ON CONFLICT(message_id, user_id) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`,
		messageID, userID, value, now)
	if err != nil {
		return nil, fmt.Errorf("failed to store reaction: %w", err)
	}
	return &Reaction{MessageID: messageID, UserID: userID, Value: value, CreatedAt: now}, nil
}

func (s *SQLiteStore) DeleteReaction(ctx context.Context, messageID, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM message_reactions WHERE message_id = ? AND user_id = ?", messageID, userID); err != nil {
		return fmt.Errorf("failed to delete reaction: %w", err)
	}
	return nil
}

// GetConversationReactions returns userID's reactions keyed by message id.
func (s *SQLiteStore) GetConversationReactions(ctx context.Context, conversationID, userID string) (map[string]Reaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.message_id, r.user_id, r.value, r.created_at
        FROM message_reactions r JOIN messages m ON m.id = r.message_id
        WHERE m.conversation_id = ? AND r.user_id = ?`, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions: %w", err)
	}
	defer rows.Close()

	reactions := make(map[string]Reaction)
	for rows.Next() {
		var r Reaction
		if err := rows.Scan(&r.MessageID, &r.UserID, &r.Value, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reaction row: %w", err)
		}
		reactions[r.MessageID] = r
	}
	return reactions, rows.Err()
}

func (s *SQLiteStore) CountReactions(ctx context.Context, messageID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM message_reactions WHERE message_id = ?", messageID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reactions: %w", err)
	}
	return n, nil
}
