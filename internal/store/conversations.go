package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CreateOrGetConversation returns the conversation for a user pair,
// creating it on first use. The pair is canonicalized so (a, b) and (b, a)
// resolve to the same row.
func (s *Store) CreateOrGetConversation(ctx context.Context, userA, userB string) (*Conversation, error) {
	if userA > userB {
		userA, userB = userB, userA
	}

	existing, err := s.findConversation(ctx, userA, userB)
	if err == nil {
		return existing, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	conv := &Conversation{
		ID:        "conv_" + uuid.NewString(),
		UserAID:   userA,
		UserBID:   userB,
		CreatedAt: s.now(),
	}
	err = s.executeWrite(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO conversations (id, user_a_id, user_b_id, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_a_id, user_b_id) DO NOTHING`,
			conv.ID, conv.UserAID, conv.UserBID, conv.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Re-read in case a concurrent call won the insert.
	return s.findConversation(ctx, userA, userB)
}

// GetConversation returns the conversation with the given id.
func (s *Store) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_a_id, user_b_id, created_at
		FROM conversations WHERE id = ?`, id)
	return scanConversation(row)
}

// ListConversations returns every conversation the user is a member of.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_a_id, user_b_id, created_at
		FROM conversations
		WHERE user_a_id = ? OR user_b_id = ?
		ORDER BY created_at ASC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var convs []*Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (s *Store) findConversation(ctx context.Context, userA, userB string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_a_id, user_b_id, created_at
		FROM conversations WHERE user_a_id = ? AND user_b_id = ?`, userA, userB)
	return scanConversation(row)
}

func scanConversation(row scanner) (*Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.UserAID, &c.UserBID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return &c, nil
}
