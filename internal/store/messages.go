package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateMessage inserts a voice-note record, assigning an id when empty.
// Status defaults to sent.
func (s *Store) CreateMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = "msg_" + uuid.NewString()
	}
	if m.Status == "" {
		m.Status = StatusSent
	}
	m.CreatedAt = s.now()

	return s.executeWrite(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO messages (id, conversation_id, sender_id, text_source, text_translated,
				source_lang, target_lang, status, created_at, client_sent_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.ConversationID, m.SenderID, m.TextSource, m.TextTranslated,
			m.SourceLang, m.TargetLang, m.Status, m.CreatedAt, m.ClientSentAt,
		)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
}

// GetMessage returns the message with the given id.
func (s *Store) GetMessage(ctx context.Context, id string) (*Message, error) {
	row := s.db.QueryRowContext(ctx, messageColumns+`WHERE id = ?`, id)
	return scanMessage(row)
}

// ListMessages returns one page of a conversation's history, newest first.
// beforeID is the cursor: pass the oldest id of the previous page, or ""
// for the latest page.
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int, beforeID string) ([]*Message, error) {
	if limit <= 0 {
		limit = 50
	}

	query := messageColumns + `WHERE conversation_id = ? `
	args := []any{conversationID}

	if beforeID != "" {
		cursor, err := s.GetMessage(ctx, beforeID)
		if err != nil {
			return nil, err
		}
		query += `AND (created_at < ? OR (created_at = ? AND id < ?)) `
		args = append(args, cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	query += `ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// UpdateTranslation sets the translated text of a message.
func (s *Store) UpdateTranslation(ctx context.Context, id, translated string) error {
	return s.executeWrite(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, `UPDATE messages SET text_translated = ? WHERE id = ?`, translated, id)
		if err != nil {
			return fmt.Errorf("update translation: %w", err)
		}
		return checkRowFound(res)
	})
}

// UpdateStatus advances a message's lifecycle state. Repeating the current
// status is a no-op; moving backward returns ErrStatusRegression. at stamps
// delivered_at or played_at for the respective states; ttfaMs is persisted
// only with played.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, at time.Time, ttfaMs *int64) error {
	if _, ok := statusRank[status]; !ok {
		return fmt.Errorf("store: unknown status %q", status)
	}

	return s.executeWrite(func(db *sql.DB) error {
		var current Status
		err := db.QueryRowContext(ctx, `SELECT status FROM messages WHERE id = ?`, id).Scan(&current)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("query status: %w", err)
		}

		if current == status {
			return nil
		}
		if !transitionAllowed(current, status) {
			return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, current, status)
		}

		switch status {
		case StatusDelivered:
			_, err = db.ExecContext(ctx, `UPDATE messages SET status = ?, delivered_at = ? WHERE id = ?`,
				status, at, id)
		case StatusPlayed:
			_, err = db.ExecContext(ctx, `UPDATE messages SET status = ?, played_at = ?, ttfa_ms = ? WHERE id = ?`,
				status, at, ttfaMs, id)
		default:
			_, err = db.ExecContext(ctx, `UPDATE messages SET status = ? WHERE id = ?`, status, id)
		}
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return nil
	})
}

const messageColumns = `
	SELECT id, conversation_id, sender_id, text_source, text_translated,
		source_lang, target_lang, status, created_at, client_sent_at,
		delivered_at, played_at, ttfa_ms
	FROM messages `

func scanMessage(row scanner) (*Message, error) {
	var m Message
	var translated sql.NullString
	var clientSentAt, deliveredAt, playedAt sql.NullTime
	var ttfa sql.NullInt64

	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.TextSource, &translated,
		&m.SourceLang, &m.TargetLang, &m.Status, &m.CreatedAt, &clientSentAt,
		&deliveredAt, &playedAt, &ttfa)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}

	if translated.Valid {
		m.TextTranslated = &translated.String
	}
	if clientSentAt.Valid {
		m.ClientSentAt = &clientSentAt.Time
	}
	if deliveredAt.Valid {
		m.DeliveredAt = &deliveredAt.Time
	}
	if playedAt.Valid {
		m.PlayedAt = &playedAt.Time
	}
	if ttfa.Valid {
		m.TTFAMs = &ttfa.Int64
	}
	return &m, nil
}

func checkRowFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
