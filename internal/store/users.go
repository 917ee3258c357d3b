package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CreateUser inserts a user, assigning an id when empty.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = "user_" + uuid.NewString()
	}
	u.CreatedAt = s.now()

	return s.executeWrite(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO users (id, name, role, gender, tts_gender, preferred_lang, preferred_voice, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Name, u.Role,
			nullable(u.Gender), nullable(u.TTSGender),
			u.PreferredLang, nullable(u.PreferredVoice),
			u.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, gender, tts_gender, preferred_lang, preferred_voice, created_at
		FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// ListUsers returns all users ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, gender, tts_gender, preferred_lang, preferred_voice, created_at
		FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetOrAssignTTSGender returns the user's persisted TTS gender, randomly
// assigning one on first call. The assignment is atomic in the writer
// goroutine, so concurrent callers observe the same value.
func (s *Store) GetOrAssignTTSGender(ctx context.Context, userID string) (string, error) {
	var gender string
	err := s.executeWrite(func(db *sql.DB) error {
		var current sql.NullString
		err := db.QueryRowContext(ctx, `SELECT tts_gender FROM users WHERE id = ?`, userID).Scan(&current)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("query tts gender: %w", err)
		}
		if current.Valid && current.String != "" {
			gender = current.String
			return nil
		}

		gender = s.pickGender()
		if _, err := db.ExecContext(ctx, `UPDATE users SET tts_gender = ? WHERE id = ?`, gender, userID); err != nil {
			return fmt.Errorf("assign tts gender: %w", err)
		}
		s.logger.Debug("assigned tts gender", "user_id", userID, "gender", gender)
		return nil
	})
	return gender, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*User, error) {
	var u User
	var gender, ttsGender, voice sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Role, &gender, &ttsGender, &u.PreferredLang, &voice, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Gender = gender.String
	u.TTSGender = ttsGender.String
	u.PreferredVoice = voice.String
	return &u, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
