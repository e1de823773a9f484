package db

import (
	"context"
	"database/sql"

	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/errors"
)

// Session is a stored chat session.
type Session struct {
	ID            string    `json:"id"`
	Title         string    `json:"title,omitempty"`
	InspirationID string    `json:"inspiration_id,omitempty"`
	Messages      []Message `json:"messages"`
	CreatedAt     int64     `json:"created_at"`
	UpdatedAt     int64     `json:"updated_at"`
}

// Message is a stored chat message.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      chat.Role `json:"role"`
	Content   string    `json:"content"`
	CreatedAt int64     `json:"created_at"`
}

// InsertSession stores a new chat session.
func InsertSession(ctx context.Context, db *sql.DB, s *Session) error {
	query := `
		INSERT INTO chat_sessions (id, title, inspiration_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		s.ID, toNullString(s.Title), toNullString(s.InspirationID),
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetSession retrieves a session with its messages in insertion order.
func GetSession(ctx context.Context, db *sql.DB, id string) (*Session, error) {
	query := `
		SELECT id, title, inspiration_id, created_at, updated_at
		FROM chat_sessions
		WHERE id = ?
	`

	var (
		s             Session
		title         sql.NullString
		inspirationID sql.NullString
	)
	err := db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &title, &inspirationID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	s.Title = fromNullString(title)
	s.InspirationID = fromNullString(inspirationID)

	messages, err := sessionMessages(ctx, db, id)
	if err != nil {
		return nil, err
	}
	s.Messages = messages

	return &s, nil
}

// ListSessions returns all sessions newest-first, each with its messages.
func ListSessions(ctx context.Context, db *sql.DB) ([]*Session, error) {
	query := `
		SELECT id, title, inspiration_id, created_at, updated_at
		FROM chat_sessions
		ORDER BY created_at DESC, id DESC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var (
			s             Session
			title         sql.NullString
			inspirationID sql.NullString
		)
		if err := rows.Scan(&s.ID, &title, &inspirationID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		s.Title = fromNullString(title)
		s.InspirationID = fromNullString(inspirationID)
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	for _, s := range sessions {
		messages, err := sessionMessages(ctx, db, s.ID)
		if err != nil {
			return nil, err
		}
		s.Messages = messages
	}

	return sessions, nil
}

// DeleteSession removes a session and its messages.
func DeleteSession(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = ?", id); err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// UpdateSessionTitle sets a session's title and bumps updated_at.
func UpdateSessionTitle(ctx context.Context, db *sql.DB, id, title string, now int64) error {
	result, err := db.ExecContext(ctx,
		"UPDATE chat_sessions SET title = ?, updated_at = ? WHERE id = ?",
		toNullString(title), now, id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// LinkInspiration records the inspiration distilled from a session.
func LinkInspiration(ctx context.Context, db *sql.DB, sessionID, inspirationID string, now int64) error {
	result, err := db.ExecContext(ctx,
		"UPDATE chat_sessions SET inspiration_id = ?, updated_at = ? WHERE id = ?",
		inspirationID, now, sessionID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(sessionID)
	}
	return nil
}

// InsertMessage appends a message to a session.
func InsertMessage(ctx context.Context, db *sql.DB, m *Message) error {
	query := `
		INSERT INTO chat_messages (id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query, m.ID, m.SessionID, string(m.Role), m.Content, m.CreatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteSessionMessages clears all messages of a session. Used when a
// session transcript is replaced wholesale.
func DeleteSessionMessages(ctx context.Context, db *sql.DB, sessionID string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = ?", sessionID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// CountSessionMessages returns the number of messages in a session.
func CountSessionMessages(ctx context.Context, db *sql.DB, sessionID string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chat_messages WHERE session_id = ?", sessionID,
	).Scan(&count)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// sessionMessages loads a session's messages in insertion order.
func sessionMessages(ctx context.Context, db *sql.DB, sessionID string) ([]Message, error) {
	query := `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var (
			m    Message
			role string
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		m.Role = chat.Role(role)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return messages, nil
}
