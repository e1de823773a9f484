package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/db"
	"github.com/TD21forever/buling/internal/errors"
)

// CreateSession stores a new, empty chat session.
func CreateSession(ctx context.Context, database *sql.DB, title string) (*db.Session, error) {
	id, err := newULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	s := &db.Session{
		ID:        id,
		Title:     strings.TrimSpace(title),
		Messages:  []db.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.InsertSession(ctx, database, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ListSessions returns all sessions newest-first.
func ListSessions(ctx context.Context, database *sql.DB) ([]*db.Session, error) {
	sessions, err := db.ListSessions(ctx, database)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []*db.Session{}
	}
	return sessions, nil
}

// GetSession retrieves one session with its messages.
func GetSession(ctx context.Context, database *sql.DB, id string) (*db.Session, error) {
	return db.GetSession(ctx, database, id)
}

// DeleteSession removes a session and its messages.
func DeleteSession(ctx context.Context, database *sql.DB, id string) error {
	return db.DeleteSession(ctx, database, id)
}

// MessageStore appends chat messages to stored sessions. It satisfies the
// relay's persistence hook.
type MessageStore struct {
	DB *sql.DB
}

// AppendMessage stores one message at the end of a session. Timestamps are
// millisecond-resolution so that messages written within the same second
// keep their arrival order.
func (s *MessageStore) AppendMessage(ctx context.Context, sessionID string, role chat.Role, content string) error {
	if !chat.ValidRole(role) {
		return errors.NewInvalidRequest("unknown role: " + string(role))
	}

	id, err := newULID()
	if err != nil {
		return errors.NewInternal(err)
	}

	return db.InsertMessage(ctx, s.DB, &db.Message{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UnixMilli(),
	})
}
