package ops

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/TD21forever/buling/internal/analyzer"
	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/db"
	"github.com/TD21forever/buling/internal/errors"
	"github.com/TD21forever/buling/internal/inspiration"
)

// SaveSessionInput contains parameters for SaveSession.
type SaveSessionInput struct {
	SessionID string
	Title     string // optional; replaces the stored title when non-empty
	Turns     []chat.Turn
}

// SaveSessionOutput reports the stored session and the inspiration
// distilled from its transcript.
type SaveSessionOutput struct {
	Session     *db.Session              `json:"session"`
	Inspiration *inspiration.Inspiration `json:"inspiration,omitempty"`
}

// SaveSession replaces a session's transcript wholesale, then distills the
// conversation into a linked inspiration. Distillation trouble is logged
// rather than failing the save: the transcript is already durable.
func SaveSession(ctx context.Context, database *sql.DB, an *analyzer.Analyzer, input SaveSessionInput) (*SaveSessionOutput, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, errors.NewInvalidRequest("session_id is required")
	}
	if len(input.Turns) == 0 {
		return nil, errors.NewInvalidRequest("messages are required")
	}
	for _, turn := range input.Turns {
		if !chat.ValidRole(turn.Role) {
			return nil, errors.NewInvalidRequest("unknown role: " + string(turn.Role))
		}
	}

	if _, err := db.GetSession(ctx, database, input.SessionID); err != nil {
		return nil, err
	}

	if err := db.DeleteSessionMessages(ctx, database, input.SessionID); err != nil {
		return nil, err
	}

	// Index offsets keep replayed turns ordered even within one millisecond.
	base := time.Now().UnixMilli()
	for i, turn := range input.Turns {
		id, err := newULID()
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		msg := &db.Message{
			ID:        id,
			SessionID: input.SessionID,
			Role:      turn.Role,
			Content:   turn.Content,
			CreatedAt: base + int64(i),
		}
		if err := db.InsertMessage(ctx, database, msg); err != nil {
			return nil, err
		}
	}

	now := time.Now().Unix()
	if title := strings.TrimSpace(input.Title); title != "" {
		if err := db.UpdateSessionTitle(ctx, database, input.SessionID, title, now); err != nil {
			return nil, err
		}
	}

	out := &SaveSessionOutput{}

	analysis := an.Analyze(ctx, chat.Transcript(input.Turns))
	insp, err := SaveInspiration(ctx, database, SaveInspirationInput{
		Title:      analysis.Title,
		Content:    chat.Transcript(input.Turns),
		Summary:    analysis.Summary,
		Categories: categoryStrings(analysis.Categories),
		Tags:       analysis.Tags,
	})
	if err != nil {
		log.Printf("ops: save session %s: distill inspiration: %v", input.SessionID, err)
	} else {
		if err := db.LinkInspiration(ctx, database, input.SessionID, insp.ID, now); err != nil {
			log.Printf("ops: save session %s: link inspiration: %v", input.SessionID, err)
		}
		out.Inspiration = insp
	}

	session, err := db.GetSession(ctx, database, input.SessionID)
	if err != nil {
		return nil, err
	}
	out.Session = session

	return out, nil
}

func categoryStrings(categories []inspiration.Category) []string {
	raw := make([]string, len(categories))
	for i, c := range categories {
		raw[i] = string(c)
	}
	return raw
}
