package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/TD21forever/buling/internal/db"
	"github.com/TD21forever/buling/internal/errors"
	"github.com/TD21forever/buling/internal/inspiration"
)

const (
	maxTitleRunes   = 50
	maxSummaryRunes = 200
	maxTags         = 5
)

// SaveInspirationInput contains parameters for SaveInspiration.
type SaveInspirationInput struct {
	Title      string   // required
	Content    string   // required
	Summary    string   // optional
	Categories []string // filtered to the valid enum; defaults to [creation]
	Tags       []string // truncated to 5
}

// SaveInspiration validates, normalizes, and stores a new inspiration.
func SaveInspiration(ctx context.Context, database *sql.DB, input SaveInspirationInput) (*inspiration.Inspiration, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.NewInvalidRequest("content is required")
	}

	id, err := newULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	tags := input.Tags
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	now := time.Now().Unix()
	insp := &inspiration.Inspiration{
		ID:         id,
		Title:      inspiration.TruncateRunes(input.Title, maxTitleRunes),
		Content:    input.Content,
		Summary:    inspiration.TruncateRunes(input.Summary, maxSummaryRunes),
		Categories: inspiration.FilterCategories(input.Categories),
		Tags:       tags,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := db.InsertInspiration(ctx, database, insp); err != nil {
		return nil, err
	}

	return insp, nil
}
