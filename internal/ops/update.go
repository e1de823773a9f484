package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/TD21forever/buling/internal/db"
	"github.com/TD21forever/buling/internal/errors"
	"github.com/TD21forever/buling/internal/inspiration"
)

// UpdateInspirationInput contains parameters for UpdateInspiration.
// Nil pointer fields are left unchanged.
type UpdateInspirationInput struct {
	ID         string
	Title      *string
	Content    *string
	Summary    *string
	Categories *[]string
	Tags       *[]string
}

// UpdateInspiration applies partial updates to an existing inspiration.
func UpdateInspiration(ctx context.Context, database *sql.DB, input UpdateInspirationInput) (*inspiration.Inspiration, error) {
	if strings.TrimSpace(input.ID) == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	insp, err := db.GetInspiration(ctx, database, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, errors.NewInvalidRequest("title must not be empty")
		}
		insp.Title = inspiration.TruncateRunes(*input.Title, maxTitleRunes)
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, errors.NewInvalidRequest("content must not be empty")
		}
		insp.Content = *input.Content
	}
	if input.Summary != nil {
		insp.Summary = inspiration.TruncateRunes(*input.Summary, maxSummaryRunes)
	}
	if input.Categories != nil {
		insp.Categories = inspiration.FilterCategories(*input.Categories)
	}
	if input.Tags != nil {
		tags := *input.Tags
		if len(tags) > maxTags {
			tags = tags[:maxTags]
		}
		insp.Tags = tags
	}

	if err := db.UpdateInspiration(ctx, database, insp); err != nil {
		return nil, err
	}

	return insp, nil
}

// DeleteInspirations hard-deletes the given inspirations.
func DeleteInspirations(ctx context.Context, database *sql.DB, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, errors.NewInvalidRequest("ids are required")
	}
	return db.DeleteInspirations(ctx, database, ids)
}

// PurgeInspirations deletes every stored inspiration and returns the count.
func PurgeInspirations(ctx context.Context, database *sql.DB) (int, error) {
	return db.PurgeInspirations(ctx, database)
}
