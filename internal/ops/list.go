package ops

import (
	"context"
	"database/sql"

	"github.com/TD21forever/buling/internal/db"
	"github.com/TD21forever/buling/internal/inspiration"
)

// ListInput contains parameters for ListInspirations.
type ListInput struct {
	Category string
	Tag      string
	Search   string
	Limit    int
	Offset   int
}

// ListOutput contains the result of ListInspirations.
type ListOutput struct {
	Items      []*inspiration.Inspiration `json:"inspirations"`
	Pagination Pagination                 `json:"pagination"`
}

// ListInspirations returns inspirations newest-first, filtered by category,
// tag, or search term.
func ListInspirations(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	limit := clampLimit(input.Limit)
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	// Fetch one extra row to detect whether more pages exist.
	items, err := db.ListInspirations(ctx, database, db.InspirationFilter{
		Category: input.Category,
		Tag:      input.Tag,
		Search:   input.Search,
		Limit:    limit + 1,
		Offset:   offset,
	})
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	if items == nil {
		items = []*inspiration.Inspiration{}
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: hasMore,
			Total:   offset + len(items),
		},
	}, nil
}

// GetInspiration retrieves a single inspiration by ID.
func GetInspiration(ctx context.Context, database *sql.DB, id string) (*inspiration.Inspiration, error) {
	return db.GetInspiration(ctx, database, id)
}
