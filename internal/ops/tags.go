package ops

import (
	"context"
	"database/sql"
	"sort"

	"github.com/TD21forever/buling/internal/db"
	"github.com/TD21forever/buling/internal/inspiration"
)

// TagCount pairs a tag with the number of inspirations carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TagCounts returns every tag in use with its frequency, most frequent
// first; ties break alphabetically.
func TagCounts(ctx context.Context, database *sql.DB) ([]TagCount, error) {
	lists, err := db.AllTagLists(ctx, database)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, tags := range lists {
		for _, tag := range tags {
			if tag != "" {
				counts[tag]++
			}
		}
	}

	result := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})

	return result, nil
}

// CategoryCount pairs a category with its usage count and display label.
type CategoryCount struct {
	Category inspiration.Category `json:"category"`
	Label    string               `json:"label"`
	Count    int                  `json:"count"`
}

// CategoryCounts returns usage counts for all four categories in enum
// order, including zero-count ones.
func CategoryCounts(ctx context.Context, database *sql.DB) ([]CategoryCount, error) {
	lists, err := db.AllCategoryLists(ctx, database)
	if err != nil {
		return nil, err
	}

	counts := make(map[inspiration.Category]int)
	for _, categories := range lists {
		for _, raw := range categories {
			c := inspiration.Category(raw)
			if inspiration.ValidCategory(c) {
				counts[c]++
			}
		}
	}

	result := make([]CategoryCount, 0, len(inspiration.ValidCategories))
	for _, c := range inspiration.ValidCategories {
		result = append(result, CategoryCount{
			Category: c,
			Label:    inspiration.CategoryLabels[c],
			Count:    counts[c],
		})
	}

	return result, nil
}
