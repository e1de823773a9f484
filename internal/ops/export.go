package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/TD21forever/buling/internal/db"
	"github.com/TD21forever/buling/internal/inspiration"
)

// ExportInspirations renders the inspirations matching the filter as a
// markdown document.
func ExportInspirations(ctx context.Context, database *sql.DB, input ListInput) (string, error) {
	items, err := db.ListInspirations(ctx, database, db.InspirationFilter{
		Category: input.Category,
		Tag:      input.Tag,
		Search:   input.Search,
	})
	if err != nil {
		return "", err
	}
	return ExportMarkdown(items), nil
}

// ExportMarkdown renders inspirations as a markdown document, one section
// per record.
func ExportMarkdown(items []*inspiration.Inspiration) string {
	var b strings.Builder

	b.WriteString("# 灵感导出\n\n")
	fmt.Fprintf(&b, "共 %d 条\n", len(items))

	for _, insp := range items {
		b.WriteString("\n---\n\n")
		fmt.Fprintf(&b, "## %s\n\n", insp.Title)
		if insp.Summary != "" {
			fmt.Fprintf(&b, "> %s\n\n", insp.Summary)
		}
		b.WriteString(insp.Content)
		b.WriteString("\n\n")

		labels := make([]string, len(insp.Categories))
		for i, c := range insp.Categories {
			labels[i] = inspiration.CategoryLabels[c]
		}
		fmt.Fprintf(&b, "- 分类: %s\n", strings.Join(labels, ", "))
		if len(insp.Tags) > 0 {
			fmt.Fprintf(&b, "- 标签: %s\n", strings.Join(insp.Tags, ", "))
		}
		fmt.Fprintf(&b, "- 创建: %s\n", time.Unix(insp.CreatedAt, 0).UTC().Format("2006-01-02 15:04:05"))
	}

	return b.String()
}
