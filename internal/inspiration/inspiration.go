package inspiration

// Category classifies an inspiration into one of four fixed buckets.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryLife     Category = "life"
	CategoryCreation Category = "creation"
	CategoryLearning Category = "learning"
)

// ValidCategories lists the fixed category enum in display order.
var ValidCategories = []Category{CategoryWork, CategoryLife, CategoryCreation, CategoryLearning}

// CategoryLabels maps each category to its Chinese display label.
var CategoryLabels = map[Category]string{
	CategoryWork:     "工作",
	CategoryLife:     "生活",
	CategoryCreation: "创作",
	CategoryLearning: "学习",
}

// ValidCategory reports whether c is one of the four known categories.
func ValidCategory(c Category) bool {
	_, ok := CategoryLabels[c]
	return ok
}

// FilterCategories drops values outside the fixed enum, preserving order.
// An empty result defaults to [creation]: every inspiration carries at
// least one category.
func FilterCategories(raw []string) []Category {
	filtered := make([]Category, 0, len(raw))
	for _, r := range raw {
		c := Category(r)
		if ValidCategory(c) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return []Category{CategoryCreation}
	}
	return filtered
}

// Inspiration is a distilled, structured note derived from a conversation
// or free-form content.
type Inspiration struct {
	// ID is a ULID that uniquely identifies this inspiration
	ID string `json:"id"`

	// Title is a short display title (at most 50 runes)
	Title string `json:"title"`

	// Content is the full source text the inspiration was distilled from
	Content string `json:"content"`

	// Summary condenses the content (at most 200 runes)
	Summary string `json:"summary"`

	// Categories holds at least one value from the fixed enum
	Categories []Category `json:"categories"`

	// Tags is an ordered list of free-text labels, at most 5
	Tags []string `json:"tags"`

	// CreatedAt is the Unix timestamp when the inspiration was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last update
	UpdatedAt int64 `json:"updated_at"`
}

// TruncateRunes shortens s to at most n runes. Truncation operates on
// runes, not bytes: titles and summaries are frequently CJK text.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
