// Package analyzer distills free-form content into structured inspiration
// records. The upstream model is untrusted for format compliance, so every
// operation carries a deterministic content-derived fallback: the pipeline
// always returns a usable record and never errors to the caller.
package analyzer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/inspiration"
	"github.com/TD21forever/buling/internal/upstream"
)

const (
	maxTitleRunes   = 50
	maxSummaryRunes = 200
	maxTags         = 5

	fallbackTitleRunes   = 20
	fallbackSummaryRunes = 100
	fallbackTagCount     = 3

	// sentinelTag marks records produced by the heuristic fallback.
	sentinelTag = "灵感"
)

// Analysis is the normalized output of the pipeline.
type Analysis struct {
	Title      string                 `json:"title"`
	Summary    string                 `json:"summary"`
	Categories []inspiration.Category `json:"categories"`
	Tags       []string               `json:"tags"`
}

// Analyzer asks the upstream model for structured judgments about content.
type Analyzer struct {
	api   upstream.Completer
	model string
}

// New creates an Analyzer backed by the given completion client.
// An empty model uses the client's default.
func New(api upstream.Completer, model string) *Analyzer {
	return &Analyzer{api: api, model: model}
}

// Analyze produces an Analysis for the given content. It is
// total: upstream failures, malformed JSON, and missing fields all degrade
// to the heuristic fallback.
func (a *Analyzer) Analyze(ctx context.Context, content string) Analysis {
	turns := []chat.Turn{{Role: chat.RoleUser, Content: buildAnalysisPrompt(content)}}

	resp, err := a.api.Complete(ctx, turns, a.model)
	if err != nil {
		return fallbackAnalysis(content)
	}

	text := resp.Content()
	if text == "" {
		return fallbackAnalysis(content)
	}

	analysis, ok := parseAnalysisResponse(text)
	if !ok {
		return fallbackAnalysis(content)
	}
	return analysis
}

// analysisPayload is the typed decode target for the model's JSON reply.
type analysisPayload struct {
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

// parseAnalysisResponse extracts and validates the model's JSON object.
// The model may wrap the object in markdown fences or commentary; only the
// first brace-delimited region is considered.
func parseAnalysisResponse(text string) (Analysis, bool) {
	raw, ok := extractJSONObject(text)
	if !ok {
		return Analysis{}, false
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Analysis{}, false
	}

	// All four keys must be present and non-empty; a partially usable
	// record is treated as a parse failure rather than merged.
	if payload.Title == "" || payload.Summary == "" || payload.Categories == nil || payload.Tags == nil {
		return Analysis{}, false
	}

	tags := payload.Tags
	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	return Analysis{
		Title:      inspiration.TruncateRunes(payload.Title, maxTitleRunes),
		Summary:    inspiration.TruncateRunes(payload.Summary, maxSummaryRunes),
		Categories: inspiration.FilterCategories(payload.Categories),
		Tags:       tags,
	}, true
}

// fallbackAnalysis derives a record from the content itself.
func fallbackAnalysis(content string) Analysis {
	title := firstSentence(content)
	if strings.TrimSpace(title) == "" {
		// Content opening with a terminator yields an empty first sentence;
		// the title must still come out non-empty, so take the content head.
		title = content
	}
	if len([]rune(title)) > fallbackTitleRunes {
		title = inspiration.TruncateRunes(title, fallbackTitleRunes) + "..."
	}

	summary := content
	if len([]rune(summary)) > fallbackSummaryRunes {
		summary = inspiration.TruncateRunes(summary, fallbackSummaryRunes) + "..."
	}

	tags := append(keywordTags(content, fallbackTagCount), sentinelTag)

	return Analysis{
		Title:      title,
		Summary:    summary,
		Categories: []inspiration.Category{inspiration.CategoryCreation},
		Tags:       tags,
	}
}

// ExtractTags asks the model for up to 5 keyword tags. On any failure it
// falls back to the first 3 non-trivial tokens of the content.
func (a *Analyzer) ExtractTags(ctx context.Context, content string) []string {
	turns := []chat.Turn{{Role: chat.RoleUser, Content: buildTagsPrompt(content)}}

	if resp, err := a.api.Complete(ctx, turns, a.model); err == nil {
		if raw, ok := extractJSONArray(resp.Content()); ok {
			var tags []string
			if err := json.Unmarshal([]byte(raw), &tags); err == nil {
				if len(tags) > maxTags {
					tags = tags[:maxTags]
				}
				return tags
			}
		}
	}

	return keywordTags(content, fallbackTagCount)
}

// CategorizeContent asks the model to classify content into the fixed
// category enum. On any failure it returns [creation].
func (a *Analyzer) CategorizeContent(ctx context.Context, content string) []inspiration.Category {
	turns := []chat.Turn{{Role: chat.RoleUser, Content: buildCategoriesPrompt(content)}}

	if resp, err := a.api.Complete(ctx, turns, a.model); err == nil {
		if raw, ok := extractJSONArray(resp.Content()); ok {
			var cats []string
			if err := json.Unmarshal([]byte(raw), &cats); err == nil {
				return inspiration.FilterCategories(cats)
			}
		}
	}

	return []inspiration.Category{inspiration.CategoryCreation}
}

// extractJSONObject returns the substring from the first '{' to the last
// '}' in text.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// extractJSONArray returns the substring from the first '[' to the last
// ']' in text.
func extractJSONArray(text string) (string, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// firstSentence returns content up to the first sentence terminator,
// covering both ASCII and full-width punctuation.
func firstSentence(content string) string {
	end := strings.IndexFunc(content, func(r rune) bool {
		switch r {
		case '.', '!', '?', '。', '！', '？':
			return true
		}
		return false
	})
	if end < 0 {
		return content
	}
	return content[:end]
}

// keywordTags returns the first n whitespace-delimited tokens longer than
// one rune.
func keywordTags(content string, n int) []string {
	tags := make([]string, 0, n)
	for _, word := range strings.Fields(content) {
		if len([]rune(word)) <= 1 {
			continue
		}
		tags = append(tags, word)
		if len(tags) == n {
			break
		}
	}
	return tags
}
