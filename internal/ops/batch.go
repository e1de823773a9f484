package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TD21forever/buling/internal/db"
	"github.com/TD21forever/buling/internal/errors"
	"github.com/TD21forever/buling/internal/inspiration"
)

// BatchAction identifies a bulk operation over inspirations.
type BatchAction string

const (
	BatchAddCategories     BatchAction = "add_categories"
	BatchRemoveCategories  BatchAction = "remove_categories"
	BatchReplaceCategories BatchAction = "replace_categories"
	BatchAddTags           BatchAction = "add_tags"
	BatchRemoveTags        BatchAction = "remove_tags"
	BatchReplaceTags       BatchAction = "replace_tags"
	BatchDelete            BatchAction = "delete"
	BatchExport            BatchAction = "export"
)

// BatchInput contains parameters for BatchUpdate.
type BatchInput struct {
	Action     BatchAction
	IDs        []string
	Categories []string // category actions
	Tags       []string // tag actions
}

// BatchItemResult reports the outcome for one ID.
type BatchItemResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// BatchOutput summarizes a batch run.
type BatchOutput struct {
	Results   []BatchItemResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Export    string            `json:"export,omitempty"` // markdown, export action only
}

// BatchUpdate applies one action to up to MaxBatchItems inspirations.
// Per-item failures are recorded, not fatal; the delete action is the
// exception and removes all named IDs in one statement.
func BatchUpdate(ctx context.Context, database *sql.DB, input BatchInput) (*BatchOutput, error) {
	if len(input.IDs) == 0 {
		return nil, errors.NewInvalidRequest("ids are required")
	}
	if len(input.IDs) > MaxBatchItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many ids: %d exceeds limit of %d", len(input.IDs), MaxBatchItems))
	}

	switch input.Action {
	case BatchDelete:
		return batchDelete(ctx, database, input.IDs)
	case BatchExport:
		return batchExport(ctx, database, input.IDs)
	case BatchAddCategories, BatchRemoveCategories, BatchReplaceCategories:
		if len(input.Categories) == 0 && input.Action != BatchRemoveCategories {
			return nil, errors.NewInvalidRequest("categories are required")
		}
	case BatchAddTags, BatchRemoveTags, BatchReplaceTags:
		if len(input.Tags) == 0 && input.Action != BatchRemoveTags {
			return nil, errors.NewInvalidRequest("tags are required")
		}
	default:
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown batch action: %s", input.Action))
	}

	out := &BatchOutput{}
	for _, id := range input.IDs {
		if err := batchApply(ctx, database, input.Action, id, input.Categories, input.Tags); err != nil {
			out.Results = append(out.Results, BatchItemResult{ID: id, Error: err.Error()})
			out.Failed++
			continue
		}
		out.Results = append(out.Results, BatchItemResult{ID: id, OK: true})
		out.Succeeded++
	}
	return out, nil
}

func batchApply(ctx context.Context, database *sql.DB, action BatchAction, id string, categories, tags []string) error {
	insp, err := db.GetInspiration(ctx, database, id)
	if err != nil {
		return err
	}

	switch action {
	case BatchAddCategories:
		insp.Categories = mergeCategories(insp.Categories, categories)
	case BatchRemoveCategories:
		insp.Categories = removeCategories(insp.Categories, categories)
	case BatchReplaceCategories:
		insp.Categories = inspiration.FilterCategories(categories)
	case BatchAddTags:
		insp.Tags = mergeTags(insp.Tags, tags)
	case BatchRemoveTags:
		insp.Tags = removeTags(insp.Tags, tags)
	case BatchReplaceTags:
		if len(tags) > maxTags {
			tags = tags[:maxTags]
		}
		insp.Tags = tags
	}

	return db.UpdateInspiration(ctx, database, insp)
}

func batchDelete(ctx context.Context, database *sql.DB, ids []string) (*BatchOutput, error) {
	count, err := db.DeleteInspirations(ctx, database, ids)
	if err != nil {
		return nil, err
	}
	out := &BatchOutput{Succeeded: count, Failed: len(ids) - count}
	for _, id := range ids {
		out.Results = append(out.Results, BatchItemResult{ID: id, OK: true})
	}
	return out, nil
}

func batchExport(ctx context.Context, database *sql.DB, ids []string) (*BatchOutput, error) {
	out := &BatchOutput{}
	var insps []*inspiration.Inspiration
	for _, id := range ids {
		insp, err := db.GetInspiration(ctx, database, id)
		if err != nil {
			out.Results = append(out.Results, BatchItemResult{ID: id, Error: err.Error()})
			out.Failed++
			continue
		}
		insps = append(insps, insp)
		out.Results = append(out.Results, BatchItemResult{ID: id, OK: true})
		out.Succeeded++
	}
	out.Export = ExportMarkdown(insps)
	return out, nil
}

// mergeCategories unions existing and incoming categories, dropping
// anything outside the valid enum.
func mergeCategories(existing []inspiration.Category, incoming []string) []inspiration.Category {
	seen := make(map[inspiration.Category]bool, len(existing))
	merged := make([]inspiration.Category, 0, len(existing)+len(incoming))
	for _, c := range existing {
		if !seen[c] {
			seen[c] = true
			merged = append(merged, c)
		}
	}
	for _, r := range incoming {
		c := inspiration.Category(r)
		if inspiration.ValidCategory(c) && !seen[c] {
			seen[c] = true
			merged = append(merged, c)
		}
	}
	if len(merged) == 0 {
		return []inspiration.Category{inspiration.CategoryCreation}
	}
	return merged
}

// removeCategories drops the named categories. An inspiration always keeps
// at least one category; emptied sets fall back to creation.
func removeCategories(existing []inspiration.Category, drop []string) []inspiration.Category {
	dropSet := make(map[inspiration.Category]bool, len(drop))
	for _, r := range drop {
		dropSet[inspiration.Category(r)] = true
	}
	kept := make([]inspiration.Category, 0, len(existing))
	for _, c := range existing {
		if !dropSet[c] {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return []inspiration.Category{inspiration.CategoryCreation}
	}
	return kept
}

func mergeTags(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, t := range existing {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range incoming {
		if t != "" && !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	if len(merged) > maxTags {
		merged = merged[:maxTags]
	}
	return merged
}

func removeTags(existing, drop []string) []string {
	dropSet := make(map[string]bool, len(drop))
	for _, t := range drop {
		dropSet[t] = true
	}
	kept := make([]string, 0, len(existing))
	for _, t := range existing {
		if !dropSet[t] {
			kept = append(kept, t)
		}
	}
	return kept
}
