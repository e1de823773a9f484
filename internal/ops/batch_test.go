package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/TD21forever/buling/internal/errors"
	"github.com/TD21forever/buling/internal/inspiration"
)

func TestBatchUpdate_AddAndRemoveTags(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	insp, err := SaveInspiration(ctx, database, SaveInspirationInput{
		Title: "t", Content: "c", Tags: []string{"old"},
	})
	if err != nil {
		t.Fatalf("SaveInspiration failed: %v", err)
	}

	out, err := BatchUpdate(ctx, database, BatchInput{
		Action: BatchAddTags,
		IDs:    []string{insp.ID},
		Tags:   []string{"new", "old"},
	})
	if err != nil {
		t.Fatalf("BatchUpdate add failed: %v", err)
	}
	if out.Succeeded != 1 || out.Failed != 0 {
		t.Fatalf("add: succeeded=%d failed=%d, want 1/0", out.Succeeded, out.Failed)
	}

	got, err := GetInspiration(ctx, database, insp.ID)
	if err != nil {
		t.Fatalf("GetInspiration failed: %v", err)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "old" || got.Tags[1] != "new" {
		t.Errorf("Tags = %v, want [old new]", got.Tags)
	}

	if _, err := BatchUpdate(ctx, database, BatchInput{
		Action: BatchRemoveTags,
		IDs:    []string{insp.ID},
		Tags:   []string{"old"},
	}); err != nil {
		t.Fatalf("BatchUpdate remove failed: %v", err)
	}

	got, err = GetInspiration(ctx, database, insp.ID)
	if err != nil {
		t.Fatalf("GetInspiration failed: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "new" {
		t.Errorf("Tags = %v, want [new]", got.Tags)
	}
}

func TestBatchUpdate_RemoveCategories_KeepsFloor(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	insp, err := SaveInspiration(ctx, database, SaveInspirationInput{
		Title: "t", Content: "c", Categories: []string{"work"},
	})
	if err != nil {
		t.Fatalf("SaveInspiration failed: %v", err)
	}

	if _, err := BatchUpdate(ctx, database, BatchInput{
		Action:     BatchRemoveCategories,
		IDs:        []string{insp.ID},
		Categories: []string{"work"},
	}); err != nil {
		t.Fatalf("BatchUpdate failed: %v", err)
	}

	got, err := GetInspiration(ctx, database, insp.ID)
	if err != nil {
		t.Fatalf("GetInspiration failed: %v", err)
	}
	if len(got.Categories) != 1 || got.Categories[0] != inspiration.CategoryCreation {
		t.Errorf("Categories = %v, want [creation] after removing last category", got.Categories)
	}
}

func TestBatchUpdate_ReplaceCategories_DropsUnknown(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	insp, err := SaveInspiration(ctx, database, SaveInspirationInput{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("SaveInspiration failed: %v", err)
	}

	if _, err := BatchUpdate(ctx, database, BatchInput{
		Action:     BatchReplaceCategories,
		IDs:        []string{insp.ID},
		Categories: []string{"life", "bogus", "learning"},
	}); err != nil {
		t.Fatalf("BatchUpdate failed: %v", err)
	}

	got, err := GetInspiration(ctx, database, insp.ID)
	if err != nil {
		t.Fatalf("GetInspiration failed: %v", err)
	}
	want := []inspiration.Category{inspiration.CategoryLife, inspiration.CategoryLearning}
	if len(got.Categories) != 2 || got.Categories[0] != want[0] || got.Categories[1] != want[1] {
		t.Errorf("Categories = %v, want %v", got.Categories, want)
	}
}

func TestBatchUpdate_MissingIDRecordedNotFatal(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	insp, err := SaveInspiration(ctx, database, SaveInspirationInput{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("SaveInspiration failed: %v", err)
	}

	out, err := BatchUpdate(ctx, database, BatchInput{
		Action: BatchAddTags,
		IDs:    []string{"missing", insp.ID},
		Tags:   []string{"x"},
	})
	if err != nil {
		t.Fatalf("BatchUpdate failed: %v", err)
	}
	if out.Succeeded != 1 || out.Failed != 1 {
		t.Errorf("succeeded=%d failed=%d, want 1/1", out.Succeeded, out.Failed)
	}
	if out.Results[0].OK || out.Results[0].Error == "" {
		t.Errorf("Results[0] = %+v, want recorded failure", out.Results[0])
	}
	if !out.Results[1].OK {
		t.Errorf("Results[1] = %+v, want success", out.Results[1])
	}
}

func TestBatchUpdate_Delete(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	insp, err := SaveInspiration(ctx, database, SaveInspirationInput{Title: "t", Content: "c"})
	if err != nil {
		t.Fatalf("SaveInspiration failed: %v", err)
	}

	out, err := BatchUpdate(ctx, database, BatchInput{Action: BatchDelete, IDs: []string{insp.ID}})
	if err != nil {
		t.Fatalf("BatchUpdate failed: %v", err)
	}
	if out.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", out.Succeeded)
	}

	if _, err := GetInspiration(ctx, database, insp.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("want NOT_FOUND after batch delete, got %v", err)
	}
}

func TestBatchUpdate_Export(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	insp, err := SaveInspiration(ctx, database, SaveInspirationInput{
		Title: "导出标题", Content: "内容", Tags: []string{"灵感"},
	})
	if err != nil {
		t.Fatalf("SaveInspiration failed: %v", err)
	}

	out, err := BatchUpdate(ctx, database, BatchInput{Action: BatchExport, IDs: []string{insp.ID}})
	if err != nil {
		t.Fatalf("BatchUpdate failed: %v", err)
	}
	if !strings.Contains(out.Export, "## 导出标题") {
		t.Errorf("export missing title section:\n%s", out.Export)
	}
	if !strings.Contains(out.Export, "灵感") {
		t.Errorf("export missing tag:\n%s", out.Export)
	}
}

func TestBatchUpdate_Validation(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	if _, err := BatchUpdate(ctx, database, BatchInput{Action: BatchDelete}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty ids: want INVALID_REQUEST, got %v", err)
	}

	ids := make([]string, MaxBatchItems+1)
	for i := range ids {
		ids[i] = "id"
	}
	if _, err := BatchUpdate(ctx, database, BatchInput{Action: BatchDelete, IDs: ids}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("oversize batch: want INVALID_REQUEST, got %v", err)
	}

	if _, err := BatchUpdate(ctx, database, BatchInput{Action: "bogus", IDs: []string{"x"}}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("unknown action: want INVALID_REQUEST, got %v", err)
	}
}
