package ops

import (
	"context"
	"testing"

	"github.com/TD21forever/buling/internal/chat"
	"github.com/TD21forever/buling/internal/errors"
)

func TestCreateAndGetSession(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	s, err := CreateSession(ctx, database, "  brainstorm  ")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if s.Title != "brainstorm" {
		t.Errorf("Title = %q, want trimmed brainstorm", s.Title)
	}

	got, err := GetSession(ctx, database, s.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(got.Messages) != 0 {
		t.Errorf("Messages = %v, want empty", got.Messages)
	}
}

func TestMessageStore_AppendMessage(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	s, err := CreateSession(ctx, database, "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	store := &MessageStore{DB: database}
	if err := store.AppendMessage(ctx, s.ID, chat.RoleUser, "hello"); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if err := store.AppendMessage(ctx, s.ID, chat.RoleAssistant, "hi there"); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	got, err := GetSession(ctx, database, s.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != chat.RoleUser || got.Messages[1].Role != chat.RoleAssistant {
		t.Errorf("roles = %s, %s, want user, assistant", got.Messages[0].Role, got.Messages[1].Role)
	}
}

func TestMessageStore_RejectsUnknownRole(t *testing.T) {
	database := testDB(t)

	store := &MessageStore{DB: database}
	err := store.AppendMessage(context.Background(), "any", chat.Role("robot"), "x")
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("want INVALID_REQUEST, got %v", err)
	}
}

func TestDeleteSession_NotFound(t *testing.T) {
	database := testDB(t)

	err := DeleteSession(context.Background(), database, "missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("want NOT_FOUND, got %v", err)
	}
}
