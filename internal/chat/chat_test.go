package chat

import "testing"

func TestTranscript(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Content: "今天想到一个产品点子"},
		{Role: RoleAssistant, Content: "说来听听"},
	}

	got := Transcript(turns)
	want := "用户: 今天想到一个产品点子\n\nAI: 说来听听"
	if got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}

func TestTranscript_Empty(t *testing.T) {
	if got := Transcript(nil); got != "" {
		t.Errorf("Transcript(nil) = %q, want empty", got)
	}
}

func TestLastUserTurn(t *testing.T) {
	tests := []struct {
		name  string
		turns []Turn
		want  *string
	}{
		{
			name:  "user last",
			turns: []Turn{{Role: RoleAssistant, Content: "hi"}, {Role: RoleUser, Content: "question"}},
			want:  strPtr("question"),
		},
		{
			name:  "assistant last",
			turns: []Turn{{Role: RoleUser, Content: "question"}, {Role: RoleAssistant, Content: "answer"}},
			want:  nil,
		},
		{
			name:  "empty",
			turns: nil,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LastUserTurn(tt.turns)
			if tt.want == nil {
				if got != nil {
					t.Errorf("LastUserTurn() = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.Content != *tt.want {
				t.Errorf("LastUserTurn() = %+v, want content %q", got, *tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
