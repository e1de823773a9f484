package chat

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Turn is a single message in a conversation. Turns are immutable once
// created; ordering within a conversation is insertion order and is
// significant for prompt construction.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript renders an ordered turn sequence as plain text suitable for
// analysis, with each turn prefixed by a speaker label.
func Transcript(turns []Turn) string {
	parts := make([]string, 0, len(turns))
	for _, turn := range turns {
		label := "AI"
		if turn.Role == RoleUser {
			label = "用户"
		}
		parts = append(parts, label+": "+turn.Content)
	}
	return strings.Join(parts, "\n\n")
}

// LastUserTurn returns the final turn if it is user-authored, or nil.
// The streaming relay persists the last user turn only when the user
// actually spoke last.
func LastUserTurn(turns []Turn) *Turn {
	if len(turns) == 0 {
		return nil
	}
	last := turns[len(turns)-1]
	if last.Role != RoleUser {
		return nil
	}
	return &last
}
