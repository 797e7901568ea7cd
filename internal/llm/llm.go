package llm

import "context"

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer performs a single round-trip to a text-generation model.
// Implementations return "" with a nil error when the model produced no content.
type Completer interface {
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}

// UserMessage is a convenience for the common single-turn case.
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}
