package llm

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Provider is the opaque text-completion service behind the attendant. The
// first message may carry RoleSystem; the rest alternate user/assistant.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Close() error
}
