package chat

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Narrator
	ChatRoleSystem = "system"    // Instructions and out-of-band notices
)

// ChatMessage represents a single message in a completion request.
// The shape follows the OpenAI chat completions API, which every
// supported endpoint speaks.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}
