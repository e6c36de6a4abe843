package llm

// Message represents a single role-tagged message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles accepted by the chat completions API.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatParams holds generation parameters for chat completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// MaxTokens caps the number of generated tokens. If 0, no limit is sent.
	MaxTokens int

	// Temperature controls the randomness of the output.
	Temperature float32
}

// FallbackReply is returned in place of an empty or unreadable completion.
const FallbackReply = "Unable to generate response."
