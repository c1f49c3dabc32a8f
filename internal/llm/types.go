package llm

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds generation parameters for chat completion requests.
type ChatParams struct {
	// MaxTokens specifies the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls the randomness of the output.
	Temperature float32
}

// DefaultChatParams holds the generation defaults. Only MaxTokens is applied
// when left at zero, since a zero Temperature is a valid setting.
var DefaultChatParams = ChatParams{
	MaxTokens:   500,
	Temperature: 0.7,
}
