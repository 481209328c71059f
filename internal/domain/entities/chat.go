package entities

// Sender identifies who wrote a chat message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one entry of the chat transcript
type ChatMessage struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

// ChatRequest is the body sent to the conversational backend
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by the conversational backend
type ChatResponse struct {
	Response string `json:"response"`
}
