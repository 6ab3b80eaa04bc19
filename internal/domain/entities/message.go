package entities

// ChatMessage is a rendered message ready for delivery to the chat
// platform. Text is guaranteed to fit the platform's length ceiling by
// the formatter.
type ChatMessage struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts,omitempty"`
}
