package entity

import "time"

// Author identifies who wrote a chat message
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// ChatMessage is immutable once created
type ChatMessage struct {
	ID     string    `json:"id"`
	Author Author    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Conversation is a snapshot of a session's chat
type Conversation struct {
	Messages       []ChatMessage `json:"messages"`
	Typing         bool          `json:"typing"`
	QuickQuestions []string      `json:"quick_questions"`
}
