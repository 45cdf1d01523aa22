package models

import (
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage represents a single message in a conversation.
// Messages are append-only: once created they are never mutated.
type ChatMessage struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"` // "user", "assistant", or "system"
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	SessionID string     `json:"session_id"`
}

// Citation ties part of an assistant answer back to a source chunk.
// ID is the chunk ID the citation was derived from.
type Citation struct {
	ID         string  `json:"id"`
	PageNumber int     `json:"page_number"`
	Text       string  `json:"text"` // preview, at most 200 chars
	Score      float32 `json:"score"`
}

// ChatSession binds a conversation to exactly one document for its lifetime
type ChatSession struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Messages   []ChatMessage `json:"messages"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// HistoryEntry is the reduced {role, content} view of a message passed to
// the completion provider as conversation history
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CreateSessionRequest represents a request to create a chat session
type CreateSessionRequest struct {
	DocumentID string `json:"document_id"`
}

// Validate validates the create session request
func (r *CreateSessionRequest) Validate() error {
	if r.DocumentID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	return nil
}

// SendMessageRequest represents an incoming chat message
type SendMessageRequest struct {
	SessionID  string `json:"session_id"`
	DocumentID string `json:"document_id"`
	Message    string `json:"message"`
}

// Validate validates the send message request
func (r *SendMessageRequest) Validate() error {
	if r.SessionID == "" {
		return &ValidationError{Field: "session_id", Message: "session ID is required"}
	}
	if r.DocumentID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	if len(r.Message) == 0 {
		return &ValidationError{Field: "message", Message: "message is required"}
	}
	if len(r.Message) > 5000 {
		return &ValidationError{Field: "message", Message: "message cannot exceed 5000 characters"}
	}
	return nil
}
