// Package chat holds conversation state: messages, per-session transcripts,
// transcript export and session storage.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/DachengChen/paiERP/ai"
)

// Role says who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat bubble.
type Message struct {
	ID              string             `json:"id"`
	Role            Role               `json:"type"`
	Content         string             `json:"content"`
	Timestamp       time.Time          `json:"timestamp"`
	Data            any                `json:"data,omitempty"`
	Insights        []string           `json:"insights,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
	Visualizations  []ai.Visualization `json:"visualizations,omitempty"`
	IsLoading       bool               `json:"isLoading,omitempty"`
}

// NewMessage creates a message with a fresh id and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// User identifies who a transcript belongs to.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}
