package domain

import (
	"context"
	"encoding/json"
	"time"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single entry in a conversation's message log
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
}

// Conversation is one persisted chat thread, keyed by session id.
// Messages always start with exactly one system preamble, seeded at
// creation and never shown to the end user.
type Conversation struct {
	SessionID    string          `json:"sessionId"`
	Messages     []Message       `json:"messages"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    *time.Time      `json:"updatedAt,omitempty"`
	LeadAnalysis json.RawMessage `json:"leadAnalysis,omitempty"`
}

// Transcript returns the user-visible messages, with system entries
// removed and order preserved.
func (c *Conversation) Transcript() []Message {
	visible := make([]Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Role == RoleSystem {
			continue
		}
		visible = append(visible, m)
	}
	return visible
}

// EffectiveTime is the timestamp conversations are ordered by:
// updatedAt when present, createdAt otherwise.
func (c *Conversation) EffectiveTime() time.Time {
	if c.UpdatedAt != nil {
		return *c.UpdatedAt
	}
	return c.CreatedAt
}

// SessionSummary is the listing view of a conversation
type SessionSummary struct {
	SessionID    string     `json:"sessionId"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	MessageCount int        `json:"messageCount"`
	Preview      string     `json:"preview,omitempty"`
}

// ConversationRepository defines the interface for conversation storage.
// ReplaceMessages overwrites the stored message list wholesale and
// refreshes updated_at; callers read, append in memory, then write back.
// There is no compare-and-swap: concurrent writers to the same session
// are last-write-wins.
type ConversationRepository interface {
	Get(ctx context.Context, sessionID string) (*Conversation, error)
	Create(ctx context.Context, conv *Conversation) error
	ReplaceMessages(ctx context.Context, sessionID string, messages []Message, updatedAt time.Time) error
	Delete(ctx context.Context, sessionID string) error
	ListAll(ctx context.Context) ([]Conversation, error)
}
