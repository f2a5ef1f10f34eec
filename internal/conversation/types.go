package conversation

import (
	"encoding/json"
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderHuman     Sender = "human"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// Valid reports whether s is one of the canonical senders.
func (s Sender) Valid() bool {
	switch s {
	case SenderHuman, SenderAssistant, SenderSystem:
		return true
	}
	return false
}

// Conversation is the canonical unit of exported chat history.
type Conversation struct {
	UUID      string    `json:"uuid"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`

	// Tags is nil until the tagging stage runs. A tagged conversation with no
	// matching categories carries an empty, non-nil slice.
	Tags []string `json:"tags,omitempty"`

	ProjectName string `json:"project_name,omitempty"`

	// Original is the untouched provider record.
	Original json.RawMessage `json:"original_data,omitempty"`
}

// Tagged reports whether the tagging stage has run for this conversation.
func (c *Conversation) Tagged() bool {
	return c.Tags != nil
}

// HasProject reports whether the conversation is linked to a named project.
func (c *Conversation) HasProject() bool {
	return c.ProjectName != ""
}

// Message is a single chat turn.
type Message struct {
	ID          string       `json:"uuid"`
	Sender      Sender       `json:"sender"`
	Text        string       `json:"text"`
	CreatedAt   time.Time    `json:"created_at"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is passed through from the provider without interpretation.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// ExportResult records where a conversation was written and which tags were applied.
type ExportResult struct {
	Conversation *Conversation `json:"-"`
	Path         string        `json:"path"`
	Tags         []string      `json:"tags"`

	// Redacted counts secrets removed before writing.
	Redacted int `json:"redacted,omitempty"`
}
