package provider

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
	"github.com/fyrsmithlabs/chatarchive/internal/input"
)

// UntitledChat is the title given to tree records without a title.
const UntitledChat = "Untitled Chat"

// TreeProvider normalizes exports that store messages as a parent-pointer
// tree keyed by node id (the ChatGPT export format).
type TreeProvider struct {
	opts options
}

// NewTreeProvider creates a provider for the tree schema.
func NewTreeProvider(opts ...Option) *TreeProvider {
	return &TreeProvider{opts: buildOptions(opts)}
}

// treeRecord is the raw structure of one tree conversation.
type treeRecord struct {
	ID             string              `json:"id"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Title          string              `json:"title"`
	CreateTime     *float64            `json:"create_time"`
	UpdateTime     *float64            `json:"update_time"`
	CurrentNode    string              `json:"current_node"`
	Mapping        map[string]treeNode `json:"mapping"`
}

type treeNode struct {
	ID       string       `json:"id"`
	Message  *treeMessage `json:"message"`
	Parent   *string      `json:"parent"`
	Children []string     `json:"children"`
}

type treeMessage struct {
	ID     string `json:"id"`
	Author struct {
		Role string `json:"role"`
	} `json:"author"`
	Content struct {
		ContentType string `json:"content_type"`
		// Parts mixes strings with structured parts (image pointers etc.).
		Parts []json.RawMessage `json:"parts"`
	} `json:"content"`
	CreateTime *float64 `json:"create_time"`
}

// Name returns the provider name.
func (p *TreeProvider) Name() string { return "ChatGPT" }

// Kind returns KindChatGPT.
func (p *TreeProvider) Kind() Kind { return KindChatGPT }

// Normalize converts the payload into conversations, one per decodable record.
func (p *TreeProvider) Normalize(data *input.Data) []conversation.Conversation {
	return p.NormalizeWithErrors(data).Conversations
}

// NormalizeWithErrors converts the payload and reports records that could not
// be decoded.
func (p *TreeProvider) NormalizeWithErrors(data *input.Data) *NormalizeResult {
	result := &NormalizeResult{
		Conversations: make([]conversation.Conversation, 0),
		Skipped:       make([]RecordError, 0),
	}
	if data == nil {
		return result
	}

	records, _ := splitRecords(data.Conversations)
	for i, record := range records {
		var rec treeRecord
		if err := decodeRecord(record, &rec); err != nil {
			result.skip(i, err)
			continue
		}
		result.Conversations = append(result.Conversations, p.convert(rec, record))
	}

	return result
}

func (p *TreeProvider) convert(rec treeRecord, raw json.RawMessage) conversation.Conversation {
	now := p.opts.now().UTC()

	created, ok := epochToTime(rec.CreateTime)
	if !ok {
		created = now
	}
	updated, ok := epochToTime(rec.UpdateTime)
	if !ok {
		updated = now
	}

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = UntitledChat
	}

	id := rec.ID
	if id == "" {
		id = rec.ConversationID
	}
	if id == "" {
		id = fallbackID(raw)
	}

	return conversation.Conversation{
		UUID:      id,
		Title:     title,
		CreatedAt: created,
		UpdatedAt: updated,
		Messages:  walkActiveBranch(rec.Mapping, rec.CurrentNode, created),
		Original:  raw,
	}
}

// walkActiveBranch follows parent pointers from current back to the root,
// keeping nodes that carry a usable message, and returns them oldest first.
//
// The walk is id-based over the mapping: a missing or unknown parent ends it
// and the messages collected so far are kept. A visited set and a step cap
// bounded by the mapping size guarantee termination on cyclic input.
func walkActiveBranch(mapping map[string]treeNode, current string, fallback time.Time) []conversation.Message {
	messages := make([]conversation.Message, 0)
	visited := make(map[string]struct{}, len(mapping))
	maxSteps := len(mapping) + 1

	nodeID := current
	for steps := 0; nodeID != "" && steps < maxSteps; steps++ {
		if _, seen := visited[nodeID]; seen {
			break
		}
		visited[nodeID] = struct{}{}

		node, ok := mapping[nodeID]
		if !ok {
			break
		}

		if msg, ok := toCanonicalMessage(node, fallback); ok {
			messages = append(messages, msg)
		}

		if node.Parent == nil {
			break
		}
		nodeID = *node.Parent
	}

	slices.Reverse(messages)
	return messages
}

// toCanonicalMessage converts a node's message when its role is known and its
// text is not blank.
func toCanonicalMessage(node treeNode, fallback time.Time) (conversation.Message, bool) {
	if node.Message == nil {
		return conversation.Message{}, false
	}

	sender, ok := senderForRole(node.Message.Author.Role)
	if !ok {
		return conversation.Message{}, false
	}

	text := joinStringParts(node.Message.Content.Parts)
	if strings.TrimSpace(text) == "" {
		return conversation.Message{}, false
	}

	created, ok := epochToTime(node.Message.CreateTime)
	if !ok {
		created = fallback
	}

	id := node.Message.ID
	if id == "" {
		id = node.ID
	}

	return conversation.Message{
		ID:        id,
		Sender:    sender,
		Text:      text,
		CreatedAt: created,
	}, true
}

func senderForRole(role string) (conversation.Sender, bool) {
	switch role {
	case "user":
		return conversation.SenderHuman, true
	case "assistant":
		return conversation.SenderAssistant, true
	case "system":
		return conversation.SenderSystem, true
	default:
		return "", false
	}
}

// joinStringParts joins the string parts with newlines, ignoring structured parts.
func joinStringParts(parts []json.RawMessage) string {
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		var s string
		if err := json.Unmarshal(part, &s); err == nil {
			texts = append(texts, s)
		}
	}
	return strings.Join(texts, "\n")
}

var _ Provider = (*TreeProvider)(nil)
