package provider

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
	"github.com/fyrsmithlabs/chatarchive/internal/input"
)

// UntitledConversation is the title given to linear records without a name.
const UntitledConversation = "Untitled Conversation"

// LinearProvider normalizes exports whose messages are stored as a flat,
// chronologically ordered list (the Claude export format).
type LinearProvider struct {
	opts options
}

// NewLinearProvider creates a provider for the linear schema.
func NewLinearProvider(opts ...Option) *LinearProvider {
	return &LinearProvider{opts: buildOptions(opts)}
}

// linearRecord is the raw structure of one linear conversation.
type linearRecord struct {
	UUID         string
	Name         string
	CreatedAt    string
	UpdatedAt    string
	ProjectUUID  string
	ChatMessages []linearMessage
}

type linearMessage struct {
	UUID        string
	Text        string
	Sender      string
	CreatedAt   string
	Content     []contentBlock
	Attachments []linearAttachment
}

// contentBlock is one entry of the newer structured message content.
type contentBlock struct {
	Type string
	Text string
}

type linearAttachment struct {
	FileName         string
	FileType         string
	ExtractedContent string
}

type linearProject struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Name returns the provider name.
func (p *LinearProvider) Name() string { return "Claude" }

// Kind returns KindClaude.
func (p *LinearProvider) Kind() Kind { return KindClaude }

// Normalize converts the payload into conversations, one per decodable record.
func (p *LinearProvider) Normalize(data *input.Data) []conversation.Conversation {
	return p.NormalizeWithErrors(data).Conversations
}

// NormalizeWithErrors converts the payload and reports records that could not
// be decoded.
func (p *LinearProvider) NormalizeWithErrors(data *input.Data) *NormalizeResult {
	result := &NormalizeResult{
		Conversations: make([]conversation.Conversation, 0),
		Skipped:       make([]RecordError, 0),
	}
	if data == nil {
		return result
	}

	records, embeddedProjects := splitRecords(data.Conversations)
	projects := buildProjectIndex(embeddedProjects, data.Projects)

	for i, record := range records {
		rec, err := decodeLinearRecord(record)
		if err != nil {
			result.skip(i, err)
			continue
		}
		result.Conversations = append(result.Conversations, p.convert(rec, record, projects))
	}

	return result
}

// buildProjectIndex maps project uuid to name. Later sources win.
func buildProjectIndex(sources ...json.RawMessage) map[string]string {
	index := make(map[string]string)
	for _, src := range sources {
		if len(src) == 0 || !gjson.ValidBytes(src) {
			continue
		}
		list := gjson.ParseBytes(src)
		if list.IsObject() {
			list = list.Get("projects")
		}
		if !list.IsArray() {
			continue
		}
		list.ForEach(func(_, value gjson.Result) bool {
			var proj linearProject
			if err := json.Unmarshal([]byte(value.Raw), &proj); err == nil && proj.UUID != "" {
				index[proj.UUID] = proj.Name
			}
			return true
		})
	}
	return index
}

// decodeLinearRecord reads a record field by field. A field with an unexpected
// type is treated as absent so the usual fallbacks apply; only records that are
// not objects are rejected.
func decodeLinearRecord(record json.RawMessage) (linearRecord, error) {
	obj := gjson.ParseBytes(record)
	if !gjson.ValidBytes(record) || !obj.IsObject() {
		return linearRecord{}, errNotObject
	}

	rec := linearRecord{
		UUID:        stringField(obj, "uuid"),
		Name:        stringField(obj, "name"),
		CreatedAt:   stringField(obj, "created_at"),
		UpdatedAt:   stringField(obj, "updated_at"),
		ProjectUUID: stringField(obj, "project_uuid"),
	}
	eachObject(obj.Get("chat_messages"), func(m gjson.Result) {
		msg := linearMessage{
			UUID:      stringField(m, "uuid"),
			Text:      stringField(m, "text"),
			Sender:    stringField(m, "sender"),
			CreatedAt: stringField(m, "created_at"),
		}
		eachObject(m.Get("content"), func(b gjson.Result) {
			msg.Content = append(msg.Content, contentBlock{
				Type: stringField(b, "type"),
				Text: stringField(b, "text"),
			})
		})
		eachObject(m.Get("attachments"), func(a gjson.Result) {
			msg.Attachments = append(msg.Attachments, linearAttachment{
				FileName:         stringField(a, "file_name"),
				FileType:         stringField(a, "file_type"),
				ExtractedContent: stringField(a, "extracted_content"),
			})
		})
		rec.ChatMessages = append(rec.ChatMessages, msg)
	})
	return rec, nil
}

// stringField returns the string at path, or "" when it is missing or not a
// string.
func stringField(obj gjson.Result, path string) string {
	v := obj.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// eachObject calls fn for every object element of list. Non-array lists and
// non-object elements are ignored.
func eachObject(list gjson.Result, fn func(gjson.Result)) {
	if !list.IsArray() {
		return
	}
	list.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			fn(v)
		}
		return true
	})
}

func (p *LinearProvider) convert(rec linearRecord, raw json.RawMessage, projects map[string]string) conversation.Conversation {
	created, ok := parseTimestamp(rec.CreatedAt)
	if !ok {
		created = p.opts.now().UTC()
	}
	updated, ok := parseTimestamp(rec.UpdatedAt)
	if !ok {
		updated = created
	}

	title := strings.TrimSpace(rec.Name)
	if title == "" {
		title = UntitledConversation
	}

	id := rec.UUID
	if id == "" {
		id = fallbackID(raw)
	}

	messages := make([]conversation.Message, 0, len(rec.ChatMessages))
	for _, m := range rec.ChatMessages {
		messages = append(messages, convertLinearMessage(m, created))
	}

	conv := conversation.Conversation{
		UUID:      id,
		Title:     title,
		CreatedAt: created,
		UpdatedAt: updated,
		Messages:  messages,
		Original:  raw,
	}
	if rec.ProjectUUID != "" {
		conv.ProjectName = projects[rec.ProjectUUID]
	}
	return conv
}

func convertLinearMessage(m linearMessage, fallback time.Time) conversation.Message {
	created, ok := parseTimestamp(m.CreatedAt)
	if !ok {
		created = fallback
	}

	sender := conversation.SenderAssistant
	if m.Sender == string(conversation.SenderHuman) {
		sender = conversation.SenderHuman
	}

	text := m.Text
	if strings.TrimSpace(text) == "" && len(m.Content) > 0 {
		text = joinTextBlocks(m.Content)
	}

	msg := conversation.Message{
		ID:        m.UUID,
		Sender:    sender,
		Text:      text,
		CreatedAt: created,
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, conversation.Attachment{
			Name: a.FileName,
			Type: a.FileType,
			Data: a.ExtractedContent,
		})
	}
	return msg
}

// joinTextBlocks joins the text of "text" content blocks.
func joinTextBlocks(blocks []contentBlock) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

var _ Provider = (*LinearProvider)(nil)
