package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
	"github.com/fyrsmithlabs/chatarchive/internal/input"
)

// Kind selects a provider schema.
type Kind string

const (
	KindClaude  Kind = "claude"
	KindChatGPT Kind = "chatgpt"
	// KindAuto asks Detect to choose by probing the payload.
	KindAuto Kind = "auto"
)

var (
	// ErrUnknownProvider is returned by New and ParseKind for unsupported kinds.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrUnknownSchema is returned by Detect when no record matches a known schema.
	ErrUnknownSchema = errors.New("unrecognized export schema")
)

// maxStoredErrors bounds RecordError retention, matching the parser convention.
const maxStoredErrors = 10

// Provider normalizes one export schema into canonical conversations.
type Provider interface {
	// Name is the human-readable provider name.
	Name() string

	// Kind identifies the schema handled by this provider.
	Kind() Kind

	// Normalize converts the payload, silently skipping undecodable records.
	Normalize(data *input.Data) []conversation.Conversation

	// NormalizeWithErrors converts the payload and reports skipped records.
	NormalizeWithErrors(data *input.Data) *NormalizeResult
}

// NormalizeResult contains conversations and any records skipped while normalizing.
type NormalizeResult struct {
	Conversations []conversation.Conversation
	SkippedCount  int
	Skipped       []RecordError
}

// RecordError describes a record that was skipped.
type RecordError struct {
	Index int
	Error string
}

func (r *NormalizeResult) skip(index int, err error) {
	r.SkippedCount++
	if len(r.Skipped) < maxStoredErrors {
		r.Skipped = append(r.Skipped, RecordError{Index: index, Error: err.Error()})
	}
}

// Option configures a provider.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for missing timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates the provider for kind. KindAuto is not accepted here; resolve it
// with Detect first.
func New(kind Kind, opts ...Option) (Provider, error) {
	switch kind {
	case KindClaude:
		return NewLinearProvider(opts...), nil
	case KindChatGPT:
		return NewTreeProvider(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: claude, chatgpt)", ErrUnknownProvider, kind)
	}
}

// ParseKind parses a user-supplied provider name. The empty string means auto.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindClaude:
		return KindClaude, nil
	case KindChatGPT:
		return KindChatGPT, nil
	case KindAuto, "":
		return KindAuto, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: claude, chatgpt, auto)", ErrUnknownProvider, s)
	}
}

// detectProbeLimit is how many leading records Detect inspects.
const detectProbeLimit = 5

// Detect selects a schema by structural probing: records holding mapping and
// current_node are tree-shaped, records holding chat_messages are linear.
func Detect(data *input.Data) (Kind, error) {
	if data == nil {
		return "", ErrUnknownSchema
	}
	records, _ := splitRecords(data.Conversations)
	for i, record := range records {
		if i >= detectProbeLimit {
			break
		}
		r := gjson.ParseBytes(record)
		switch {
		case r.Get("mapping").IsObject() && r.Get("current_node").Exists():
			return KindChatGPT, nil
		case r.Get("chat_messages").IsArray():
			return KindClaude, nil
		}
	}
	return "", ErrUnknownSchema
}

// splitRecords accepts a bare array of records, a {"conversations": [...]}
// wrapper, or the doubly nested wrapper an export resolver can produce. It
// returns the individual records and, for wrappers, the embedded projects.
// Any other shape yields no records.
func splitRecords(raw json.RawMessage) ([]json.RawMessage, json.RawMessage) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil, nil
	}

	root := gjson.ParseBytes(raw)
	var list gjson.Result
	var projects json.RawMessage

	switch {
	case root.IsArray():
		list = root
	case root.IsObject():
		list = root.Get("conversations")
		if list.IsObject() {
			if p := list.Get("projects"); p.IsArray() {
				projects = json.RawMessage(p.Raw)
			}
			list = list.Get("conversations")
		}
		if p := root.Get("projects"); p.IsArray() {
			projects = json.RawMessage(p.Raw)
		}
	}

	if !list.IsArray() {
		return nil, projects
	}

	var records []json.RawMessage
	list.ForEach(func(_, value gjson.Result) bool {
		records = append(records, json.RawMessage(value.Raw))
		return true
	})
	return records, projects
}

// fallbackID derives a stable identifier for records that carry none.
func fallbackID(record json.RawMessage) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, record).String()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp parses ISO-8601 variants found in exports.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// epochToTime converts Unix-epoch seconds (possibly fractional) to a time with
// millisecond precision. Zero and missing values are reported as absent.
func epochToTime(sec *float64) (time.Time, bool) {
	if sec == nil || *sec <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(*sec*1000 + 0.5)).UTC(), true
}

var errNotObject = errors.New("conversation record is not an object")

// decodeRecord decodes one conversation record, rejecting non-object records.
func decodeRecord(record json.RawMessage, v any) error {
	if !gjson.ParseBytes(record).IsObject() {
		return errNotObject
	}
	if err := json.Unmarshal(record, v); err != nil {
		return fmt.Errorf("decoding conversation: %w", err)
	}
	return nil
}
