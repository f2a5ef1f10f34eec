package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
)

const (
	frontmatterFence = "---"
	messageSeparator = "\n\n---\n\n"

	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Frontmatter is the YAML header of an exported document. Field order is
// the rendered key order.
type Frontmatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Updated string   `yaml:"updated"`
	UUID    string   `yaml:"uuid"`
	Tags    []string `yaml:"tags"`
	Project string   `yaml:"project,omitempty"`
}

// MarkdownTransformer renders conversations as Markdown with YAML
// frontmatter.
type MarkdownTransformer struct{}

// NewMarkdownTransformer creates a transformer.
func NewMarkdownTransformer() *MarkdownTransformer {
	return &MarkdownTransformer{}
}

// ToMarkdown renders conv. Dates are UTC; tags render as [] when the
// conversation has none and project is omitted when unset.
func (t *MarkdownTransformer) ToMarkdown(conv *conversation.Conversation) (string, error) {
	fm := Frontmatter{
		Title:   conv.Title,
		Date:    conv.CreatedAt.UTC().Format(dateLayout),
		Updated: conv.UpdatedAt.UTC().Format(dateLayout),
		UUID:    conv.UUID,
		Tags:    conv.Tags,
		Project: conv.ProjectName,
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterFence + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return "", fmt.Errorf("encoding frontmatter for %s: %w", conv.UUID, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding frontmatter for %s: %w", conv.UUID, err)
	}

	buf.WriteString(frontmatterFence + "\n\n")

	for i, m := range conv.Messages {
		if i > 0 {
			buf.WriteString(messageSeparator)
		}
		writeMessage(&buf, m)
	}

	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func writeMessage(buf *bytes.Buffer, m conversation.Message) {
	fmt.Fprintf(buf, "### %s (%s)\n\n", strings.ToUpper(string(m.Sender)), m.CreatedAt.UTC().Format(timestampLayout))
	buf.WriteString(m.Text)
}

// ParseDocument splits an exported document into its frontmatter and body.
func ParseDocument(r io.Reader) (*Frontmatter, []byte, error) {
	var fm Frontmatter
	body, err := frontmatter.MustParse(r, &fm)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	return &fm, body, nil
}
