package export

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
)

const (
	maxSlugLen   = 50
	fallbackSlug = "untitled"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Organizer maps conversations to output paths of the form
// {base}/{yyyy}/{MM}-{month}/{dd}-{slug}.md, dated by creation time in UTC.
// Distinct conversations with the same day and slug share a path.
type Organizer struct {
	outputBase string
}

// NewOrganizer creates an organizer rooted at outputBase.
func NewOrganizer(outputBase string) *Organizer {
	return &Organizer{outputBase: outputBase}
}

// GetPath returns the output path for conv. It depends only on the
// conversation's title and creation time.
func (o *Organizer) GetPath(conv *conversation.Conversation) string {
	created := conv.CreatedAt.UTC()
	folder := fmt.Sprintf("%02d-%s", int(created.Month()), strings.ToLower(created.Month().String()))
	filename := fmt.Sprintf("%02d-%s.md", created.Day(), Slugify(conv.Title))

	return filepath.Join(o.outputBase, fmt.Sprintf("%04d", created.Year()), folder, filename)
}

// Slugify lower-cases title, collapses runs of characters outside [a-z0-9]
// into one hyphen, trims hyphens from both ends and truncates to 50 bytes.
// An empty result becomes "untitled".
func Slugify(title string) string {
	slug := nonAlphanumeric.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}
