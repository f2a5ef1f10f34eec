package secrets

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
)

// Redactor replaces secrets in text with [REDACTED:rule-id] markers.
type Redactor struct {
	mu       sync.Mutex
	detector *detect.Detector
}

// New builds a Redactor on the default Gitleaks rules. allowlist may be nil.
func New(allowlist *Allowlist) (*Redactor, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("creating detector: %w", err)
	}

	if !allowlist.Empty() {
		if err := applyAllowlist(&detector.Config, allowlist); err != nil {
			return nil, err
		}
	}

	return &Redactor{detector: detector}, nil
}

// Redact returns content with every detected secret replaced.
func (r *Redactor) Redact(content string) (string, *Result) {
	result := newResult()
	if strings.TrimSpace(content) == "" {
		return content, result
	}

	r.mu.Lock()
	found := r.detector.DetectString(content)
	r.mu.Unlock()

	if len(found) == 0 {
		return content, result
	}

	markers := make(map[string]string, len(found))
	for _, f := range found {
		result.add(Finding{
			RuleID:      f.RuleID,
			Description: f.Description,
			Line:        f.StartLine,
		})

		secret := f.Secret
		if secret == "" {
			secret = f.Match
		}
		if _, ok := markers[secret]; !ok && secret != "" {
			markers[secret] = "[REDACTED:" + f.RuleID + "]"
		}
	}

	return replaceSecrets(content, markers), result
}

// RedactConversation redacts the title and every message in place.
func (r *Redactor) RedactConversation(conv *conversation.Conversation) *Result {
	total := newResult()

	title, res := r.Redact(conv.Title)
	conv.Title = title
	total.merge(res)

	for i := range conv.Messages {
		text, res := r.Redact(conv.Messages[i].Text)
		conv.Messages[i].Text = text
		total.merge(res)
	}
	return total
}

// replaceSecrets substitutes longer secrets first so a secret that contains
// another is replaced whole.
func replaceSecrets(content string, markers map[string]string) string {
	secrets := make([]string, 0, len(markers))
	for s := range markers {
		secrets = append(secrets, s)
	}
	sort.Slice(secrets, func(i, j int) bool {
		if len(secrets[i]) != len(secrets[j]) {
			return len(secrets[i]) > len(secrets[j])
		}
		return secrets[i] < secrets[j]
	})

	for _, s := range secrets {
		content = strings.ReplaceAll(content, s, markers[s])
	}
	return content
}

// applyAllowlist adds a global allowlist entry to the Gitleaks config.
func applyAllowlist(cfg *gitleaksConfig.Config, allowlist *Allowlist) error {
	global := &gitleaksConfig.Allowlist{
		Description: "chatarchive allowlist",
		StopWords:   append([]string(nil), allowlist.StopWords...),
	}

	for _, pattern := range allowlist.Regexes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidRegex, pattern, err)
		}
		global.Regexes = append(global.Regexes, (*gitleaksRegexp.Regexp)(re))
	}

	cfg.Allowlists = append(cfg.Allowlists, global)
	return nil
}
