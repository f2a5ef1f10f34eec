package secrets

import "sort"

// Finding describes one detected secret. The secret value is not kept.
type Finding struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Line        int    `json:"line"`
}

// Result is the outcome of redacting one piece of text or one conversation.
type Result struct {
	Findings []Finding      `json:"findings,omitempty"`
	ByRule   map[string]int `json:"by_rule,omitempty"`
}

func newResult() *Result {
	return &Result{ByRule: make(map[string]int)}
}

func (r *Result) add(f Finding) {
	r.Findings = append(r.Findings, f)
	r.ByRule[f.RuleID]++
}

func (r *Result) merge(other *Result) {
	for _, f := range other.Findings {
		r.add(f)
	}
}

// Total returns the number of redacted secrets.
func (r *Result) Total() int {
	return len(r.Findings)
}

// RuleIDs returns the matched rule IDs in sorted order.
func (r *Result) RuleIDs() []string {
	ids := make([]string, 0, len(r.ByRule))
	for id := range r.ByRule {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
