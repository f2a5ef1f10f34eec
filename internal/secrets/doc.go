// Package secrets detects and redacts credentials in conversation text
// using the Gitleaks rule set.
//
// Chat histories routinely contain pasted API keys and tokens. When an export
// runs with redaction enabled, every title and message passes through a
// Redactor before tagging and rendering, and each secret is replaced with a
// [REDACTED:rule-id] marker. Findings keep the rule and position only, never
// the secret value.
//
// False positives can be suppressed with a TOML allowlist:
//
//	[allowlist]
//	regexes = ['''EXAMPLE_KEY_.*''']
//	stopwords = ["placeholder"]
package secrets
