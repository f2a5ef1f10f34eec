// Package input resolves a user-supplied path into raw export payloads.
//
// Three shapes are accepted:
//   - a directory containing conversations.json and, optionally, projects.json
//   - a .zip archive whose entries end with those names (nested folders allowed)
//   - a single .json file, treated as conversations.json, with an opportunistic
//     projects.json sibling lookup
//
// Payloads are validated as JSON but otherwise left raw; interpreting them is
// the provider's job. Every failure is an *Error carrying the offending path.
package input
