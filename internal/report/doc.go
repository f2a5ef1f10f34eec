// Package report renders archive statistics and export progress for the
// terminal. Output is styled with lipgloss and degrades to plain text when
// the writer is not a color terminal.
package report
