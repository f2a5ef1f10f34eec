package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
)

const notAvailable = "N/A"

// FormatDateRange formats both ends as "Jan 2006", using N/A for a missing end.
func FormatDateRange(r conversation.DateRange) string {
	start, end := notAvailable, notAvailable
	if r.Start != nil {
		start = r.Start.UTC().Format("Jan 2006")
	}
	if r.End != nil {
		end = r.End.UTC().Format("Jan 2006")
	}
	return start + " - " + end
}

// FormatAverage formats a per-conversation average with one decimal.
func FormatAverage(avg float64) string {
	return fmt.Sprintf("%.1f", avg)
}

// FormatPercentage formats a ratio (0-1) as percentage
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// BarLength scales value against peak to at most width cells.
func BarLength(value, peak, width int) int {
	if peak <= 0 || value <= 0 || width <= 0 {
		return 0
	}
	return int(math.Round(float64(value) / float64(peak) * float64(width)))
}

// renderBars draws one labelled horizontal bar per item.
func renderBars(items []conversation.StatItem, width int) string {
	if len(items) == 0 {
		return dimStyle.Render("No data available")
	}

	maxValue, labelWidth := 0, 0
	for _, it := range items {
		maxValue = max(maxValue, it.Value)
		labelWidth = max(labelWidth, len([]rune(it.Label)))
	}

	lines := make([]string, len(items))
	for i, it := range items {
		label := it.Label + strings.Repeat(" ", labelWidth-len([]rune(it.Label)))
		bar := strings.Repeat("█", BarLength(it.Value, maxValue, width))
		lines[i] = fmt.Sprintf("%s  %s %s",
			labelStyle.Render(label),
			barStyle.Render(bar),
			dimStyle.Render(fmt.Sprintf("%d", it.Value)),
		)
	}
	return strings.Join(lines, "\n")
}
