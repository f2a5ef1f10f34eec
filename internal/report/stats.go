package report

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
)

const (
	sparklineWidth  = 36
	sparklineHeight = 3

	rankedLimit    = 5
	activityMonths = 12

	rankedBarWidth   = 20
	activityBarWidth = 40
)

// RenderStats renders the statistics dashboard.
func RenderStats(stats conversation.Stats) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Chat Archive Stats"))
	b.WriteString("\n")
	b.WriteString(containerStyle.Render(summaryTable(stats)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Top Projects"))
	b.WriteString("\n")
	b.WriteString(renderBars(head(stats.Projects, rankedLimit), rankedBarWidth))
	b.WriteString("\n")

	if len(stats.TopTags) > 0 {
		b.WriteString(sectionStyle.Render("Top Tags"))
		b.WriteString("\n")
		b.WriteString(renderBars(head(stats.TopTags, rankedLimit), rankedBarWidth))
		b.WriteString("\n")
	}

	activity := tail(stats.ActivityByMonth, activityMonths)
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Activity (last %d months)", activityMonths)))
	b.WriteString("\n")
	b.WriteString(renderBars(activity, activityBarWidth))
	b.WriteString("\n")
	if spark := activitySparkline(activity); spark != "" {
		b.WriteString(spark)
		b.WriteString("\n")
	}

	return b.String()
}

func summaryTable(stats conversation.Stats) string {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col%2 == 0 {
				return labelStyle.PaddingRight(1)
			}
			return valueStyle.PaddingRight(3)
		}).
		Rows(
			[]string{"Total Conversations", fmt.Sprintf("%d", stats.TotalConversations), "Total Messages", fmt.Sprintf("%d", stats.TotalMessages)},
			[]string{"Avg Msg/Conv", FormatAverage(stats.AvgMessagesPerConversation), "Date Range", FormatDateRange(stats.DateRange)},
		)
	return t.Render()
}

func activitySparkline(items []conversation.StatItem) string {
	if len(items) < 2 {
		return ""
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, it := range items {
		spark.Push(float64(it.Value))
	}
	spark.Draw()

	return sparklineStyle.Render(spark.View())
}

func head(items []conversation.StatItem, n int) []conversation.StatItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func tail(items []conversation.StatItem, n int) []conversation.StatItem {
	if len(items) > n {
		return items[len(items)-n:]
	}
	return items
}
