package conversation

import (
	"math"
	"sort"
	"time"
)

// UncategorizedProject is the bucket for conversations without a project.
const UncategorizedProject = "Uncategorized"

const topStatsLimit = 10

// StatItem is a labelled count.
type StatItem struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// DateRange spans the earliest and latest conversation creation times.
// Both ends are nil when no conversation carries a usable timestamp.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Stats summarizes a batch of conversations.
type Stats struct {
	TotalConversations         int        `json:"total_conversations"`
	TotalMessages              int        `json:"total_messages"`
	AvgMessagesPerConversation float64    `json:"avg_messages_per_conversation"`
	DateRange                  DateRange  `json:"date_range"`
	Projects                   []StatItem `json:"projects"`
	ActivityByMonth            []StatItem `json:"activity_by_month"`
	TopTags                    []StatItem `json:"top_tags"`
}

// CalculateStats computes batch statistics. Projects and tags are ranked by
// count (ties broken by label) and capped at ten entries; monthly activity is
// listed chronologically.
func CalculateStats(convs []Conversation) Stats {
	stats := Stats{
		Projects:        []StatItem{},
		ActivityByMonth: []StatItem{},
		TopTags:         []StatItem{},
	}
	if len(convs) == 0 {
		return stats
	}

	stats.TotalConversations = len(convs)

	projectCounts := make(map[string]int)
	monthCounts := make(map[string]int)
	tagCounts := make(map[string]int)
	var start, end time.Time

	for i := range convs {
		conv := &convs[i]
		stats.TotalMessages += len(conv.Messages)

		if !conv.CreatedAt.IsZero() {
			created := conv.CreatedAt.UTC()
			if start.IsZero() || created.Before(start) {
				start = created
			}
			if end.IsZero() || created.After(end) {
				end = created
			}
			monthCounts[created.Format("2006-01")]++
		}

		project := conv.ProjectName
		if project == "" {
			project = UncategorizedProject
		}
		projectCounts[project]++

		for _, tag := range conv.Tags {
			tagCounts[tag]++
		}
	}

	avg := float64(stats.TotalMessages) / float64(stats.TotalConversations)
	stats.AvgMessagesPerConversation = math.Round(avg*10) / 10

	if !start.IsZero() {
		stats.DateRange = DateRange{Start: &start, End: &end}
	}

	stats.Projects = rankByCount(projectCounts, topStatsLimit)
	stats.TopTags = rankByCount(tagCounts, topStatsLimit)

	for month, count := range monthCounts {
		stats.ActivityByMonth = append(stats.ActivityByMonth, StatItem{Label: month, Value: count})
	}
	sort.Slice(stats.ActivityByMonth, func(i, j int) bool {
		return stats.ActivityByMonth[i].Label < stats.ActivityByMonth[j].Label
	})

	return stats
}

func rankByCount(counts map[string]int, limit int) []StatItem {
	items := make([]StatItem, 0, len(counts))
	for label, value := range counts {
		items = append(items, StatItem{Label: label, Value: value})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Value != items[j].Value {
			return items[i].Value > items[j].Value
		}
		return items[i].Label < items[j].Label
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}
