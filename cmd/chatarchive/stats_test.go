package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
)

func TestStatsCmd_JSON(t *testing.T) {
	isolate(t)
	inDir := t.TempDir()
	writeFile(t, inDir, "conversations.json", claudeExport)
	writeFile(t, inDir, "projects.json", claudeProjects)

	stdout, _, err := executeCommand(t, "stats", "-i", inDir, "--json")
	require.NoError(t, err)

	var stats conversation.Stats
	require.NoError(t, json.Unmarshal([]byte(stdout), &stats))
	assert.Equal(t, 2, stats.TotalConversations)
	assert.Equal(t, 2, stats.TotalMessages)
	assert.Equal(t, 1.0, stats.AvgMessagesPerConversation)
	assert.ElementsMatch(t, []conversation.StatItem{
		{Label: "Side Project", Value: 1},
		{Label: conversation.UncategorizedProject, Value: 1},
	}, stats.Projects)
	assert.Equal(t, []conversation.StatItem{
		{Label: "2023-02", Value: 1},
		{Label: "2023-03", Value: 1},
	}, stats.ActivityByMonth)
}

func TestStatsCmd_Table(t *testing.T) {
	isolate(t)
	inFile := writeFile(t, t.TempDir(), "conversations.json", chatgptExport)

	stdout, _, err := executeCommand(t, "stats", "-p", "chatgpt", "-i", inFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Total Conversations")
	assert.Contains(t, stdout, "Jan 2023 - Jan 2023")
	assert.Contains(t, stdout, "2023-01")
}

func TestStatsCmd_NoTagsWithoutTagging(t *testing.T) {
	isolate(t)
	inFile := writeFile(t, t.TempDir(), "conversations.json", claudeExport)

	stdout, _, err := executeCommand(t, "stats", "-p", "claude", "-i", inFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Top Projects")
	assert.NotContains(t, stdout, "Top Tags")

	stdout, _, err = executeCommand(t, "stats", "-p", "claude", "-i", inFile, "--json")
	require.NoError(t, err)
	var stats conversation.Stats
	require.NoError(t, json.Unmarshal([]byte(stdout), &stats))
	assert.NotNil(t, stats.TopTags)
	assert.Empty(t, stats.TopTags)

	assert.Contains(t, statsCmd.Long, "export --tag")
}
