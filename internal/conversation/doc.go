// Package conversation defines the canonical conversation model shared by every
// stage of the export pipeline.
//
// Both provider schemas (the linear message list and the parent-pointer message
// tree) converge on Conversation. Downstream stages (tagging, Markdown
// transformation, path organization, writing) only ever see this type.
//
// # Lifecycle
//
// Conversations are created during normalization. The tagging stage may set
// Tags once; after a conversation is written it is treated as immutable.
//
// # Statistics
//
// CalculateStats summarizes a batch of conversations:
//
//	stats := conversation.CalculateStats(convs)
//	fmt.Printf("%d conversations, %.1f messages on average\n",
//	    stats.TotalConversations, stats.AvgMessagesPerConversation)
package conversation
